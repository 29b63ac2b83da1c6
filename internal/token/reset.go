package token

import (
	"crypto/sha256"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const resetAudience = "password-reset"

// ResetClaims is the payload of a password reset token.  It deliberately has
// no exp claim; age is enforced at verification time from iat.
type ResetClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ResetIssuer mints and checks password reset tokens.
type ResetIssuer struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewResetIssuer derives a dedicated signing key from the application secret
// and salt, so a reset token never verifies under the session key.
func NewResetIssuer(secret, salt string, maxAge time.Duration) (*ResetIssuer, error) {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(resetAudience))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return &ResetIssuer{key: key, maxAge: maxAge, now: time.Now}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (r *ResetIssuer) WithClock(now func() time.Time) *ResetIssuer {
	cp := *r
	cp.now = now
	return &cp
}

// IssueReset signs email into a reset token.
func (r *ResetIssuer) IssueReset(email string) (string, error) {
	claims := ResetClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{resetAudience},
			IssuedAt: jwt.NewNumericDate(r.now().UTC()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.key)
}

// VerifyReset returns the email carried by raw if the signature is good and
// the token is younger than the configured max age.
func (r *ResetIssuer) VerifyReset(raw string) (string, error) {
	var claims ResetClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return r.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resetAudience),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil || claims.Email == "" || claims.IssuedAt == nil {
		return "", ErrInvalidOrExpiredReset
	}
	if r.now().Sub(claims.IssuedAt.Time) > r.maxAge {
		return "", ErrInvalidOrExpiredReset
	}
	return claims.Email, nil
}

// MaxAge reports the window a reset token is accepted for.
func (r *ResetIssuer) MaxAge() time.Duration { return r.maxAge }
