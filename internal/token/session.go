// Package token issues and verifies the two kinds of signed credentials the
// portal hands out: short-lived session tokens and password reset tokens.
// Both are HS256 JWTs, but they carry different audiences and are signed with
// different keys so neither can be replayed as the other.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionAudience = "session"

// Claims is the payload of a session token.
type Claims struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified session token resolves to.
type Identity struct {
	UserID uint64
	Role   string
}

// Issuer mints and checks session tokens.  It holds no mutable state and is
// safe for concurrent use.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer signing with secret.  A zero ttl falls back to
// one hour.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

// TTL returns how long issued tokens stay valid.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a session token for the given user and role and returns it
// together with its expiry instant.
func (i *Issuer) Issue(userID uint64, role string) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the signature, algorithm, audience and expiry of raw and
// returns the identity it carries.  It does not touch the user store.
func (i *Issuer) Verify(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrMissingToken
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, ErrExpiredToken
	default:
		return Identity{}, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}
