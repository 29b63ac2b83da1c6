package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestIssueVerify_RoundTrip(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer("s3cret", time.Hour).WithClock(fixedClock(base))

	raw, exp, err := iss.Issue(42, "admin")
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), exp)

	id, err := iss.WithClock(fixedClock(base.Add(59 * time.Minute))).Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Role: "admin"}, id)
}

func TestVerify_Expired(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer("s3cret", time.Hour).WithClock(fixedClock(base))
	raw, _, err := iss.Issue(1, "user")
	require.NoError(t, err)

	_, err = iss.WithClock(fixedClock(base.Add(61 * time.Minute))).Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_Missing(t *testing.T) {
	_, err := NewIssuer("s3cret", 0).Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerify_Invalid(t *testing.T) {
	iss := NewIssuer("s3cret", time.Hour)
	raw, _, err := iss.Issue(7, "user")
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": mustIssue(t, NewIssuer("other", time.Hour), 7, "user"),
		"tampered":     tamper(raw),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerify_RejectsNoneAlg(t *testing.T) {
	claims := Claims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{sessionAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("s3cret", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsResetToken(t *testing.T) {
	// Even a reset issuer keyed with the very same secret and an empty salt
	// produces tokens a session verifier refuses.
	rs, err := NewResetIssuer("s3cret", "", time.Hour)
	require.NoError(t, err)
	raw, err := rs.IssueReset("john@x.com")
	require.NoError(t, err)

	_, err = NewIssuer("s3cret", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func mustIssue(t *testing.T, iss *Issuer, id uint64, role string) string {
	t.Helper()
	raw, _, err := iss.Issue(id, role)
	require.NoError(t, err)
	return raw
}

// tamper flips one character of the payload segment.
func tamper(raw string) string {
	parts := strings.Split(raw, ".")
	p := []byte(parts[1])
	if p[0] == 'a' {
		p[0] = 'b'
	} else {
		p[0] = 'a'
	}
	parts[1] = string(p)
	return strings.Join(parts, ".")
}
