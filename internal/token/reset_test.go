package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReset_RoundTrip(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rs, err := NewResetIssuer("s3cret", "reset-salt", time.Hour)
	require.NoError(t, err)
	rs = rs.WithClock(fixedClock(base))

	raw, err := rs.IssueReset("john@x.com")
	require.NoError(t, err)

	email, err := rs.WithClock(fixedClock(base.Add(30 * time.Minute))).VerifyReset(raw)
	require.NoError(t, err)
	assert.Equal(t, "john@x.com", email)
}

func TestReset_TooOld(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rs, err := NewResetIssuer("s3cret", "reset-salt", time.Hour)
	require.NoError(t, err)
	raw, err := rs.WithClock(fixedClock(base)).IssueReset("john@x.com")
	require.NoError(t, err)

	_, err = rs.WithClock(fixedClock(base.Add(time.Hour + time.Second))).VerifyReset(raw)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredReset)
}

func TestReset_WrongSaltOrSecret(t *testing.T) {
	rs, err := NewResetIssuer("s3cret", "reset-salt", time.Hour)
	require.NoError(t, err)
	raw, err := rs.IssueReset("john@x.com")
	require.NoError(t, err)

	otherSalt, err := NewResetIssuer("s3cret", "another-salt", time.Hour)
	require.NoError(t, err)
	_, err = otherSalt.VerifyReset(raw)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredReset)

	otherSecret, err := NewResetIssuer("different", "reset-salt", time.Hour)
	require.NoError(t, err)
	_, err = otherSecret.VerifyReset(raw)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredReset)
}

func TestReset_RejectsSessionToken(t *testing.T) {
	rs, err := NewResetIssuer("s3cret", "reset-salt", time.Hour)
	require.NoError(t, err)
	session, _, err := NewIssuer("s3cret", time.Hour).Issue(1, "admin")
	require.NoError(t, err)

	_, err = rs.VerifyReset(session)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredReset)
}

func TestReset_FutureIssuedAt(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rs, err := NewResetIssuer("s3cret", "reset-salt", time.Hour)
	require.NoError(t, err)
	raw, err := rs.WithClock(fixedClock(base.Add(time.Hour))).IssueReset("john@x.com")
	require.NoError(t, err)

	_, err = rs.WithClock(fixedClock(base)).VerifyReset(raw)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredReset)
}
