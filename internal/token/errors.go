package token

import "errors"

// Verification failures.  Callers map all three onto a 403 at the HTTP edge
// but log them separately.
var (
	ErrMissingToken = errors.New("token is missing")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidToken = errors.New("token is invalid")

	// ErrInvalidOrExpiredReset covers a bad signature, a wrong purpose and a
	// token older than the configured window.  The caller is never told which.
	ErrInvalidOrExpiredReset = errors.New("reset token is invalid or expired")
)
