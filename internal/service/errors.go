package service

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Errors returned by AuthService.  The HTTP layer maps each to a status and
// a client-facing message; wrapped causes are only logged.
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateIdentity  = errors.New("username, email or phone number already exists")
	ErrPersistence        = errors.New("persistence failure")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingEmail       = errors.New("email is required")
	ErrMissingPassword    = errors.New("new password is required")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrMailDelivery       = errors.New("reset mail could not be sent")
)

// ValidationError carries per-field messages alongside the error class
// (ErrMissingFields or ErrInvalidInput).
type ValidationError struct {
	Kind   error
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Kind.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// newValidationError converts ozzo's error map into a ValidationError.  Any
// other error (a rule misconfiguration) is returned unchanged.
func newValidationError(kind error, err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		fields[k] = v.Error()
	}
	return &ValidationError{Kind: kind, Fields: fields}
}
