package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospital-portal/internal/predict"
	"github.com/iliyamo/hospital-portal/internal/service"
)

// failure describes how one error class is presented to clients.  An empty
// msg means the error's own text is safe to show.
type failure struct {
	target error
	status int
	msg    string
	code   string
}

var failures = []failure{
	{service.ErrMissingFields, http.StatusBadRequest, "All fields are required!", "missing_fields"},
	{service.ErrInvalidInput, http.StatusBadRequest, "Invalid input", "invalid_input"},
	{service.ErrDuplicateIdentity, http.StatusBadRequest, "Username, email or phone number already exists!", "duplicate_identity"},
	{service.ErrMissingCredentials, http.StatusBadRequest, "Username and password are required!", "missing_credentials"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials!", "invalid_credentials"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found", "user_not_found"},
	{service.ErrMissingEmail, http.StatusBadRequest, "Email is required!", "missing_email"},
	{service.ErrMissingPassword, http.StatusBadRequest, "New password is required!", "missing_password"},
	{service.ErrInvalidResetToken, http.StatusBadRequest, "Invalid or expired token", "invalid_reset_token"},
	{service.ErrMailDelivery, http.StatusInternalServerError, "Failed to send reset email", "mail_failed"},
	{service.ErrPersistence, http.StatusInternalServerError, "Database error", "persistence_error"},
	{predict.ErrMissingFeatures, http.StatusBadRequest, "", "missing_features"},
	{predict.ErrUnmappedCategory, http.StatusBadRequest, "", "unmapped_category"},
	{predict.ErrInvalidFeature, http.StatusBadRequest, "", "invalid_feature"},
	{predict.ErrModel, http.StatusInternalServerError, "Prediction failed", "model_error"},
}

// statusFor maps err onto its HTTP status and public message.
func statusFor(err error) (int, string, string) {
	for _, f := range failures {
		if errors.Is(err, f.target) {
			msg := f.msg
			if msg == "" {
				msg = err.Error()
			}
			return f.status, msg, f.code
		}
	}
	return http.StatusInternalServerError, "Internal server error", "internal"
}

// writeError renders err as {"error", "code"[, "details"]}.  Server-side
// failures are logged with their cause; client errors are not.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	status, msg, code := statusFor(err)
	body := echo.Map{"error": msg, "code": code}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		body["details"] = ve.Fields
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.Path(), "code", code, "err", err)
	}
	return c.JSON(status, body)
}
