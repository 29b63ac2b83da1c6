package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospital-portal/internal/model"
	"github.com/iliyamo/hospital-portal/internal/service"
	"github.com/iliyamo/hospital-portal/internal/token"
)

// TokenCookie is the cookie the session token is set in at login.
const TokenCookie = "token"

// Authenticator resolves a raw session token to a user.
// *service.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// Authenticate returns a middleware that requires a valid session token,
// taken from the Authorization bearer header or, failing that, the token
// cookie.  The resolved user, its id and its role are stored in the context
// under ContextUser, ContextUserID and ContextRole.
func Authenticate(a Authenticator, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := a.Authenticate(c.Request().Context(), tokenFrom(c.Request()))
			if err != nil {
				status, msg := authFailure(err)
				if status >= http.StatusInternalServerError {
					log.Error("authenticate failed", "err", err, "path", c.Path())
				}
				return c.JSON(status, echo.Map{"error": msg})
			}
			c.Set(ContextUser, u)
			c.Set(ContextUserID, u.ID)
			c.Set(ContextRole, u.Role)
			return next(c)
		}
	}
}

// RequireAuth composes Authenticate and RequireRole.  Token problems are
// rejected before the role is looked at.
func RequireAuth(a Authenticator, log *slog.Logger, roles ...string) echo.MiddlewareFunc {
	authn := Authenticate(a, log)
	authz := RequireRole(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return authn(authz(next))
	}
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
	}
	if ck, err := r.Cookie(TokenCookie); err == nil {
		return ck.Value
	}
	return ""
}

func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, token.ErrMissingToken):
		return http.StatusForbidden, "Token is missing!"
	case errors.Is(err, token.ErrExpiredToken):
		return http.StatusForbidden, "Token has expired"
	case errors.Is(err, token.ErrInvalidToken):
		return http.StatusForbidden, "Invalid token"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	}
	return http.StatusInternalServerError, "Token validation error"
}
