package middleware

// identity.go holds the echo context keys the auth middleware writes and the
// helpers handlers and the rate limiter use to read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospital-portal/internal/model"
)

const (
	ContextUser   = "user"    // model.User resolved from the session token
	ContextUserID = "user_id" // uint64
	ContextRole   = "role"    // string
)

// CurrentUser returns the user attached by Authenticate, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ContextUser).(model.User)
	return u, ok
}

// currentUserID returns the authenticated user id as a string, or "anon".
func currentUserID(c echo.Context) string {
	if id, ok := c.Get(ContextUserID).(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
