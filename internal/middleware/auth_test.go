package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospital-portal/internal/logging"
	"github.com/iliyamo/hospital-portal/internal/model"
	"github.com/iliyamo/hospital-portal/internal/service"
	"github.com/iliyamo/hospital-portal/internal/token"
)

// fakeAuth maps raw tokens to users or errors.
type fakeAuth struct {
	users map[string]model.User
	errs  map[string]error
	seen  []string
}

func (f *fakeAuth) Authenticate(_ context.Context, raw string) (model.User, error) {
	f.seen = append(f.seen, raw)
	if raw == "" {
		return model.User{}, token.ErrMissingToken
	}
	if err, ok := f.errs[raw]; ok {
		return model.User{}, err
	}
	if u, ok := f.users[raw]; ok {
		return u, nil
	}
	return model.User{}, token.ErrInvalidToken
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users: map[string]model.User{
			"admin-tok": {ID: 1, Username: "root", Role: model.RoleAdmin},
			"user-tok":  {ID: 2, Username: "johndoe", Role: model.RoleUser},
		},
		errs: map[string]error{
			"expired-tok": token.ErrExpiredToken,
			"ghost-tok":   service.ErrUserNotFound,
			"broken-tok":  errors.New("db down"),
		},
	}
}

func protected(a Authenticator, roles ...string) *echo.Echo {
	e := echo.New()
	e.GET("/dashboard", func(c echo.Context) error {
		u, ok := CurrentUser(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, echo.Map{"user": u.Username, "id": c.Get(ContextUserID), "role": c.Get(ContextRole)})
	}, RequireAuth(a, logging.Discard(), roles...))
	return e
}

func call(e *echo.Echo, setup func(r *http.Request)) (int, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec.Code, body
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }
}

func TestRequireAuth(t *testing.T) {
	e := protected(newFakeAuth(), model.RoleAdmin, model.RoleManager)

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
		msg    string
	}{
		{"missing", nil, http.StatusForbidden, "Token is missing!"},
		{"invalid", bearer("junk"), http.StatusForbidden, "Invalid token"},
		{"expired", bearer("expired-tok"), http.StatusForbidden, "Token has expired"},
		{"user vanished", bearer("ghost-tok"), http.StatusNotFound, "User not found"},
		{"store failure", bearer("broken-tok"), http.StatusInternalServerError, "Token validation error"},
		{"wrong role", bearer("user-tok"), http.StatusForbidden, "Permission denied!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(e, tc.setup)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, body["error"])
		})
	}

	status, body := call(e, bearer("admin-tok"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "root", body["user"])
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "admin", body["role"])
}

func TestRequireAuth_CookieAndHeaderPrecedence(t *testing.T) {
	a := newFakeAuth()
	e := protected(a, model.RoleUser)

	status, _ := call(e, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "user-tok"})
	})
	assert.Equal(t, http.StatusOK, status)

	// The header wins over the cookie.
	status, _ = call(e, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "bearer admin-tok")
		r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "user-tok"})
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "admin-tok", a.seen[len(a.seen)-1])
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(model.RoleAdmin))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
