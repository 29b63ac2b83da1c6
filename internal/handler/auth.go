package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospital-portal/internal/metrics"
	"github.com/iliyamo/hospital-portal/internal/middleware"
	"github.com/iliyamo/hospital-portal/internal/service"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Svc          *service.AuthService
	CookieSecure bool
	Cache        *middleware.ResponseCache // user listing cache, dropped on register
	Metrics      *metrics.Metrics
	Log          *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, cookieSecure bool, cache *middleware.ResponseCache, m *metrics.Metrics, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, CookieSecure: cookieSecure, Cache: cache, Metrics: m, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

// Register: validate and create a user with the default role.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		_, _, code := statusFor(err)
		h.Metrics.Registration(code)
		return writeError(c, h.Log, err)
	}
	h.Metrics.Registration("created")
	h.Cache.Invalidate(ctx, "/users")
	h.Log.Info("user registered", "user_id", u.ID)
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully!"})
}

// Login: verify credentials, set the session cookie and echo the token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		_, _, code := statusFor(err)
		h.Metrics.Login(code)
		return writeError(c, h.Log, err)
	}
	h.Metrics.Login("success")

	c.SetCookie(h.sessionCookie(res.Token, res.ExpiresAt))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful!",
		"token":   res.Token,
		"expires": res.ExpiresAt,
	})
}

// Logout clears the session cookie.  The token itself stays valid until it
// expires.
func (h *AuthHandler) Logout(c echo.Context) error {
	ck := h.sessionCookie("", time.Unix(0, 0))
	ck.MaxAge = -1
	c.SetCookie(ck)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

func (h *AuthHandler) sessionCookie(value string, exp time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	// Cross-site front-ends need SameSite=None, which browsers only accept
	// on secure cookies.
	if h.CookieSecure {
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}

// ForgotPassword mails a reset link to the given address.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Svc.ForgotPassword(ctx, req.Email); err != nil {
		_, _, code := statusFor(err)
		h.Metrics.PasswordReset("request", code)
		return writeError(c, h.Log, err)
	}
	h.Metrics.PasswordReset("request", "sent")
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset email sent"})
}

// ResetPassword sets a new password using the token from the reset link.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	pw := req.Password
	if pw == "" {
		pw = req.NewPassword
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.ResetPassword(ctx, c.Param("token"), pw); err != nil {
		_, _, code := statusFor(err)
		h.Metrics.PasswordReset("complete", code)
		return writeError(c, h.Log, err)
	}
	h.Metrics.PasswordReset("complete", "ok")
	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset"})
}

// Dashboard is the staff landing page.
func (h *AuthHandler) Dashboard(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to the dashboard!", "user": u.Username})
}

// Home is the patient landing page.
func (h *AuthHandler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to the home page!"})
}

func (h *AuthHandler) Contact(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to the contact page!"})
}
