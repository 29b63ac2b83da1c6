package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospital-portal/internal/middleware"
	"github.com/iliyamo/hospital-portal/internal/model"
)

// RegisterAuth registers the credential endpoints and the role-gated pages.
// Each gated route declares its own allow-list; login and forgot-password
// sit behind the Redis token bucket.
func RegisterAuth(e *echo.Echo, d Deps) {
	a := d.AuthHandler
	bucket := middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis, d.Log)
	bucket.OnBlocked = d.Metrics.RateLimited
	limit := bucket.Middleware()

	e.POST("/register", a.Register)
	e.POST("/login", a.Login, limit)
	e.GET("/logout", a.Logout)
	e.POST("/forgotpassword", a.ForgotPassword, limit)
	e.POST("/resetpassword/:token", a.ResetPassword)

	e.GET("/dashboard", a.Dashboard, middleware.RequireAuth(d.Auth, d.Log, model.RoleAdmin, model.RoleManager))
	e.GET("/home", a.Home, middleware.RequireAuth(d.Auth, d.Log, model.RoleUser))
	e.GET("/contact", a.Contact, middleware.RequireAuth(d.Auth, d.Log, model.RoleUser))
}
