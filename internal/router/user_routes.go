package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospital-portal/internal/middleware"
	"github.com/iliyamo/hospital-portal/internal/model"
)

// RegisterUsers registers the user CRUD endpoints.  They are not gated; the
// listing is served through the Redis response cache.
func RegisterUsers(e *echo.Echo, d Deps) {
	u := d.UserHandler
	e.GET("/users", u.List, d.Cache.Middleware())
	e.PUT("/users/:id", u.Update)
	e.DELETE("/users/:id", u.Delete)
}

// RegisterPredict registers the prediction endpoint (open) and the record
// log (staff only).
func RegisterPredict(e *echo.Echo, d Deps) {
	p := d.PredictHandler
	e.POST("/predict", p.Predict)
	e.GET("/records", p.Records, middleware.RequireAuth(d.Auth, d.Log, model.RoleAdmin, model.RoleManager))
}
