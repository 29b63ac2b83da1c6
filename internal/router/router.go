package router // package router defines how HTTP routes are registered for the API

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/iliyamo/hospital-portal/internal/config"
	"github.com/iliyamo/hospital-portal/internal/handler"
	"github.com/iliyamo/hospital-portal/internal/metrics"
	"github.com/iliyamo/hospital-portal/internal/middleware"
)

// Deps is everything the routes need, built once in main.
type Deps struct {
	Cfg     *config.Config
	DB      *gorm.DB
	Redis   *redis.Client // optional
	Log     *slog.Logger
	Metrics *metrics.Metrics
	Auth    middleware.Authenticator
	Cache   *middleware.ResponseCache

	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	PredictHandler *handler.PredictHandler
}

// New builds the Echo instance with the ambient middleware stack and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(d.Log))
	if len(d.Cfg.AllowedOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     d.Cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
			AllowCredentials: true,
		}))
	}
	e.Use(d.Metrics.Middleware())

	RegisterRoutes(e, d)
	RegisterAuth(e, d)
	RegisterUsers(e, d)
	RegisterPredict(e, d)
	return e
}

// RegisterRoutes registers the operational endpoints: liveness, readiness
// and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.DB, d.Redis))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
}

// requestLogger emits one structured line per request.
func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				log.Error("request", append(attrs, "err", v.Error)...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	})
}
