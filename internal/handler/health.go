package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health is a liveness probe; it only proves the process answers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready returns a readiness probe that pings the database and, when
// configured, Redis.
func Ready(db *gorm.DB, rdb *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		checks := echo.Map{}
		ok := true
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "down"
			ok = false
		} else {
			checks["database"] = "up"
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = "down"
				ok = false
			} else {
				checks["redis"] = "up"
			}
		}
		if !ok {
			return c.JSON(http.StatusServiceUnavailable, checks)
		}
		return c.JSON(http.StatusOK, checks)
	}
}
