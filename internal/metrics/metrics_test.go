package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Login("success")
	m.Login("success")
	m.Login("invalid")
	m.Registration("created")
	m.PasswordReset("request", "sent")
	m.Prediction("High")
	m.RateLimited("/login")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resets.WithLabelValues("request", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("High")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.throttled.WithLabelValues("/login")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Login("success")
		m.Registration("created")
		m.PasswordReset("complete", "ok")
		m.Prediction("Low")
		m.RateLimited("/forgotpassword")
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/healthz", "200")))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portal_http_requests_total")
}
