// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the portal's collectors.  A nil *Metrics is valid and
// records nothing, which keeps unit tests free of registry plumbing.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	resets        *prometheus.CounterVec
	predictions   *prometheus.CounterVec
	throttled     *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_registrations_total",
			Help: "Registration attempts by result.",
		}, []string{"result"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_password_resets_total",
			Help: "Password reset requests and completions by result.",
		}, []string{"stage", "result"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_predictions_total",
			Help: "Stroke risk predictions by outcome.",
		}, []string{"outcome"}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_rate_limited_total",
			Help: "Requests rejected by the token bucket, by route.",
		}, []string{"route"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.logins, m.registrations, m.resets, m.predictions, m.throttled,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) Login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Registration(result string) {
	if m != nil {
		m.registrations.WithLabelValues(result).Inc()
	}
}

// PasswordReset counts a reset step; stage is "request" or "complete".
func (m *Metrics) PasswordReset(stage, result string) {
	if m != nil {
		m.resets.WithLabelValues(stage, result).Inc()
	}
}

func (m *Metrics) Prediction(outcome string) {
	if m != nil {
		m.predictions.WithLabelValues(outcome).Inc()
	}
}

// RateLimited counts a request the token bucket turned away.
func (m *Metrics) RateLimited(route string) {
	if m != nil {
		m.throttled.WithLabelValues(route).Inc()
	}
}
