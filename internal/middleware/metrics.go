package middleware

import (
	"strconv"
	"time"

	"github.com/dukerupert/gallery/internal/metrics"
	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records HTTP request metrics. Register it outside the
// request logger so handler errors are still visible to the logger.
//
// Metrics collected:
// - http_requests_total (counter) - labels: method, path, status
// - http_request_duration_seconds (histogram) - labels: method, path
// - http_requests_in_flight (gauge)
// - http_request_size_bytes (histogram) - labels: method, path
//
// Usage:
//
//	e.Use(middleware.MetricsMiddleware())
//	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Skip metrics endpoint itself to avoid recursion
			if c.Path() == "/metrics" {
				return next(c)
			}

			start := time.Now()
			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			requestSize := float64(c.Request().ContentLength)
			if requestSize < 0 {
				requestSize = 0
			}

			// Render errors here so the recorded status is the one sent.
			if err := next(c); err != nil {
				c.Error(err)
			}

			method := c.Request().Method
			path := c.Path()
			status := strconv.Itoa(c.Response().Status)

			metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestSizeBytes.WithLabelValues(method, path).Observe(requestSize)

			return nil
		}
	}
}
