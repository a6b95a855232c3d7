package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/prometheus"
)

// MetricsMiddleware adds prometheus metrics to track HTTP requests
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		path := c.Path()
		if path == "/metrics" || path == "/health" {
			return err
		}

		duration := time.Since(start).Seconds()
		method := c.Request().Method
		status := strconv.Itoa(c.Response().Status)

		prometheus.HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
		prometheus.HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration)

		return err
	}
}
