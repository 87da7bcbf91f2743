package middleware

import (
	"errors"
	"net/http"
	"order-intake/internal/metrics"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Metrics records request counts and latency per route.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			metrics.HTTPRequestDuration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
			return err
		}
	}
}
