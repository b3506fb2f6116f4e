// Package middleware provides the Gin middleware for the user group manager:
// request identification, security headers, rate limiting, Prometheus metrics,
// JWT authentication, and permission gating. Everything here is wired up in
// internal/api/router.go.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/usergroup-manager/usergroup-manager/internal/telemetry"
)

// MetricsMiddleware records http_requests_total and
// http_request_duration_seconds for every request. The path label is the
// matched route template from c.FullPath() (e.g. /api/v1/admin/users/:id),
// never the raw URL; unmatched requests share the "<no-route>" label so 404
// scans cannot blow up series cardinality. Register after gin.Recovery() so
// the status written by the panic handler is the one recorded.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
