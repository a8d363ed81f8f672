package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"accounts.backend/pkg/logger"
	"accounts.backend/pkg/metrics"
)

// LoggerMiddleware logs HTTP requests using the structured logger and
// observes their latency per route template
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), latency)

		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), latency, c.ClientIP())
	}
}
