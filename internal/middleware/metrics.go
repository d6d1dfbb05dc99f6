package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"simreg/internal/metrics"
)

// Metrics records the count and latency of HTTP requests by route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
