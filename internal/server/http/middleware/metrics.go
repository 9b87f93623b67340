package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/paycore/internal/metrics"
)

// Metrics records request latency by route template and status.
func Metrics(collectors *metrics.Collectors) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collectors.HTTPRequests.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
