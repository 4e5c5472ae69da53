// internal/middleware/metrics.go
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tatsuya-ogawa/migan-inpaint/internal/metrics"
)

// Metrics records a Prometheus histogram observation for every HTTP request,
// labeled by matched route and status code.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Call the handler chain
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.RecordHTTPLatency(route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
