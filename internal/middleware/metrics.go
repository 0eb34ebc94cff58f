package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/makeups-api/internal/service"
)

// unmatchedRoute labels requests no route matched so scanners cannot blow up
// the path label cardinality.
const unmatchedRoute = "unmatched"

// Metrics observes every request against its route template.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
