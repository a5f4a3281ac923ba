package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/pkg/metrics"
)

// unmatchedRoute labels requests that hit no registered route so random
// probes cannot grow the label set.
const unmatchedRoute = "unmatched"

// Metrics observes latency per route template and tracks in-flight requests.
// WebSocket upgrades are left out of the in-flight gauge; the hub counts
// them as realtime connections.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.IsWebsocket() {
			metrics.HTTPInFlight.Inc()
			defer metrics.HTTPInFlight.Dec()
		}
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
