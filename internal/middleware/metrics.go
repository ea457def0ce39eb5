package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestRecorder receives one observation per completed request.
type RequestRecorder interface {
	RecordRequest(method, route, status string, elapsed time.Duration)
}

// unmatchedRoute labels requests that did not hit a registered route, so
// arbitrary paths do not create new label values.
const unmatchedRoute = "unmatched"

// Metrics records method, route, status, and latency of every request.
func Metrics(recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		recorder.RecordRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
