package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/searchproxy/internal/ratelimit"
)

// RateLimitMessage is the body returned to clients over the limit.
const RateLimitMessage = "Too many requests, please try again later."

// RateLimit rejects clients that exceed the limiter's budget with 429.
// Clients are identified by their IP address. onReject, if not nil, is
// called for every rejected request.
func RateLimit(limiter *ratelimit.Limiter, onReject func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Allow(clientKey(c.ClientIP()))

		reset := seconds(d.Reset)
		h := c.Writer.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(reset))

		if !d.Allowed {
			if onReject != nil {
				onReject()
			}
			h.Set("Retry-After", strconv.Itoa(reset))
			c.String(http.StatusTooManyRequests, RateLimitMessage)
			c.Abort()
			return
		}

		c.Next()
	}
}

// clientKey normalizes IPv4-mapped IPv6 addresses so both forms share a bucket.
func clientKey(raw string) string {
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return raw
}

// seconds rounds d up to whole seconds.
func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
