package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CodeAndHammer/wordwise/internal/constants"
	"github.com/CodeAndHammer/wordwise/internal/util"
)

// Middleware enforces the limit configured for route, keyed by client IP.
// Routes missing from the table pass through untouched.
func Middleware(l *Limiter, route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()
		if clientID == "" {
			clientID = "unknown"
		}

		res := l.Check(c.Request.Context(), clientID, route, time.Now())
		if res.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		}

		if !res.Allowed {
			retryAfter := int(res.RetryAfter.Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			util.LogWarnCtx(c.Request.Context(), "Rate limit exceeded for %s on route %s", clientID, route)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      constants.ErrorCodeRateLimited,
				"retryAfter": retryAfter,
			})
			return
		}
		c.Next()
	}
}
