package middleware

import (
	"net/http"
	"strconv"
	"time"

	"augustus_tap/internal/cache"

	"github.com/gin-gonic/gin"
)

// RedisRateLimit is a fixed-window per-IP limiter on top of the shared cache
// client. With a disabled cache it fails open so the API stays available.
// key format: rl:<window_seconds>:<identifier>
func RedisRateLimit(c *cache.Cache, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !c.Enabled() {
			ctx.Next()
			return
		}

		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ctx.ClientIP()
		val, err := c.IncrWindow(ctx.Request.Context(), key, window)
		if err != nil {
			// fail-open on cache errors, but mark the response
			ctx.Header("X-RateLimit-Error", "redis-error")
			ctx.Next()
			return
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(ctx.FullPath()).Inc()
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(ctx.FullPath()).Inc()
		ctx.Next()
	}
}
