package middleware

import (
	"strconv"

	"github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/code"
	"github.com/thingspace/thingspace-notes/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 令牌桶限流，未配置桶的路由不受限制
// Exhausted buckets answer 429 with a Retry-After hint.
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		bucket, ok := l.GetBucket(l.Key(c))
		if !ok {
			c.Next()
			return
		}
		if bucket.TakeAvailable(1) == 0 {
			c.Header("Retry-After", "1")
			app.NewResponse(c).ToResponse(code.ErrorTooManyRequests)
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		c.Next()
	}
}
