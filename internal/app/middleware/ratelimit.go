package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kidpech/asso_api/internal/infrastructure/ratelimit"
	"github.com/kidpech/asso_api/pkg/response"
)

// RateLimit throttles by client IP and, once authenticated, by user id.
// Limiter failures are logged and the request is let through.
func RateLimit(byIP, byUser ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	check := func(c *gin.Context, limiter ratelimit.Limiter, key string) bool {
		if limiter == nil {
			return true
		}
		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			return true
		}
		writeQuota(c, d)
		if !d.Allowed {
			response.TooManyRequests(c, d.Reset)
			c.Abort()
			return false
		}
		return true
	}
	return func(c *gin.Context) {
		if !check(c, byIP, "ip:"+c.ClientIP()) {
			return
		}
		if uid := response.UserIDFromContext(c); uid != "" {
			if !check(c, byUser, "user:"+uid) {
				return
			}
		}
		c.Next()
	}
}

func writeQuota(c *gin.Context, d ratelimit.Decision) {
	h := c.Writer.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
}
