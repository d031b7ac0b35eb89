package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key, action string, limit int64, window time.Duration) (bool, error)
}

// RateLimitMiddleware limits each client IP to limit requests per window for
// one action. A limit of 0 disables it. Limiter failures let the request
// through.
func RateLimitMiddleware(limiter RateLimiter, action string, limit int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || limiter == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		limited, err := limiter.CheckRateLimit(c.Request.Context(), ip, action, limit, window)
		if err != nil {
			logger.Warn("Rate limit check failed",
				zap.String("client_ip", ip),
				zap.String("action", action),
				zap.Error(err))
			c.Next()
			return
		}

		if limited {
			c.Header("Retry-After", formatSeconds(window))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func formatSeconds(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
