// internal/middleware/rate_limit_middleware.go
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"billing-service/internal/pkg/response"
	"billing-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit counts requests per client IP in a fixed window. Redis failures
// let the request through.
func RateLimit(limiter *session.RateLimiter, scope string, maxRequests int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.CheckRequestRate(c.Request.Context(), scope, c.ClientIP(), maxRequests, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err), zap.String("scope", scope))
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		c.Next()
	}
}

