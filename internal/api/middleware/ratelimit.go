package middleware

import (
	"log/slog"
	"net/http"

	"jobboard/internal/pkg/metrics"
	"jobboard/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// AuthRateLimit 按客户端 IP 限制认证接口的请求频率。
//
// 令牌不足返回 429。限流器自身出错时放行并记录，存储故障不应拒绝登录。
func AuthRateLimit(limiter *ratelimit.Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			if logger != nil {
				logger.Warn("rate limit check failed", slog.String("error", err.Error()))
			}
			c.Next()
			return
		}
		if !allowed {
			if metrics.LoginThrottledTotal != nil {
				metrics.LoginThrottledTotal.Inc()
			}
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
