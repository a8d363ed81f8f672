package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "accounts.backend/internal/domain/errors"
	"accounts.backend/internal/interfaces/http/response"
	"accounts.backend/pkg/logger"
	"accounts.backend/pkg/metrics"
	"accounts.backend/pkg/redis"
)

// RateLimiter counts attempts per key
type RateLimiter interface {
	Hit(ctx context.Context, key string) (redis.Window, error)
	Reset(ctx context.Context, key string) error
}

// RateLimitMiddleware rejects a client once it exceeds its window. A nil
// limiter or a limiter error lets the request through. A request that
// succeeds clears the window, so only failed attempts accumulate.
func RateLimitMiddleware(limiter RateLimiter, operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := operation + ":" + c.ClientIP()
		w, err := limiter.Hit(c.Request.Context(), key)
		if err != nil {
			logger.Warn(c.Request.Context(), "Rate limiter unavailable", zap.String("operation", operation), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(w.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(w.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(math.Ceil(w.ResetIn.Seconds()))))

		if w.Exceeded() {
			metrics.RecordAuth(operation, metrics.OutcomeRateLimited)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(w.ResetIn.Seconds()))))
			response.Abort(c, domainerrors.ErrRateLimited)
			return
		}

		c.Next()

		if c.Writer.Status() < http.StatusBadRequest {
			if err := limiter.Reset(c.Request.Context(), key); err != nil {
				logger.Warn(c.Request.Context(), "Rate limit reset failed", zap.String("operation", operation), zap.Error(err))
			}
		}
	}
}
