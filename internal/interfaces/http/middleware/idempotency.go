package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/erp/receipts/internal/infrastructure/logger"
	"github.com/erp/receipts/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the client-supplied replay guard
	IdempotencyKeyHeader = "Idempotency-Key"
	// MaxIdempotencyKeyLength bounds the header value
	MaxIdempotencyKeyLength = 255
)

// Idempotency claims the Idempotency-Key of each request in store for ttl.
// A replayed key is rejected with DUPLICATE_REQUEST. The claim is released
// when the request does not succeed so the client may retry with the same key.
// Requests without the header pass through unchanged, as do all requests when store is nil.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if store == nil || key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeValidation, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := logger.WithIdempotencyKey(c.Request.Context(), key)
		c.Request = c.Request.WithContext(ctx)
		scoped := c.Request.Method + " " + c.FullPath() + ":" + key

		claimed, err := store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			log.Error("idempotency store unavailable",
				zap.String("request_id", GetRequestID(c)),
				zap.String("idempotency_key", key),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnavailable, "Unable to verify Idempotency-Key, retry later", GetRequestID(c)))
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest, shared.ErrDuplicateRequest.Message, GetRequestID(c)))
			return
		}

		c.Next()

		if c.Writer.Status() < http.StatusBadRequest {
			return
		}
		// the request context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := store.Release(releaseCtx, scoped); err != nil {
			log.Warn("failed to release idempotency key",
				zap.String("idempotency_key", key),
				zap.Error(err))
		}
	}
}
