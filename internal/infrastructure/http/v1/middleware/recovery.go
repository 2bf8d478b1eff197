// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"stockroom/internal/core/apperror"
	"stockroom/pkg/logger"
)

// Recovery turns a panic into INTERNAL_ERROR. The stack is logged, never sent.
// A write path that panics mid-transaction has already been rolled back by
// the unwinding TxManager call, so the client may retry.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"route", c.FullPath(),
					"method", c.Request.Method,
					"panic", rec,
					"stack", string(debug.Stack()),
				)

				_ = c.Error(
					apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
						WithDetail("request_id", c.GetString(ContextKeyRequestID)),
				)
				c.Abort()
			}
		}()
		c.Next()
	}
}
