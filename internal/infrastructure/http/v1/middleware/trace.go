package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "stockroom/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Gin context keys set by the middleware chain.
const (
	ContextKeyRequestID = "request_id"
	ContextKeyTraceID   = "trace_id"
)

// Trace attaches a TraceContext to the request. Caller-supplied ids are kept
// so a client can correlate its retries; missing ones are generated.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := appctx.NewTraceContext()
		if v := c.GetHeader(HeaderRequestID); v != "" {
			trace.RequestID = v
		}
		if v := c.GetHeader(HeaderTraceID); v != "" {
			trace.TraceID = v
		}
		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), trace))

		c.Set(ContextKeyTraceID, trace.TraceID)
		c.Set(ContextKeyRequestID, trace.RequestID)

		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()
	}
}
