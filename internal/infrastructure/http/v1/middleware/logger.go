package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockroom/pkg/logger"
)

// Logger writes one access log line per request. Server errors are logged at
// error level; rejected requests (insufficient stock, bad input) stay at info.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if key := c.GetHeader(HeaderIdempotencyKey); key != "" {
			fields = append(fields,
				"idempotency_key", key,
				"replayed", c.Writer.Header().Get(HeaderIdempotentReplayed) == "true",
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		l := log.WithContext(c.Request.Context())
		if status >= http.StatusInternalServerError {
			l.Errorw("http request", fields...)
			return
		}
		l.Infow("http request", fields...)
	}
}
