package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockroom/internal/core/apperror"
	"stockroom/internal/infrastructure/idempotency"
	"stockroom/pkg/logger"
)

const (
	HeaderIdempotencyKey     = "X-Idempotency-Key"
	HeaderIdempotentReplayed = "Idempotent-Replayed"
)

const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

const (
	contextKeyIdempotencyKey   = "idempotency_key"
	contextKeyIdempotencyStore = "idempotency_store"
)

// Idempotency middleware protects against duplicate requests.
// Applies to POST/PUT/PATCH requests that carry an idempotency key.
func Idempotency(store idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		// Hash request body
		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(c.Request.Context(), key, operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Header(HeaderIdempotentReplayed, "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(contextKeyIdempotencyKey, key)
		c.Set(contextKeyIdempotencyStore, store)

		c.Next()
	}
}

func acquiredKey(c *gin.Context) (string, idempotency.Store, bool) {
	key, ok := c.Get(contextKeyIdempotencyKey)
	if !ok {
		return "", nil, false
	}
	store, ok := c.Get(contextKeyIdempotencyStore)
	if !ok {
		return "", nil, false
	}
	s, ok := store.(idempotency.Store)
	return key.(string), s, ok && s != nil
}

// CompleteIdempotency records a successful response for replay, with the
// same status code, content type and body. No-op without an acquired key.
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	key, store, ok := acquiredKey(c)
	if !ok {
		return
	}
	if err := store.CompleteKey(c.Request.Context(), key, statusCode, contentType, response); err != nil {
		logger.Warn(c.Request.Context(), "complete idempotency key", "key", key, "error", err)
	}
}

// FailIdempotency records an error response for replay (best-effort).
func FailIdempotency(c *gin.Context, statusCode int, body any) {
	key, store, ok := acquiredKey(c)
	if !ok {
		return
	}
	if err := store.FailKey(c.Request.Context(), key, statusCode, "application/json", body); err != nil {
		logger.Warn(c.Request.Context(), "fail idempotency key", "key", key, "error", err)
	}
}
