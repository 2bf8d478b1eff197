package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockroom/internal/core/apperror"
	"stockroom/pkg/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders the last handler error as an ErrorResponse and
// stores it against the request's idempotency key, if any.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		status, body := renderError(c, c.Errors.Last().Err)
		FailIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

func renderError(c *gin.Context, err error) (int, ErrorResponse) {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		appErr = apperror.NewInternal(err)
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed",
			"code", appErr.Code,
			"error", err,
		)
		details := appErr.Details
		if details == nil {
			details = map[string]any{}
		}
		details["request_id"] = c.GetString(ContextKeyRequestID)
		return appErr.HTTPStatus, ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: details}
	}

	if appErr.Code == apperror.CodeInsufficientStock {
		logger.Info(c.Request.Context(), "issuance rejected", "details", appErr.Details)
	}
	return appErr.HTTPStatus, ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
}
