package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
)

// ErrorResponse is the error envelope written for failed requests.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Entity  string `json:"entity,omitempty"`
	Value   string `json:"value,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Application errors keep their status and details; anything else is a 500
// whose cause is logged but not returned.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		traceID := c.GetString(ContextRequestID)
		lastErr := c.Errors.Last().Err

		resp := ErrorResponse{
			Status:  "error",
			Code:    http.StatusInternalServerError,
			Message: "internal server error",
			TraceID: traceID,
		}
		if appErr, ok := apperrors.As(lastErr); ok {
			resp.Code = appErr.StatusCode()
			resp.Field = appErr.Field
			resp.Entity = appErr.Entity
			resp.Value = appErr.Value
			if resp.Code < http.StatusInternalServerError {
				resp.Message = appErr.Error()
			} else {
				resp.Message = appErr.Message
			}
		}

		event := logger.Warn()
		if resp.Code >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Err(lastErr).
			Str("request_id", traceID).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Int("status", resp.Code).
			Msg("request error")

		c.JSON(resp.Code, resp)
	}
}
