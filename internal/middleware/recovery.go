package middleware

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalErrorMessage is the body returned when a handler panics.
const InternalErrorMessage = "Internal server error."

// Recovery recovers from panics, logs them, and answers 500 in plain text.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("unhandled error",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("panic", recovered),
		)
		c.String(http.StatusInternalServerError, InternalErrorMessage)
		c.Abort()
	})
}
