package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GitHubKaan/gju-jobs-api/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// maxRequestIDLength caps inbound correlation identifiers. Anything longer is
// replaced rather than carried into every log line.
const maxRequestIDLength = 64

// RequestID propagates the caller's correlation identifier, or mints one, and
// stores it on the request context and the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}
