package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestIDMiddleware propagates an incoming request id or generates one,
// setting it on both the response header and the gin context.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("requestID", requestID)
		c.Next()
	}
}

// RequestIDFromContext returns the request id set by RequestIDMiddleware.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString("requestID")
}
