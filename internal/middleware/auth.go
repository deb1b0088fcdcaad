package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/session"
	"messenger-service/internal/users"
)

const sessionContextKey = "session"

// AuthMiddleware validates the Authorization bearer token and loads the
// caller's session into the request context.
func AuthMiddleware(tokens *session.TokenManager, dir users.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		email, err := tokens.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := dir.Get(c.Request.Context(), email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}

		c.Set(sessionContextKey, session.New(email, user.DisplayName()))
		c.Next()
	}
}

// SessionFromContext returns the session loaded by AuthMiddleware.
func SessionFromContext(c *gin.Context) (session.Session, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := value.(session.Session)
	return sess, ok
}
