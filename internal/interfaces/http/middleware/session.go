// internal/interfaces/http/middleware/session.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionIDKey    = "session_id"
	SessionIDHeader = "X-Session-ID"
	sessionCookie   = "session_id"
)

// CartSession resolves the anonymous cart session from the X-Session-ID
// header or the session cookie, issuing a new one when neither is present
func CartSession(ttl time.Duration) gin.HandlerFunc {
	maxAge := int(ttl.Seconds())

	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionIDHeader)
		if sessionID == "" {
			sessionID, _ = c.Cookie(sessionCookie)
		}
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = uuid.New().String()
		}

		c.SetCookie(sessionCookie, sessionID, maxAge, "/", "", false, true)
		c.Header(SessionIDHeader, sessionID)
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionIDFromContext returns the cart session resolved by CartSession
func GetSessionIDFromContext(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
