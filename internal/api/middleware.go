// Package api contains the HTTP handlers, routing, and page rendering for
// the 3-D Secure payment service.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// sessionCookie names the opaque session id cookie that ties a browser to
// its in-flight payment attempt.
const sessionCookie = "payment_sid"

// RequestIDMiddleware adds a unique request ID to each request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// sessionID returns the browser's session id, empty if no cookie was sent.
func sessionID(c *gin.Context) string {
	id, err := c.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return id
}

// setSessionCookie issues the session cookie. SameSite=None is mandated by
// the cross-site iframe/redirect nature of the challenge step, which in turn
// requires Secure; HttpOnly keeps the id away from page scripts.
func setSessionCookie(c *gin.Context, id string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(sessionCookie, id, int(ttl/time.Second), "/", "", true, true)
}
