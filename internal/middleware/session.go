package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fossuok/qr-event-backend/internal/auth"
	"github.com/fossuok/qr-event-backend/pkg/response"
)

const (
	// ContextUserID is the key for the provider user id in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for the user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for the user email in gin context.
	ContextUserEmail = "user_email"
	// ContextUserName is the key for the display name in gin context.
	ContextUserName = "user_name"
)

// Session returns a middleware that validates the signed session cookie
// and sets the user identity in context.
func Session(sessions *auth.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(auth.CookieName)
		if err != nil || cookie == "" {
			response.Unauthorized(c, "not authenticated")
			c.Abort()
			return
		}
		user, err := sessions.Decode(cookie)
		if err != nil {
			response.Unauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}
		c.Set(ContextUserID, user.GithubID)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextUserEmail, user.Email)
		c.Set(ContextUserName, user.Name)
		c.Next()
	}
}
