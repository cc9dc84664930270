package middleware

import (
	"net/http"
	"strings"

	"lpotracker/internal/apperr"
	"lpotracker/internal/auth"
	"lpotracker/pkg/response"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The second result is the rejection message when there is none.
func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// Authenticate verifies the bearer token and stores the caller's session
// in the gin context.
func Authenticate(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		session, err := tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, apperr.Message(err)))
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireRole must run after Authenticate. It rejects sessions whose role
// is not in allowedRoles.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "authentication required"))
			return
		}

		for _, role := range allowedRoles {
			if session.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// SessionFrom returns the session stored by Authenticate.
func SessionFrom(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return auth.Session{}, false
	}
	session, ok := v.(auth.Session)
	return session, ok
}
