package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

// FirebaseAuthMiddleware validates Firebase credentials and extracts user
// info. It accepts either a Bearer ID token or the mirrored side-channel
// session cookie, so non-subscribing consumers can authorize without a
// token exchange.
func FirebaseAuthMiddleware(authClient *auth.Client, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var decoded *auth.Token

		if token := extractToken(c); token != "" {
			t, err := authClient.VerifyIDToken(c.Request.Context(), token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				c.Abort()
				return
			}
			decoded = t
		} else if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
			t, err := authClient.VerifySessionCookie(c.Request.Context(), cookie)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
				c.Abort()
				return
			}
			decoded = t
		}

		if decoded == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			c.Abort()
			return
		}

		// Store user info in context
		c.Set("firebase_uid", decoded.UID)

		if email, ok := decoded.Claims["email"].(string); ok {
			c.Set("email", email)
		}
		if name, ok := decoded.Claims["name"].(string); ok {
			c.Set("display_name", name)
		}

		// Store the full token for access to other claims if needed
		c.Set("firebase_token", decoded)

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
