package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxDisplayName = "display_name"
)

// UserFirebaseUID extracts the Firebase UID from the Gin context
// This is set by FirebaseAuthMiddleware
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// UserEmail extracts the principal's email, when the token carried one.
func UserEmail(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxEmail))
}

// UserDisplayName extracts the principal's display name, when present.
func UserDisplayName(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxDisplayName))
}
