// Package authz gates views by required tier. Mismatches redirect to the
// destination matching the caller's actual role; they are never surfaced as
// errors.
package authz

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/users/domain"
)

// Tier is the access level a protected view declares.
type Tier string

const (
	// TierAuthenticated admits any signed-in principal regardless of role.
	TierAuthenticated Tier = "authenticated"
	TierUser          Tier = "user"
	TierAdmin         Tier = "admin"
	TierSuperAdmin    Tier = "super_admin"
)

// LoginPath is where every unauthenticated request lands.
const LoginPath = "/login"

// CtxRole is the gin context key carrying the resolved role past the gate.
const CtxRole = "role"

// HomeFor maps a role to its fixed destination. Unknown roles fall back to
// the standard-user destination.
func HomeFor(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "/admin"
	case domain.RoleSuperAdmin:
		return "/super-admin"
	default:
		return "/dashboard"
	}
}

// RedirectTarget returns where a request must be redirected, or "" when the
// view renders. Role matching is exact: super_admin is not a superset of
// admin, mismatched elevated roles are sent to their own destination.
func RedirectTarget(signedIn bool, role domain.Role, tier Tier) string {
	if !signedIn {
		return LoginPath
	}
	if tier == TierAuthenticated {
		return ""
	}
	if string(role) == string(tier) {
		return ""
	}
	return HomeFor(role)
}

// ProfileSource resolves a principal's profile for the per-request check.
type ProfileSource interface {
	GetByUID(ctx context.Context, uid string) (*domain.Profile, error)
}

// RequireTier enforces the declared tier for every request on a route group.
// Expects the auth middleware to have run first and set the firebase uid.
func RequireTier(tier Tier, profiles ProfileSource, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetString("firebase_uid"))
		if uid == "" {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		role := domain.RoleUser
		p, err := profiles.GetByUID(c.Request.Context(), uid)
		switch {
		case errors.Is(err, domain.ErrProfileNotFound):
			// Missing profile resolves to the default role; nothing is
			// written back.
		case err != nil:
			// Soft failure: keep the default role, which can only redirect
			// the caller toward less privileged destinations.
			log.Error().Err(err).Str("uid", uid).Msg("authz: resolve role")
		default:
			role = p.Role
		}

		if target := RedirectTarget(true, role, tier); target != "" {
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}

		c.Set(CtxRole, string(role))
		c.Next()
	}
}
