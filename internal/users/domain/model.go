package domain

import (
	"errors"
	"time"
)

// Role is the authorization tier attached to a profile.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

var ErrProfileNotFound = errors.New("profile not found")

// Profile is the per-principal document keyed by the auth provider UID.
// AdminRequest is only meaningful while Role is RoleUser; approving or
// rejecting a request always clears it.
type Profile struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	AdminRequest bool      `json:"adminRequest"`
	CreatedAt    time.Time `json:"createdAt"`
}
