// Package session owns the mapping from an authenticated principal to an
// authorization role, kept current through a live profile watch, and the
// side-channel credential mirrored for request-time checks.
package session

import (
	"context"
	"time"

	"github.com/verso-press/verso-backend/internal/users"
	"github.com/verso-press/verso-backend/internal/users/domain"
)

// Principal is an authenticated identity issued by the auth provider.
type Principal struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Snapshot is the resolver's published state: who is signed in, what role
// they hold, and whether resolution is still in progress.
type Snapshot struct {
	Principal     *Principal  `json:"principal"`
	Role          domain.Role `json:"role,omitempty"`
	Loading       bool        `json:"loading"`
	Cookie        string      `json:"-"`
	CookieExpires time.Time   `json:"-"`
}

// ProfileWatch is a disposable live view of one profile document.
type ProfileWatch interface {
	Updates() <-chan users.ProfileUpdate
	Close() error
}

// ProfileWatcher opens live watches on profile documents.
type ProfileWatcher interface {
	WatchProfile(ctx context.Context, uid string) (ProfileWatch, error)
}

// WatcherFunc adapts a function to the ProfileWatcher interface.
type WatcherFunc func(ctx context.Context, uid string) (ProfileWatch, error)

func (f WatcherFunc) WatchProfile(ctx context.Context, uid string) (ProfileWatch, error) {
	return f(ctx, uid)
}

// CredentialMinter exchanges a fresh ID token for the short-lived credential
// mirrored into the side-channel cookie.
type CredentialMinter interface {
	Mint(ctx context.Context, idToken string) (cookie string, expires time.Time, err error)
}

// TokenVerifier checks an ID token and returns the principal it identifies.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (Principal, error)
}
