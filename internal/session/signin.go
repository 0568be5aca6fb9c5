package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/authz"
	"github.com/verso-press/verso-backend/internal/users/domain"
)

// ProfileStore is the slice of the profile repository the sign-in flow needs.
type ProfileStore interface {
	GetByUID(ctx context.Context, uid string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
}

// SignInFlow implements the interactive-provider sign-in: first sign-in
// creates the profile document, returning sign-ins route by existing role.
type SignInFlow struct {
	profiles ProfileStore
	log      zerolog.Logger
}

func NewSignInFlow(profiles ProfileStore, log zerolog.Logger) *SignInFlow {
	return &SignInFlow{profiles: profiles, log: log}
}

// Establish ensures a profile exists for the principal and returns the
// destination the caller should be directed to. A brand-new principal gets a
// standard-user profile (adminRequest false, server-assigned createdAt) and
// the standard-user destination; an existing one is routed by its current
// role through the fixed three-way branch.
func (f *SignInFlow) Establish(ctx context.Context, p Principal) (string, error) {
	existing, err := f.profiles.GetByUID(ctx, p.UID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile := &domain.Profile{
			UID:          p.UID,
			Email:        p.Email,
			Role:         domain.RoleUser,
			AdminRequest: false,
		}
		if err := f.profiles.Create(ctx, profile); err != nil {
			return "", fmt.Errorf("create profile: %w", err)
		}
		f.log.Info().Str("uid", p.UID).Msg("session: new profile created on first sign-in")
		return authz.HomeFor(domain.RoleUser), nil
	}
	if err != nil {
		return "", err
	}
	return authz.HomeFor(existing.Role), nil
}
