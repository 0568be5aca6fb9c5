package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/users/domain"
)

// ProfileStore is the slice of the profile repository the access service needs.
type ProfileStore interface {
	GetByUID(ctx context.Context, uid string) (*domain.Profile, error)
	ListByCreatedDesc(ctx context.Context) ([]domain.Profile, error)
	SetAdminRequest(ctx context.Context, uid string, requested bool) error
	SetRole(ctx context.Context, uid string, role domain.Role) error
}

// AccessService owns role-upgrade requests and the super-admin grant flow.
type AccessService struct {
	profiles ProfileStore
	log      zerolog.Logger
}

func NewAccessService(profiles ProfileStore, log zerolog.Logger) *AccessService {
	return &AccessService{profiles: profiles, log: log}
}

// ListProfiles returns every profile, newest first, for the super-admin console.
func (s *AccessService) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	return s.profiles.ListByCreatedDesc(ctx)
}

// RequestAdmin marks the caller's profile as awaiting a role upgrade. The
// flag only carries meaning for standard users; asking again while one is
// already pending is a no-op shaped write.
func (s *AccessService) RequestAdmin(ctx context.Context, uid string) error {
	p, err := s.profiles.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	if p.Role != domain.RoleUser {
		return fmt.Errorf("role upgrade request only applies to standard users")
	}
	return s.profiles.SetAdminRequest(ctx, uid, true)
}

// SetRole assigns the given role and clears any pending request in the same
// write. Used by the super-admin console for both approvals and demotions.
func (s *AccessService) SetRole(ctx context.Context, uid string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	if err := s.profiles.SetRole(ctx, uid, role); err != nil {
		return err
	}
	s.log.Info().Str("uid", uid).Str("role", string(role)).Msg("users: role updated")
	return nil
}

// RejectRequest clears a pending role-upgrade request without changing the role.
func (s *AccessService) RejectRequest(ctx context.Context, uid string) error {
	return s.profiles.SetAdminRequest(ctx, uid, false)
}
