package session

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verso-press/verso-backend/internal/users/domain"
)

type fakeProfiles struct {
	byUID   map[string]*domain.Profile
	created []*domain.Profile
}

func (f *fakeProfiles) GetByUID(_ context.Context, uid string) (*domain.Profile, error) {
	if p, ok := f.byUID[uid]; ok {
		return p, nil
	}
	return nil, domain.ErrProfileNotFound
}

func (f *fakeProfiles) Create(_ context.Context, p *domain.Profile) error {
	f.byUID[p.UID] = p
	f.created = append(f.created, p)
	return nil
}

func TestEstablishCreatesProfileOnFirstSignIn(t *testing.T) {
	profiles := &fakeProfiles{byUID: map[string]*domain.Profile{}}
	flow := NewSignInFlow(profiles, zerolog.Nop())

	dest, err := flow.Establish(context.Background(), Principal{UID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "/dashboard", dest)
	require.Len(t, profiles.created, 1)
	created := profiles.created[0]
	assert.Equal(t, domain.RoleUser, created.Role)
	assert.False(t, created.AdminRequest)
	assert.Equal(t, "u1@example.com", created.Email)
}

func TestEstablishRoutesExistingPrincipalByRole(t *testing.T) {
	cases := []struct {
		role domain.Role
		want string
	}{
		{domain.RoleUser, "/dashboard"},
		{domain.RoleAdmin, "/admin"},
		{domain.RoleSuperAdmin, "/super-admin"},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			profiles := &fakeProfiles{byUID: map[string]*domain.Profile{
				"u1": {UID: "u1", Role: tc.role},
			}}
			flow := NewSignInFlow(profiles, zerolog.Nop())

			dest, err := flow.Establish(context.Background(), Principal{UID: "u1"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, dest)
			assert.Empty(t, profiles.created, "existing profile must not be rewritten")
		})
	}
}
