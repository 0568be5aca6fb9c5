package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/live"
	"github.com/verso-press/verso-backend/internal/users/domain"
)

const (
	// ProfileChannel carries every profile write, for the super-admin live list.
	ProfileChannel = "users:changed"
	// profileChannelPrefix scopes change events to one principal: users:changed:{uid}
	profileChannelPrefix = "users:changed:"
)

// ProfileChannelFor returns the per-principal change channel for uid.
func ProfileChannelFor(uid string) string {
	return profileChannelPrefix + uid
}

// ProfileRepository stores user profiles and publishes a change event on
// every write so live watchers stay current.
type ProfileRepository struct {
	db  *pgxpool.Pool
	bus *live.Bus
	log zerolog.Logger
}

func NewProfileRepository(db *pgxpool.Pool, bus *live.Bus, log zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, bus: bus, log: log}
}

// GetByUID retrieves a profile by the auth provider UID.
func (r *ProfileRepository) GetByUID(ctx context.Context, uid string) (*domain.Profile, error) {
	const q = `
select uid, email, role, admin_request, created_at
from users
where uid = $1
`
	var p domain.Profile
	err := r.db.QueryRow(ctx, q, uid).Scan(&p.UID, &p.Email, &p.Role, &p.AdminRequest, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// Create inserts a new profile. CreatedAt is server-assigned.
func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	const q = `
insert into users (uid, email, role, admin_request, created_at)
values ($1, $2, $3, $4, now())
returning created_at
`
	if err := r.db.QueryRow(ctx, q, p.UID, p.Email, p.Role, p.AdminRequest).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	r.publish(ctx, p)
	return nil
}

// ListByCreatedDesc returns every profile, newest first.
func (r *ProfileRepository) ListByCreatedDesc(ctx context.Context) ([]domain.Profile, error) {
	const q = `
select uid, email, role, admin_request, created_at
from users
order by created_at desc
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.UID, &p.Email, &p.Role, &p.AdminRequest, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetAdminRequest flips the pending role-upgrade flag.
func (r *ProfileRepository) SetAdminRequest(ctx context.Context, uid string, requested bool) error {
	const q = `
update users
set admin_request = $2
where uid = $1
returning uid, email, role, admin_request, created_at
`
	return r.writeReturning(ctx, q, uid, requested)
}

// SetRole changes the role and clears any pending request in the same write.
func (r *ProfileRepository) SetRole(ctx context.Context, uid string, role domain.Role) error {
	const q = `
update users
set role = $2, admin_request = false
where uid = $1
returning uid, email, role, admin_request, created_at
`
	return r.writeReturning(ctx, q, uid, role)
}

func (r *ProfileRepository) writeReturning(ctx context.Context, q string, uid string, arg any) error {
	var p domain.Profile
	err := r.db.QueryRow(ctx, q, uid, arg).Scan(&p.UID, &p.Email, &p.Role, &p.AdminRequest, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	r.publish(ctx, &p)
	return nil
}

func (r *ProfileRepository) publish(ctx context.Context, p *domain.Profile) {
	r.bus.Publish(ctx, ProfileChannelFor(p.UID), p)
	r.bus.Publish(ctx, ProfileChannel, p)
}
