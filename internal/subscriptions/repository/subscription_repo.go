package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/live"
	"github.com/verso-press/verso-backend/internal/subscriptions/domain"
)

const channelPrefix = "subscriptions:user:"

// ChannelFor returns the live channel carrying one user's subscription
// changes.
func ChannelFor(userID string) string {
	return channelPrefix + userID
}

// SubscriptionRepository stores user-to-newsletter links and publishes a
// change event per write on the owning user's channel.
type SubscriptionRepository struct {
	db  *pgxpool.Pool
	bus *live.Bus
	log zerolog.Logger
}

func NewSubscriptionRepository(db *pgxpool.Pool, bus *live.Bus, log zerolog.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, bus: bus, log: log}
}

// ListByUser returns one user's subscriptions, newest first.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	const q = `
select id, user_id, newsletter_id, created_at
from subscriptions
where user_id = $1
order by created_at desc
`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.NewsletterID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get retrieves one subscription by id.
func (r *SubscriptionRepository) Get(ctx context.Context, id string) (*domain.Subscription, error) {
	const q = `
select id, user_id, newsletter_id, created_at
from subscriptions
where id = $1
`
	var s domain.Subscription
	err := r.db.QueryRow(ctx, q, id).Scan(&s.ID, &s.UserID, &s.NewsletterID, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &s, nil
}

// Create links a user to a newsletter. The (user, newsletter) pair is
// unique; re-subscribing maps to ErrAlreadySubscribed.
func (r *SubscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	const q = `
insert into subscriptions (id, user_id, newsletter_id, created_at)
values ($1, $2, $3, now())
returning created_at
`
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	err := r.db.QueryRow(ctx, q, s.ID, s.UserID, s.NewsletterID).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadySubscribed
		}
		return fmt.Errorf("create subscription: %w", err)
	}

	r.bus.Publish(ctx, ChannelFor(s.UserID), changeEvent{SubscriptionID: s.ID, Kind: "created"})
	return nil
}

// Delete removes a subscription by id.
func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	const q = `
delete from subscriptions
where id = $1
returning user_id
`
	var userID string
	err := r.db.QueryRow(ctx, q, id).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	r.bus.Publish(ctx, ChannelFor(userID), changeEvent{SubscriptionID: id, Kind: "deleted"})
	return nil
}

// DeleteOrphaned removes subscriptions whose newsletter no longer exists.
// Run by the maintenance scheduler; returns the number of rows pruned.
func (r *SubscriptionRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	const q = `
delete from subscriptions s
where not exists (select 1 from newsletters n where n.id = s.newsletter_id)
`
	tag, err := r.db.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("prune orphaned subscriptions: %w", err)
	}
	return tag.RowsAffected(), nil
}

type changeEvent struct {
	SubscriptionID string `json:"subscriptionId"`
	Kind           string `json:"kind"`
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
