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
	"github.com/verso-press/verso-backend/internal/newsletters/domain"
)

// FeedChannel carries change events for the published newsletter feed.
const FeedChannel = "newsletters:changed"

const columns = `id, title, slug, content, hero_image_url, status, author_id, updated_at, published_at`

// NewsletterRepository stores newsletter issues. Status transitions write
// published_at in the same statement as the status value, so the pair can
// never drift apart.
type NewsletterRepository struct {
	db  *pgxpool.Pool
	bus *live.Bus
	log zerolog.Logger
}

func NewNewsletterRepository(db *pgxpool.Pool, bus *live.Bus, log zerolog.Logger) *NewsletterRepository {
	return &NewsletterRepository{db: db, bus: bus, log: log}
}

// ListPublished returns publicly visible issues, most recently published
// first.
func (r *NewsletterRepository) ListPublished(ctx context.Context) ([]domain.Newsletter, error) {
	q := fmt.Sprintf(`
select %s
from newsletters
where status = 'published'
order by published_at desc
`, columns)
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list published newsletters: %w", err)
	}
	defer rows.Close()

	var out []domain.Newsletter
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetPublishedBySlug retrieves one publicly visible issue. Drafts are
// indistinguishable from missing rows to the public surface.
func (r *NewsletterRepository) GetPublishedBySlug(ctx context.Context, slug string) (*domain.Newsletter, error) {
	q := fmt.Sprintf(`
select %s
from newsletters
where slug = $1 and status = 'published'
`, columns)
	return r.queryOne(ctx, q, slug)
}

// Get retrieves one issue by id regardless of status.
func (r *NewsletterRepository) Get(ctx context.Context, id string) (*domain.Newsletter, error) {
	q := fmt.Sprintf(`
select %s
from newsletters
where id = $1
`, columns)
	return r.queryOne(ctx, q, id)
}

// ListByAuthor returns every issue owned by one author, newest change first.
func (r *NewsletterRepository) ListByAuthor(ctx context.Context, authorID string) ([]domain.Newsletter, error) {
	q := fmt.Sprintf(`
select %s
from newsletters
where author_id = $1
order by updated_at desc
`, columns)
	rows, err := r.db.Query(ctx, q, authorID)
	if err != nil {
		return nil, fmt.Errorf("list newsletters by author: %w", err)
	}
	defer rows.Close()

	var out []domain.Newsletter
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Create inserts a new issue. published_at is set in the same insert when the
// issue is born published.
func (r *NewsletterRepository) Create(ctx context.Context, n *domain.Newsletter) error {
	const q = `
insert into newsletters (id, title, slug, content, hero_image_url, status, author_id, updated_at, published_at)
values ($1, $2, $3, $4, $5, $6, $7, now(), case when $6 = 'published' then now() end)
returning updated_at, published_at
`
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	err := r.db.QueryRow(ctx, q, n.ID, n.Title, n.Slug, n.Content, n.HeroImageURL, string(n.Status), n.AuthorID).
		Scan(&n.UpdatedAt, &n.PublishedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("create newsletter: %w", err)
	}

	r.bus.Publish(ctx, FeedChannel, changeEvent{NewsletterID: n.ID, Kind: "created"})
	return nil
}

// Update overwrites the editable fields and moves published_at with the
// status in one statement: entering published stamps now(), leaving it
// clears the stamp, staying published keeps the existing stamp.
func (r *NewsletterRepository) Update(ctx context.Context, n *domain.Newsletter) error {
	const q = `
update newsletters
set title = $2,
    slug = $3,
    content = $4,
    hero_image_url = $5,
    status = $6,
    updated_at = now(),
    published_at = case
        when $6 = 'published' and status <> 'published' then now()
        when $6 = 'published' then published_at
        else null
    end
where id = $1
returning updated_at, published_at
`
	err := r.db.QueryRow(ctx, q, n.ID, n.Title, n.Slug, n.Content, n.HeroImageURL, string(n.Status)).
		Scan(&n.UpdatedAt, &n.PublishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNewsletterNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("update newsletter: %w", err)
	}

	r.bus.Publish(ctx, FeedChannel, changeEvent{NewsletterID: n.ID, Kind: "updated"})
	return nil
}

// SetStatus toggles publication. The published_at transition rides in the
// same statement as the status write.
func (r *NewsletterRepository) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.Newsletter, error) {
	q := fmt.Sprintf(`
update newsletters
set status = $2,
    updated_at = now(),
    published_at = case
        when $2 = 'published' and status <> 'published' then now()
        when $2 = 'published' then published_at
        else null
    end
where id = $1
returning %s
`, columns)
	n, err := r.queryOne(ctx, q, id, string(status))
	if err != nil {
		return nil, err
	}

	r.bus.Publish(ctx, FeedChannel, changeEvent{NewsletterID: id, Kind: "status"})
	return n, nil
}

func (r *NewsletterRepository) queryOne(ctx context.Context, q string, args ...any) (*domain.Newsletter, error) {
	n, err := scanNewsletter(r.db.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNewsletterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

type changeEvent struct {
	NewsletterID string `json:"newsletterId"`
	Kind         string `json:"kind"`
}

func scanNewsletter(row pgx.Row) (domain.Newsletter, error) {
	var (
		n      domain.Newsletter
		status string
		hero   *string
	)
	err := row.Scan(&n.ID, &n.Title, &n.Slug, &n.Content, &hero, &status, &n.AuthorID, &n.UpdatedAt, &n.PublishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return n, err
		}
		return n, fmt.Errorf("scan newsletter: %w", err)
	}
	n.Status = domain.Status(status)
	if hero != nil {
		n.HeroImageURL = *hero
	}
	return n, nil
}

// isUniqueViolation matches the postgres unique_violation SQLSTATE without
// binding the repo to a specific driver error type.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
