package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/community/domain"
	"github.com/verso-press/verso-backend/internal/live"
)

const feedChannelPrefix = "community:feed:"

// FeedChannelFor returns the live channel for a feed scope; nil scope is the
// general feed.
func FeedChannelFor(scope *string) string {
	if scope == nil {
		return feedChannelPrefix + "general"
	}
	return feedChannelPrefix + *scope
}

// PostRepository stores discussion posts and publishes a feed change event
// on every write.
type PostRepository struct {
	db  *pgxpool.Pool
	bus *live.Bus
	log zerolog.Logger
}

func NewPostRepository(db *pgxpool.Pool, bus *live.Bus, log zerolog.Logger) *PostRepository {
	return &PostRepository{db: db, bus: bus, log: log}
}

// List returns the full current result set for one feed scope, newest first.
// Scope equality includes the explicit-null general feed.
func (r *PostRepository) List(ctx context.Context, scope *string) ([]domain.Post, error) {
	const q = `
select id, content, author_id, author_name, created_at, newsletter_id, reply_to_id, reply_to_author
from community_posts
where newsletter_id is not distinct from $1
order by created_at desc
`
	rows, err := r.db.Query(ctx, q, scope)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get retrieves one post by id.
func (r *PostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	const q = `
select id, content, author_id, author_name, created_at, newsletter_id, reply_to_id, reply_to_author
from community_posts
where id = $1
`
	row := r.db.QueryRow(ctx, q, id)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a post. The id and creation timestamp are store-assigned;
// the scope value is always written explicitly, null included.
func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	const q = `
insert into community_posts (id, content, author_id, author_name, created_at, newsletter_id, reply_to_id, reply_to_author)
values ($1, $2, $3, $4, now(), $5, $6, $7)
returning created_at
`
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	var replyID, replyAuthor *string
	if p.ReplyTo != nil {
		replyID, replyAuthor = &p.ReplyTo.ID, &p.ReplyTo.AuthorName
	}

	err := r.db.QueryRow(ctx, q, p.ID, p.Content, p.AuthorID, p.AuthorName, p.NewsletterID, replyID, replyAuthor).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	r.bus.Publish(ctx, FeedChannelFor(p.NewsletterID), feedEvent{PostID: p.ID, Kind: "created"})
	return nil
}

// UpdateContent overwrites the content only; creation time, scope and reply
// metadata are left untouched.
func (r *PostRepository) UpdateContent(ctx context.Context, id, content string) error {
	const q = `
update community_posts
set content = $2
where id = $1
returning newsletter_id
`
	var scope *string
	err := r.db.QueryRow(ctx, q, id, content).Scan(&scope)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	r.bus.Publish(ctx, FeedChannelFor(scope), feedEvent{PostID: id, Kind: "updated"})
	return nil
}

// Delete removes a post. Present at the store-access layer; no route is
// wired to it.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	const q = `
delete from community_posts
where id = $1
returning newsletter_id
`
	var scope *string
	err := r.db.QueryRow(ctx, q, id).Scan(&scope)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	r.bus.Publish(ctx, FeedChannelFor(scope), feedEvent{PostID: id, Kind: "deleted"})
	return nil
}

// feedEvent is the change notification; consumers re-query the full feed
// rather than patching from it.
type feedEvent struct {
	PostID string `json:"postId"`
	Kind   string `json:"kind"`
}

func scanPost(row pgx.Row) (domain.Post, error) {
	var (
		p           domain.Post
		replyID     *string
		replyAuthor *string
	)
	err := row.Scan(&p.ID, &p.Content, &p.AuthorID, &p.AuthorName, &p.CreatedAt, &p.NewsletterID, &replyID, &replyAuthor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan post: %w", err)
	}
	if replyID != nil {
		p.ReplyTo = &domain.ReplyRef{ID: *replyID}
		if replyAuthor != nil {
			p.ReplyTo.AuthorName = *replyAuthor
		}
	}
	return p, nil
}
