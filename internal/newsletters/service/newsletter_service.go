package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/newsletters/domain"
)

// NewsletterStore is the persistence surface the service depends on.
type NewsletterStore interface {
	ListPublished(ctx context.Context) ([]domain.Newsletter, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*domain.Newsletter, error)
	Get(ctx context.Context, id string) (*domain.Newsletter, error)
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Newsletter, error)
	Create(ctx context.Context, n *domain.Newsletter) error
	Update(ctx context.Context, n *domain.Newsletter) error
	SetStatus(ctx context.Context, id string, status domain.Status) (*domain.Newsletter, error)
}

// EditInput carries the author-editable fields of an issue.
type EditInput struct {
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	Content      string        `json:"content"`
	HeroImageURL string        `json:"heroImageUrl"`
	Status       domain.Status `json:"status"`
}

// NewsletterService implements the publishing workflow.
type NewsletterService struct {
	store NewsletterStore
	log   zerolog.Logger
}

func NewNewsletterService(store NewsletterStore, log zerolog.Logger) *NewsletterService {
	return &NewsletterService{store: store, log: log}
}

// PublishedFeed lists publicly visible issues, newest publish first.
func (s *NewsletterService) PublishedFeed(ctx context.Context) ([]domain.Newsletter, error) {
	return s.store.ListPublished(ctx)
}

// PublishedDetail resolves one public issue by slug. Drafts surface as
// not-found.
func (s *NewsletterService) PublishedDetail(ctx context.Context, slug string) (*domain.Newsletter, error) {
	return s.store.GetPublishedBySlug(ctx, strings.TrimSpace(slug))
}

// AuthorFeed lists every issue owned by the calling admin, drafts included.
func (s *NewsletterService) AuthorFeed(ctx context.Context, authorID string) ([]domain.Newsletter, error) {
	return s.store.ListByAuthor(ctx, authorID)
}

// Create adds a new issue owned by the caller. A missing slug is derived
// from the title; a missing status defaults to draft.
func (s *NewsletterService) Create(ctx context.Context, authorID string, in EditInput) (*domain.Newsletter, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}

	n := &domain.Newsletter{
		Title:        title,
		Slug:         slug,
		Content:      in.Content,
		HeroImageURL: strings.TrimSpace(in.HeroImageURL),
		Status:       status,
		AuthorID:     authorID,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	s.log.Info().Str("newsletter_id", n.ID).Str("status", string(n.Status)).Msg("newsletter created")
	return n, nil
}

// Update overwrites an issue's editable fields. Only the owning author may
// edit; the publish timestamp moves with the status inside the store write.
func (s *NewsletterService) Update(ctx context.Context, authorID, id string, in EditInput) (*domain.Newsletter, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != authorID {
		return nil, domain.ErrNotOwner
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	status := in.Status
	if status == "" {
		status = existing.Status
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = existing.Slug
	}

	next := &domain.Newsletter{
		ID:           id,
		Title:        title,
		Slug:         slug,
		Content:      in.Content,
		HeroImageURL: strings.TrimSpace(in.HeroImageURL),
		Status:       status,
		AuthorID:     existing.AuthorID,
	}
	if err := s.store.Update(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// SetStatus toggles publication for the owning author.
func (s *NewsletterService) SetStatus(ctx context.Context, authorID, id string, status domain.Status) (*domain.Newsletter, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != authorID {
		return nil, domain.ErrNotOwner
	}
	n, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("newsletter_id", id).Str("status", string(status)).Msg("newsletter status changed")
	return n, nil
}

// Slugify lowercases a title and collapses non-alphanumerics into single
// hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
