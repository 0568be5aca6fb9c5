package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verso-press/verso-backend/internal/newsletters/domain"
)

// fakeNewsletterStore keeps issues in memory and mirrors the store's rule
// that published_at moves in the same write as the status.
type fakeNewsletterStore struct {
	items  map[string]*domain.Newsletter
	nextID int
	now    time.Time
}

func newFakeStore() *fakeNewsletterStore {
	return &fakeNewsletterStore{
		items: make(map[string]*domain.Newsletter),
		now:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *fakeNewsletterStore) tick() time.Time {
	s.now = s.now.Add(time.Minute)
	return s.now
}

func (s *fakeNewsletterStore) ListPublished(ctx context.Context) ([]domain.Newsletter, error) {
	var out []domain.Newsletter
	for _, n := range s.items {
		if n.Published() {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *fakeNewsletterStore) GetPublishedBySlug(ctx context.Context, slug string) (*domain.Newsletter, error) {
	for _, n := range s.items {
		if n.Slug == slug && n.Published() {
			cp := *n
			return &cp, nil
		}
	}
	return nil, domain.ErrNewsletterNotFound
}

func (s *fakeNewsletterStore) Get(ctx context.Context, id string) (*domain.Newsletter, error) {
	n, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNewsletterNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *fakeNewsletterStore) ListByAuthor(ctx context.Context, authorID string) ([]domain.Newsletter, error) {
	var out []domain.Newsletter
	for _, n := range s.items {
		if n.AuthorID == authorID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *fakeNewsletterStore) Create(ctx context.Context, n *domain.Newsletter) error {
	for _, existing := range s.items {
		if existing.Slug == n.Slug {
			return domain.ErrSlugTaken
		}
	}
	s.nextID++
	n.ID = fmt.Sprintf("n%d", s.nextID)
	n.UpdatedAt = s.tick()
	if n.Published() {
		at := n.UpdatedAt
		n.PublishedAt = &at
	}
	cp := *n
	s.items[n.ID] = &cp
	return nil
}

func (s *fakeNewsletterStore) Update(ctx context.Context, n *domain.Newsletter) error {
	prev, ok := s.items[n.ID]
	if !ok {
		return domain.ErrNewsletterNotFound
	}
	n.UpdatedAt = s.tick()
	switch {
	case n.Published() && !prev.Published():
		at := n.UpdatedAt
		n.PublishedAt = &at
	case n.Published():
		n.PublishedAt = prev.PublishedAt
	default:
		n.PublishedAt = nil
	}
	cp := *n
	s.items[n.ID] = &cp
	return nil
}

func (s *fakeNewsletterStore) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.Newsletter, error) {
	n, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNewsletterNotFound
	}
	n.UpdatedAt = s.tick()
	switch {
	case status == domain.StatusPublished && !n.Published():
		at := n.UpdatedAt
		n.PublishedAt = &at
	case status == domain.StatusPublished:
		// keep existing stamp
	default:
		n.PublishedAt = nil
	}
	n.Status = status
	cp := *n
	return &cp, nil
}

func TestCreateDefaultsToDraftWithoutPublishStamp(t *testing.T) {
	store := newFakeStore()
	svc := NewNewsletterService(store, zerolog.Nop())

	n, err := svc.Create(context.Background(), "admin-1", EditInput{Title: "March Issue"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, n.Status)
	assert.Nil(t, n.PublishedAt)
	assert.Equal(t, "march-issue", n.Slug)
}

func TestCreateBornPublishedStampsImmediately(t *testing.T) {
	store := newFakeStore()
	svc := NewNewsletterService(store, zerolog.Nop())

	n, err := svc.Create(context.Background(), "admin-1", EditInput{
		Title:  "Launch",
		Status: domain.StatusPublished,
	})
	require.NoError(t, err)

	require.NotNil(t, n.PublishedAt)
	assert.Equal(t, n.UpdatedAt, *n.PublishedAt)
}

func TestPublishStampsAndUnpublishClears(t *testing.T) {
	store := newFakeStore()
	svc := NewNewsletterService(store, zerolog.Nop())
	ctx := context.Background()

	created, err := svc.Create(ctx, "admin-1", EditInput{Title: "Drafted"})
	require.NoError(t, err)

	published, err := svc.SetStatus(ctx, "admin-1", created.ID, domain.StatusPublished)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	firstStamp := *published.PublishedAt

	// Republishing an already-published issue keeps the existing stamp.
	again, err := svc.SetStatus(ctx, "admin-1", created.ID, domain.StatusPublished)
	require.NoError(t, err)
	require.NotNil(t, again.PublishedAt)
	assert.Equal(t, firstStamp, *again.PublishedAt)

	reverted, err := svc.SetStatus(ctx, "admin-1", created.ID, domain.StatusDraft)
	require.NoError(t, err)
	assert.Nil(t, reverted.PublishedAt)

	// A later re-publish gets a fresh stamp, not the historical one.
	republished, err := svc.SetStatus(ctx, "admin-1", created.ID, domain.StatusPublished)
	require.NoError(t, err)
	require.NotNil(t, republished.PublishedAt)
	assert.True(t, republished.PublishedAt.After(firstStamp))
}

func TestDraftsHiddenFromPublicSurface(t *testing.T) {
	store := newFakeStore()
	svc := NewNewsletterService(store, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, "admin-1", EditInput{Title: "Hidden Draft"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "admin-1", EditInput{Title: "Public Issue", Status: domain.StatusPublished})
	require.NoError(t, err)

	feed, err := svc.PublishedFeed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Public Issue", feed[0].Title)

	_, err = svc.PublishedDetail(ctx, "hidden-draft")
	assert.ErrorIs(t, err, domain.ErrNewsletterNotFound)
}

func TestUpdateRejectsNonOwner(t *testing.T) {
	store := newFakeStore()
	svc := NewNewsletterService(store, zerolog.Nop())
	ctx := context.Background()

	created, err := svc.Create(ctx, "admin-1", EditInput{Title: "Mine"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "admin-2", created.ID, EditInput{Title: "Taken Over"})
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	_, err = svc.SetStatus(ctx, "admin-2", created.ID, domain.StatusPublished)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestUpdateKeepsSlugAndStatusWhenOmitted(t *testing.T) {
	store := newFakeStore()
	svc := NewNewsletterService(store, zerolog.Nop())
	ctx := context.Background()

	created, err := svc.Create(ctx, "admin-1", EditInput{
		Title:  "Original",
		Status: domain.StatusPublished,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "admin-1", created.ID, EditInput{Title: "Retitled", Content: "body"})
	require.NoError(t, err)

	assert.Equal(t, created.Slug, updated.Slug)
	assert.Equal(t, domain.StatusPublished, updated.Status)
	require.NotNil(t, updated.PublishedAt)
	assert.Equal(t, *created.PublishedAt, *updated.PublishedAt)
}

func TestCreateRejectsBlankTitleAndBadStatus(t *testing.T) {
	svc := NewNewsletterService(newFakeStore(), zerolog.Nop())

	_, err := svc.Create(context.Background(), "admin-1", EditInput{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)

	_, err = svc.Create(context.Background(), "admin-1", EditInput{Title: "Ok", Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "march-2025-issue", Slugify("March 2025: Issue!"))
	assert.Equal(t, "plain", Slugify("plain"))
	assert.Equal(t, "a-b", Slugify("  A -- b  "))
}
