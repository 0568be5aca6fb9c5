package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verso-press/verso-backend/internal/community/domain"
)

type fakePostStore struct {
	posts   map[string]*domain.Post
	nextID  int
	created []*domain.Post
}

func newFakePostStore(posts ...*domain.Post) *fakePostStore {
	s := &fakePostStore{posts: map[string]*domain.Post{}}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *fakePostStore) List(_ context.Context, scope *string) ([]domain.Post, error) {
	var out []domain.Post
	for _, p := range s.posts {
		if scope == nil && p.NewsletterID == nil {
			out = append(out, *p)
		} else if scope != nil && p.NewsletterID != nil && *scope == *p.NewsletterID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakePostStore) Get(_ context.Context, id string) (*domain.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePostStore) Create(_ context.Context, p *domain.Post) error {
	s.nextID++
	p.ID = fmt.Sprintf("p%d", s.nextID)
	p.CreatedAt = time.Now()
	cp := *p
	s.posts[p.ID] = &cp
	s.created = append(s.created, &cp)
	return nil
}

func (s *fakePostStore) UpdateContent(_ context.Context, id, content string) error {
	p, ok := s.posts[id]
	if !ok {
		return domain.ErrPostNotFound
	}
	p.Content = content
	return nil
}

func newBoard(store *fakePostStore, now time.Time) *BoardService {
	svc := NewBoardService(store, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func strptr(s string) *string { return &s }

func TestCreatePostRejectsBlankContent(t *testing.T) {
	svc := newBoard(newFakePostStore(), time.Now())

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		Author:  Author{UID: "u1", DisplayName: "Sam"},
		Content: "   \n\t  ",
	})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
}

func TestCreatePostFallsBackToAnonymousName(t *testing.T) {
	store := newFakePostStore()
	svc := newBoard(store, time.Now())

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Author:  Author{UID: "u1"},
		Content: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AnonymousAuthor, post.AuthorName)
	assert.Nil(t, post.NewsletterID, "general feed posts carry an explicit null scope")
}

// Replying to Sarah's post snapshots her id and name onto the new post and
// leaves the target untouched.
func TestCreateReplySnapshotsTarget(t *testing.T) {
	target := &domain.Post{ID: "p9", AuthorID: "sarah-uid", AuthorName: "Sarah", Content: "original"}
	store := newFakePostStore(target)
	svc := newBoard(store, time.Now())

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Author:  Author{UID: "reader", DisplayName: "Reader"},
		Content: "great point",
		ReplyTo: &domain.ReplyRef{ID: target.ID, AuthorName: target.AuthorName},
	})
	require.NoError(t, err)

	require.NotNil(t, post.ReplyTo)
	assert.Equal(t, "p9", post.ReplyTo.ID)
	assert.Equal(t, "Sarah", post.ReplyTo.AuthorName)

	unchanged, err := store.Get(context.Background(), "p9")
	require.NoError(t, err)
	assert.Equal(t, "original", unchanged.Content)
	assert.Nil(t, unchanged.ReplyTo)
}

func TestCreatePostKeepsScope(t *testing.T) {
	store := newFakePostStore()
	svc := newBoard(store, time.Now())

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Author:  Author{UID: "u1", DisplayName: "Sam"},
		Scope:   strptr("n1"),
		Content: "scoped",
	})
	require.NoError(t, err)
	require.NotNil(t, post.NewsletterID)
	assert.Equal(t, "n1", *post.NewsletterID)

	scoped, err := svc.Feed(context.Background(), strptr("n1"))
	require.NoError(t, err)
	assert.Len(t, scoped, 1)

	general, err := svc.Feed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, general, "scoped posts must not leak into the general feed")
}

// Inside the window the author may edit; at and past 180s the write is
// rejected with the window error.
func TestUpdatePostEditWindow(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	post := &domain.Post{ID: "p1", AuthorID: "a", AuthorName: "A", Content: "v1", CreatedAt: t0}

	store := newFakePostStore(post)
	svc := newBoard(store, t0.Add(170*time.Second))

	require.NoError(t, svc.UpdatePost(context.Background(), "a", "p1", "v2"))
	got, _ := store.Get(context.Background(), "p1")
	assert.Equal(t, "v2", got.Content)

	svc.now = func() time.Time { return t0.Add(200 * time.Second) }
	err := svc.UpdatePost(context.Background(), "a", "p1", "v3")
	assert.ErrorIs(t, err, domain.ErrEditWindowElapsed)
	got, _ = store.Get(context.Background(), "p1")
	assert.Equal(t, "v2", got.Content)
}

func TestUpdatePostRejectsNonAuthor(t *testing.T) {
	t0 := time.Now()
	store := newFakePostStore(&domain.Post{ID: "p1", AuthorID: "a", CreatedAt: t0})
	svc := newBoard(store, t0)

	err := svc.UpdatePost(context.Background(), "b", "p1", "hijack")
	assert.ErrorIs(t, err, domain.ErrNotAuthor)
}

func TestUpdatePostPendingTimestampAllowed(t *testing.T) {
	store := newFakePostStore(&domain.Post{ID: "p1", AuthorID: "a", Content: "v1"})
	svc := newBoard(store, time.Now().Add(time.Hour))

	require.NoError(t, svc.UpdatePost(context.Background(), "a", "p1", "v2"))
}

func TestUpdatePostUnknownID(t *testing.T) {
	svc := newBoard(newFakePostStore(), time.Now())

	err := svc.UpdatePost(context.Background(), "a", "ghost", "v2")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}
