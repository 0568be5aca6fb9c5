package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/verso-press/verso-backend/internal/auth"
	"github.com/verso-press/verso-backend/internal/live"
	newsletters "github.com/verso-press/verso-backend/internal/newsletters/domain"
	"github.com/verso-press/verso-backend/internal/subscriptions/domain"
	"github.com/verso-press/verso-backend/internal/subscriptions/repository"
	"github.com/verso-press/verso-backend/internal/subscriptions/service"
)

type memSubStore struct {
	mu   sync.Mutex
	subs map[string]*domain.Subscription
	next int
}

func newMemSubStore() *memSubStore {
	return &memSubStore{subs: map[string]*domain.Subscription{}}
}

func (s *memSubStore) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *memSubStore) Get(ctx context.Context, id string) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *memSubStore) Create(ctx context.Context, sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	sub.ID = "s" + string(rune('0'+s.next))
	sub.CreatedAt = time.Now()
	cp := *sub
	s.subs[sub.ID] = &cp
	return nil
}

func (s *memSubStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
	return nil
}

type memNewsletterReader struct{}

func (memNewsletterReader) Get(ctx context.Context, id string) (*newsletters.Newsletter, error) {
	return &newsletters.Newsletter{ID: id, Title: "Issue " + id, Slug: "issue-" + id}, nil
}

// sseRecorder keeps concurrent handler writes and test reads apart.
type sseRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *sseRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func newStreamBus(t *testing.T) *live.Bus {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return live.NewBus(client, zerolog.Nop())
}

func TestStreamSendsSnapshotThenChanges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bus := newStreamBus(t)
	store := newMemSubStore()
	h := New(service.NewSubscriptionService(store, memNewsletterReader{}, zerolog.Nop()), bus, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &sseRecorder{ResponseRecorder: httptest.NewRecorder()}
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/subscriptions/stream", nil).WithContext(ctx)
	c.Set(auth.CtxFirebaseUID, "u1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.StreamSubscriptions(c)
	}()

	waitForBody(t, rec, "event: initial")

	require.NoError(t, store.Create(context.Background(), &domain.Subscription{UserID: "u1", NewsletterID: "n1"}))
	bus.Publish(context.Background(), repository.ChannelFor("u1"), map[string]string{"kind": "created"})

	waitForBody(t, rec, "event: update")
	require.Contains(t, rec.body(), `"newsletterId":"n1"`)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not stop on client disconnect")
	}

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func waitForBody(t *testing.T, rec *sseRecorder, marker string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(rec.body(), marker) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("stream never produced %q", marker)
}
