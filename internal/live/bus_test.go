package live

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) (*Bus, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewBus(client, zerolog.Nop()), mr
}

func TestPublishReachesSubscriber(t *testing.T) {
	bus, _ := newTestBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "posts:feed:general")
	require.NoError(t, err)
	defer sub.Close()

	bus.Publish(ctx, "posts:feed:general", map[string]string{"id": "p1"})

	select {
	case payload := <-sub.Events():
		require.JSONEq(t, `{"id":"p1"}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscriptionScopedToChannel(t *testing.T) {
	bus, _ := newTestBus(t)
	ctx := context.Background()

	general, err := bus.Subscribe(ctx, "posts:feed:general")
	require.NoError(t, err)
	defer general.Close()

	scoped, err := bus.Subscribe(ctx, "posts:feed:n1")
	require.NoError(t, err)
	defer scoped.Close()

	bus.Publish(ctx, "posts:feed:n1", map[string]string{"id": "p2"})

	select {
	case <-scoped.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("scoped subscriber never saw its event")
	}

	select {
	case payload := <-general.Events():
		t.Fatalf("general subscriber saw a scoped event: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseEndsEventStream(t *testing.T) {
	bus, _ := newTestBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "users:changed:u1")
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	select {
	case _, open := <-sub.Events():
		require.False(t, open, "events channel should be closed after Close")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel never closed")
	}
}
