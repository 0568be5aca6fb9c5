package users

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/verso-press/verso-backend/internal/live"
	"github.com/verso-press/verso-backend/internal/users/domain"
	"github.com/verso-press/verso-backend/internal/users/repository"
)

type fakeProfileReader struct {
	profile *domain.Profile
	err     error
}

func (f *fakeProfileReader) GetByUID(ctx context.Context, uid string) (*domain.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func newWatchBus(t *testing.T) *live.Bus {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return live.NewBus(client, zerolog.Nop())
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestWatchDeliversInitialThenChanges(t *testing.T) {
	bus := newWatchBus(t)
	ctx := context.Background()

	w := NewWatcher(&fakeProfileReader{err: domain.ErrProfileNotFound}, bus, zerolog.Nop())
	pw, err := w.WatchProfile(ctx, "u1")
	require.NoError(t, err)
	defer pw.Close()

	first := <-pw.Updates()
	require.NoError(t, first.Err)
	require.Equal(t, domain.RoleUser, first.Profile.Role)

	bus.Publish(ctx, repository.ProfileChannelFor("u1"), domain.Profile{UID: "u1", Role: domain.RoleAdmin})

	select {
	case u := <-pw.Updates():
		require.NoError(t, u.Err)
		require.Equal(t, domain.RoleAdmin, u.Profile.Role)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for profile change")
	}
}

// A watch that its owner walked away from still has to wind down on Close,
// even when more events arrived than the delivery buffer can hold.
func TestCloseReleasesUndrainedWatch(t *testing.T) {
	bus := newWatchBus(t)
	ctx := context.Background()

	w := NewWatcher(&fakeProfileReader{profile: &domain.Profile{UID: "u1", Role: domain.RoleUser}}, bus, zerolog.Nop())
	pw, err := w.WatchProfile(ctx, "u1")
	require.NoError(t, err)

	// Flood the channel without ever draining: the buffer fills and the
	// delivery goroutine ends up parked on a send nobody will receive.
	for i := 0; i < 12; i++ {
		bus.Publish(ctx, repository.ProfileChannelFor("u1"), domain.Profile{UID: "u1", Role: domain.RoleAdmin})
	}
	waitUntil(t, func() bool { return len(pw.updates) == cap(pw.updates) })
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, pw.Close())

	delivered := 0
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-pw.Updates():
			if !ok {
				// Everything past the buffer (and the one in-flight send)
				// must have been dropped, not delivered post-Close.
				require.LessOrEqual(t, delivered, cap(pw.updates)+1)
				return
			}
			delivered++
		case <-deadline:
			t.Fatal("updates channel never closed after Close")
		}
	}
}
