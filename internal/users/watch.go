// Package users exposes the live profile watch used by the session resolver.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/live"
	"github.com/verso-press/verso-backend/internal/users/domain"
	"github.com/verso-press/verso-backend/internal/users/repository"
)

// ProfileReader is the point-read half of the profile store.
type ProfileReader interface {
	GetByUID(ctx context.Context, uid string) (*domain.Profile, error)
}

// ProfileUpdate is one delivery on a profile watch. Err is set for stream
// errors; the profile carried by the previous update stays authoritative.
type ProfileUpdate struct {
	Profile domain.Profile
	Err     error
}

// Watcher opens live watches on individual profile documents. A watch
// delivers the current state immediately, then every subsequent change.
// If the document does not exist the delivered role defaults to RoleUser;
// the default is never written back.
type Watcher struct {
	profiles ProfileReader
	bus      *live.Bus
	log      zerolog.Logger
}

func NewWatcher(profiles ProfileReader, bus *live.Bus, log zerolog.Logger) *Watcher {
	return &Watcher{profiles: profiles, bus: bus, log: log}
}

func (w *Watcher) WatchProfile(ctx context.Context, uid string) (*ProfileWatch, error) {
	// Subscribe before the initial read so a write landing between the two
	// is seen as an event rather than lost.
	sub, err := w.bus.Subscribe(ctx, repository.ProfileChannelFor(uid))
	if err != nil {
		return nil, err
	}

	pw := &ProfileWatch{
		uid:     uid,
		sub:     sub,
		updates: make(chan ProfileUpdate, 8),
		done:    make(chan struct{}),
	}

	initial, err := w.profiles.GetByUID(ctx, uid)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		pw.updates <- ProfileUpdate{Profile: domain.Profile{UID: uid, Role: domain.RoleUser}}
	case err != nil:
		pw.updates <- ProfileUpdate{Err: err}
	default:
		pw.updates <- ProfileUpdate{Profile: *initial}
	}

	go pw.pump(w.log)
	return pw, nil
}

// ProfileWatch is a disposable live view of one profile document.
type ProfileWatch struct {
	uid       string
	sub       *live.Subscription
	updates   chan ProfileUpdate
	done      chan struct{}
	closeOnce sync.Once
}

func (pw *ProfileWatch) pump(log zerolog.Logger) {
	defer close(pw.updates)
	for payload := range pw.sub.Events() {
		var p domain.Profile
		u := ProfileUpdate{}
		if err := json.Unmarshal(payload, &p); err != nil {
			log.Error().Err(err).Str("uid", pw.uid).Msg("users: decode profile event")
			u.Err = err
		} else {
			u.Profile = p
		}
		// An abandoned watch may never be drained; Close must still
		// release this goroutine even with deliveries pending.
		select {
		case <-pw.done:
			return
		default:
		}
		select {
		case pw.updates <- u:
		case <-pw.done:
			return
		}
	}
}

// Updates delivers profile states in arrival order. The channel closes when
// the watch is released.
func (pw *ProfileWatch) Updates() <-chan ProfileUpdate {
	return pw.updates
}

// Close releases the underlying subscription and the delivery goroutine,
// whether or not pending updates were ever drained.
func (pw *ProfileWatch) Close() error {
	pw.closeOnce.Do(func() { close(pw.done) })
	return pw.sub.Close()
}
