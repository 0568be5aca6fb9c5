package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/users"
	"github.com/verso-press/verso-backend/internal/users/domain"
)

// Resolver is a single-slot state machine over identity events. It keeps at
// most one profile watch open at a time, always for the most recently
// signed-in principal: a new sign-in tears the previous watch down before
// opening its own (a swap, never an overlap), and sign-out tears everything
// down. Late updates from a superseded watch are discarded.
type Resolver struct {
	watcher ProfileWatcher
	minter  CredentialMinter
	log     zerolog.Logger

	mu        sync.Mutex
	gen       uint64
	principal *Principal
	role      domain.Role
	loading   bool
	cookie    string
	cookieExp time.Time
	watch     ProfileWatch
}

func NewResolver(watcher ProfileWatcher, minter CredentialMinter, log zerolog.Logger) *Resolver {
	return &Resolver{watcher: watcher, minter: minter, log: log}
}

// SignIn handles both a fresh sign-in and a credential refresh: the identity
// provider emits the same event for either. The side-channel credential is
// re-minted proactively on every call rather than left to passively expire.
func (r *Resolver) SignIn(ctx context.Context, p Principal, idToken string) {
	r.mu.Lock()
	r.loading = true
	r.principal = &p

	if cookie, exp, err := r.minter.Mint(ctx, idToken); err != nil {
		// Keep the previous mirrored credential; a failed mint must not
		// sign the principal out of the side channel.
		r.log.Error().Err(err).Str("uid", p.UID).Msg("session: mint side-channel credential")
	} else {
		r.cookie, r.cookieExp = cookie, exp
	}

	if r.watch != nil {
		_ = r.watch.Close()
		r.watch = nil
	}
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	w, err := r.watcher.WatchProfile(ctx, p.UID)
	if err != nil {
		r.log.Error().Err(err).Str("uid", p.UID).Msg("session: open profile watch")
		r.mu.Lock()
		if r.gen == gen {
			// Resolution completes with the last-known role retained.
			r.loading = false
		}
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	if r.gen != gen {
		// Another identity event raced us; this watch lost.
		r.mu.Unlock()
		_ = w.Close()
		return
	}
	r.watch = w
	r.mu.Unlock()

	go r.consume(gen, w)
}

func (r *Resolver) consume(gen uint64, w ProfileWatch) {
	for u := range w.Updates() {
		r.mu.Lock()
		if r.gen != gen {
			r.mu.Unlock()
			return
		}
		if u.Err != nil {
			r.log.Error().Err(u.Err).Msg("session: profile watch error")
			r.loading = false
			r.mu.Unlock()
			continue
		}
		r.role = u.Profile.Role
		r.loading = false
		r.mu.Unlock()
	}
}

// SignOut tears down the watch and clears the published principal, role and
// side-channel credential.
func (r *Resolver) SignOut(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	if r.watch != nil {
		_ = r.watch.Close()
		r.watch = nil
	}
	r.principal = nil
	r.role = ""
	r.cookie = ""
	r.cookieExp = time.Time{}
	r.loading = false
}

// Snapshot returns the current resolved state.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Role:          r.role,
		Loading:       r.loading,
		Cookie:        r.cookie,
		CookieExpires: r.cookieExp,
	}
	if r.principal != nil {
		p := *r.principal
		snap.Principal = &p
	}
	return snap
}

var _ ProfileWatch = (*users.ProfileWatch)(nil)
