// Package session gives every browser its own store.Store.
//
// Stores live in memory and are rebuilt on demand: the first request of a
// session (or the first after eviction or a restart) seeds a new store with
// the username persisted for that session. Typing into the username field
// writes through to the repository, so a returning visitor gets their last
// lookup loaded again when the home page mounts.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/repo-finder/internal/apperror"
	"github.com/sakif/repo-finder/internal/repository"
	"github.com/sakif/repo-finder/internal/store"
)

// DefaultTTL is how long an idle store is kept in memory.
const DefaultTTL = 30 * time.Minute

// Manager owns the live stores.
type Manager struct {
	repo       repository.SessionRepository
	middleware []store.Middleware
	ttl        time.Duration
	retention  time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	store    *store.Store
	lastSeen time.Time
}

// NewManager creates a Manager. Every store it creates gets middleware
// (typically the repository loader) inside its own persistence middleware.
func NewManager(repo repository.SessionRepository, ttl time.Duration, logger *slog.Logger, middleware ...store.Middleware) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		repo:       repo,
		middleware: middleware,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
		entries:    make(map[string]*entry),
	}
}

// WithRetention makes Prune (and so Run) delete persisted sessions that
// have not been touched for longer than d. Zero keeps them forever.
func (m *Manager) WithRetention(d time.Duration) *Manager {
	m.retention = d
	return m
}

// Get returns the store of session id, creating it if needed.
func (m *Manager) Get(ctx context.Context, id string) (*store.Store, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("session", "session ID is required")
	}

	m.mu.Lock()
	if e, ok := m.entries[id]; ok {
		e.lastSeen = m.now()
		m.mu.Unlock()
		return e.store, nil
	}
	m.mu.Unlock()

	// Load outside the lock; a concurrent Get for the same id may race us
	// here, and the first one to insert wins below.
	initial := store.State{}
	persisted, err := m.repo.GetSession(ctx, id)
	switch {
	case err == nil:
		initial.Home.Username = persisted.Username
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return nil, fmt.Errorf("session: loading %s: %w", id, err)
	}

	mw := append([]store.Middleware{m.persist(id)}, m.middleware...)
	st := store.New(store.Reduce, initial, mw...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.lastSeen = m.now()
		return e.store, nil
	}
	m.entries[id] = &entry{store: st, lastSeen: m.now()}

	m.logger.Debug("session store created",
		slog.String("session", id),
		slog.Bool("restored", persisted != nil),
	)
	return st, nil
}

// persist writes username changes of session id through to the repository.
//
// A failed write is logged and otherwise ignored: the in-memory store stays
// authoritative for the running process.
func (m *Manager) persist(id string) store.Middleware {
	return func(api store.API) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a store.Action) {
				next(a)
				if _, ok := a.(store.ChangeUsername); !ok {
					return
				}
				username := store.SelectUsername(api.State())
				if err := m.repo.SaveUsername(context.Background(), id, username); err != nil {
					m.logger.Error("failed to persist username",
						slog.String("session", id),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}
}

// Sweep drops stores that have been idle for longer than the TTL and
// returns how many were dropped. In-flight loads of a dropped store still
// complete; their result is simply discarded with it.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live stores.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Prune deletes persisted sessions older than the retention and returns how
// many went. Live stores are left alone: a pruned session that comes back
// simply starts without a stored username.
func (m *Manager) Prune(ctx context.Context) (int64, error) {
	if m.retention <= 0 {
		return 0, nil
	}
	n, err := m.repo.PruneSessions(ctx, m.now().Add(-m.retention))
	if err != nil {
		return 0, fmt.Errorf("session: pruning: %w", err)
	}
	return n, nil
}

// Run sweeps idle stores and prunes expired sessions every interval until
// ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("idle session stores evicted", slog.Int("count", n))
			}
			n, err := m.Prune(ctx)
			if err != nil {
				m.logger.Error("failed to prune sessions", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				m.logger.Info("expired sessions pruned", slog.Int64("count", n))
			}
		}
	}
}
