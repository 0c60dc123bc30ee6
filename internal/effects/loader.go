// Package effects runs the side effects that actions ask for. Reducers stay
// pure; anything that does I/O hangs off the dispatch chain as middleware.
package effects

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/repo-finder/internal/model"
	"github.com/sakif/repo-finder/internal/store"
)

// DefaultTimeout bounds a single repository load.
const DefaultTimeout = 15 * time.Second

// Lister is the part of service.RepoService the loader needs.
type Lister interface {
	ListForUser(ctx context.Context, username string) ([]model.Repo, error)
}

// RepoLoader performs the fetch requested by store.LoadRepos.
//
// Loads are not fenced: when the username changes while a load is in flight,
// both loads complete and whichever finishes last decides the result.
type RepoLoader struct {
	base    context.Context
	lister  Lister
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewRepoLoader creates a RepoLoader. Loads run under ctx, so cancelling it
// (on shutdown) fails every in-flight load.
func NewRepoLoader(ctx context.Context, lister Lister, timeout time.Duration, logger *slog.Logger) *RepoLoader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RepoLoader{
		base:    ctx,
		lister:  lister,
		timeout: timeout,
		logger:  logger,
	}
}

// Middleware returns the store middleware. One RepoLoader may serve any
// number of stores.
func (l *RepoLoader) Middleware() store.Middleware {
	return func(api store.API) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a store.Action) {
				next(a)
				if _, ok := a.(store.LoadRepos); ok {
					l.start(api, store.SelectUsername(api.State()))
				}
			}
		}
	}
}

func (l *RepoLoader) start(api store.API, username string) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(l.base, l.timeout)
		defer cancel()

		repos, err := l.lister.ListForUser(ctx, username)
		if err != nil {
			l.logger.Debug("repository load failed",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
			api.Dispatch(store.RepoLoadingError{Err: err})
			return
		}
		api.Dispatch(store.ReposLoaded{Repos: repos, Username: username})
	}()
}

// Wait blocks until every load started so far has dispatched its result.
func (l *RepoLoader) Wait() {
	l.wg.Wait()
}
