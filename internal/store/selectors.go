package store

import (
	"sync"

	"github.com/sakif/repo-finder/internal/model"
)

// Selector is a read-only projection of State.
type Selector[T any] func(State) T

// Memoize caches the last result of sel and returns it again while the
// state snapshot is the same one (same store, same version). Snapshots that
// did not come from a Store are never cached.
func Memoize[T any](sel Selector[T]) Selector[T] {
	var (
		mu     sync.Mutex
		last   revision
		cached T
		ok     bool
	)
	return func(s State) T {
		if s.rev.store == 0 {
			return sel(s)
		}
		mu.Lock()
		defer mu.Unlock()
		if ok && last == s.rev {
			return cached
		}
		cached = sel(s)
		last = s.rev
		ok = true
		return cached
	}
}

var (
	SelectUsername = Memoize(func(s State) string {
		return s.Home.Username
	})

	SelectRepos = Memoize(func(s State) model.RepoList {
		return s.Global.Repos
	})

	SelectLoading = Memoize(func(s State) bool {
		return s.Global.Loading
	})

	SelectError = Memoize(func(s State) error {
		return s.Global.Err
	})

	SelectCurrentUser = Memoize(func(s State) string {
		return s.Global.CurrentUser
	})

	SelectLocation = Memoize(func(s State) string {
		return s.Router.Location
	})
)
