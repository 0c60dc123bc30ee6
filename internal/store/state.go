// Package store is the centralized application state of repo-finder.
//
// It follows the same shape as any single-store UI architecture:
//
//	view event → Dispatch(action) → middleware → Reduce(state, action) → listeners
//
// State is a plain value. Nothing outside Reduce ever modifies it; readers get
// copies from Store.State() and project them with selectors.
package store

import "github.com/sakif/repo-finder/internal/model"

// State is the whole application state held by one Store.
type State struct {
	Home   HomeState
	Global GlobalState
	Router RouterState

	// rev identifies this exact snapshot. It is zero for states that were
	// never produced by a Store (e.g. literals in tests).
	rev revision
}

// HomeState is owned by the home page.
type HomeState struct {
	Username string
}

// GlobalState is shared by every page: the result of the last repository load.
type GlobalState struct {
	Loading     bool
	Err         error // nil means "no error"
	CurrentUser string
	Repos       model.RepoList
}

// RouterState tracks the current location.
type RouterState struct {
	Location string
}

type revision struct {
	store   uint64
	version uint64
}

// Version is the number of dispatches the owning store has processed when
// this snapshot was produced.
func (s State) Version() uint64 {
	return s.rev.version
}
