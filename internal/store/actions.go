package store

import "github.com/sakif/repo-finder/internal/model"

// Action type names. They double as the "type" field of POST /api/actions.
const (
	TypeChangeUsername   = "home/CHANGE_USERNAME"
	TypeLoadRepos        = "app/LOAD_REPOS"
	TypeReposLoaded      = "app/LOAD_REPOS_SUCCESS"
	TypeRepoLoadingError = "app/LOAD_REPOS_ERROR"
	TypeNavigate         = "router/PUSH"
	TypeLocationChanged  = "router/LOCATION_CHANGE"
)

// Action describes an intended state change. Reduce is the only place that
// turns an Action into a new State.
type Action interface {
	Type() string
}

// ChangeUsername carries the full current value of the username input.
type ChangeUsername struct {
	Username string
}

func (ChangeUsername) Type() string { return TypeChangeUsername }

// LoadRepos asks for the repositories of the username held in state.
// It has no payload: the loader reads the username from the store.
type LoadRepos struct{}

func (LoadRepos) Type() string { return TypeLoadRepos }

// ReposLoaded is dispatched by the loader when a fetch completes.
type ReposLoaded struct {
	Repos    []model.Repo
	Username string
}

func (ReposLoaded) Type() string { return TypeReposLoaded }

// RepoLoadingError is dispatched by the loader when a fetch fails.
type RepoLoadingError struct {
	Err error
}

func (RepoLoadingError) Type() string { return TypeRepoLoadingError }

// Navigate requests a route change to URL.
type Navigate struct {
	URL string
}

func (Navigate) Type() string { return TypeNavigate }

// LocationChanged is dispatched by the host once it actually serves Path.
type LocationChanged struct {
	Path string
}

func (LocationChanged) Type() string { return TypeLocationChanged }
