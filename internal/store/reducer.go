package store

import (
	"errors"
	"strings"

	"github.com/sakif/repo-finder/internal/model"
)

// ErrLoadFailed stands in for a RepoLoadingError dispatched without a cause,
// so that a failed load can never look like "no error".
var ErrLoadFailed = errors.New("loading repositories failed")

// Reducer computes the next state. It must be pure: no I/O, no goroutines,
// no mutation of the previous state.
type Reducer func(State, Action) State

// Reduce is the application reducer.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ChangeUsername:
		// "@octocat" and "octocat" name the same account; the input is
		// rendered behind a literal "@" prefix.
		s.Home.Username = strings.ReplaceAll(a.Username, "@", "")

	case LoadRepos:
		s.Global.Loading = true
		s.Global.Err = nil
		s.Global.Repos = model.RepoList{}

	case ReposLoaded:
		s.Global.Repos = model.LoadedRepos(a.Repos)
		s.Global.Loading = false
		s.Global.CurrentUser = a.Username

	case RepoLoadingError:
		s.Global.Err = a.Err
		if s.Global.Err == nil {
			s.Global.Err = ErrLoadFailed
		}
		s.Global.Loading = false

	case Navigate:
		s.Router.Location = a.URL

	case LocationChanged:
		s.Router.Location = a.Path
	}
	return s
}
