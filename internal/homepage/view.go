package homepage

import "github.com/sakif/repo-finder/internal/model"

// ErrorMessage is shown for any failed load. The page deliberately does not
// tell the user what went wrong.
const ErrorMessage = "Something went wrong, please try again!"

// ViewKind tags which result region the page shows.
type ViewKind int

const (
	ViewEmpty ViewKind = iota
	ViewLoading
	ViewError
	ViewResults
)

func (k ViewKind) String() string {
	switch k {
	case ViewLoading:
		return "loading"
	case ViewError:
		return "error"
	case ViewResults:
		return "results"
	default:
		return "empty"
	}
}

// View is the result region of the page.
//   - ViewLoading: a loading indicator
//   - ViewError: Message, a single item
//   - ViewResults: Items, one entry per repository in input order
//   - ViewEmpty: nothing
type View struct {
	Kind    ViewKind
	Message string
	Items   []model.Repo
}

func (v View) IsLoading() bool { return v.Kind == ViewLoading }
func (v View) IsError() bool   { return v.Kind == ViewError }
func (v View) IsResults() bool { return v.Kind == ViewResults }

// SelectView picks the result region. The first match wins:
// loading, then error, then loaded repositories, then nothing.
func SelectView(p Props) View {
	switch {
	case p.Loading:
		return View{Kind: ViewLoading}
	case p.Err != nil:
		return View{Kind: ViewError, Message: ErrorMessage}
	case p.Repos.Loaded:
		return View{Kind: ViewResults, Items: p.Repos.Items}
	default:
		return View{Kind: ViewEmpty}
	}
}
