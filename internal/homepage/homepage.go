// Package homepage is the first thing users see of repo-finder, at "/".
//
// A HomePage is built from a Props snapshot plus Callbacks. It renders a
// landing section, the username lookup form and the result region; every
// interaction is forwarded to a callback. Connect (container.go) binds it to
// a store.Store.
package homepage

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/sakif/repo-finder/internal/model"
	"github.com/sakif/repo-finder/web"
)

// FeaturesRoute is where the "Features" button navigates to.
const FeaturesRoute = "/features"

// ProjectType is one entry of the landing page's project type selector.
type ProjectType struct {
	Value string
	Label string
}

// ProjectTypes are the options of the landing page selector, in display order.
var ProjectTypes = []ProjectType{
	{Value: "", Label: "Select Project Type"},
	{Value: "CS", Label: "Concept Study"},
	{Value: "PF", Label: "Pre-FEED"},
	{Value: "FE", Label: "FEED"},
	{Value: "DD", Label: "Detailed Design"},
}

var templates = template.Must(
	template.New("home").
		Funcs(template.FuncMap{"repoLabel": RepoLabel}).
		ParseFS(web.Templates, "templates/base.html", "templates/home.html"),
)

// HomePage is the home page component.
type HomePage struct {
	props     Props
	callbacks Callbacks
}

// New creates a HomePage. Nil callbacks are allowed and do nothing.
func New(props Props, callbacks Callbacks) *HomePage {
	return &HomePage{props: props, callbacks: callbacks}
}

// Props returns the snapshot the page was built from.
func (p *HomePage) Props() Props {
	return p.props
}

// View returns the result region for the current props.
func (p *HomePage) View() View {
	return SelectView(p.props)
}

// Mount runs once after the page has been attached by its host. When a
// username is already known the repositories are loaded right away.
//
// Mount is not idempotent: a host that mounts the same page twice triggers
// two loads.
func (p *HomePage) Mount() {
	if strings.TrimSpace(p.props.Username) == "" {
		return
	}
	if p.callbacks.Submit != nil {
		p.callbacks.Submit()
	}
}

// OpenRoute requests navigation to route.
func (p *HomePage) OpenRoute(route string) {
	if p.callbacks.ChangeRoute != nil {
		p.callbacks.ChangeRoute(route)
	}
}

// OpenFeaturesPage is the "Features" button.
func (p *HomePage) OpenFeaturesPage() {
	p.OpenRoute(FeaturesRoute)
}

// ChangeUsername is the username input's change handler.
func (p *HomePage) ChangeUsername(evt ChangeEvent) {
	if p.callbacks.OnChangeUsername != nil {
		p.callbacks.OnChangeUsername(evt)
	}
}

// SubmitForm is the username form's submit handler.
func (p *HomePage) SubmitForm(evt SubmitEvent) {
	if p.callbacks.OnSubmitForm != nil {
		p.callbacks.OnSubmitForm(evt)
	}
}

type pageData struct {
	Title        string
	Refresh      bool
	Username     string
	CurrentUser  string
	View         View
	ProjectTypes []ProjectType
}

// Render writes the page as HTML.
//
// While a load is in flight the page asks the browser to refresh itself, so
// the result shows up without any script on the client.
func (p *HomePage) Render(w io.Writer) error {
	view := p.View()
	data := pageData{
		Title:        "repo-finder",
		Refresh:      view.IsLoading(),
		Username:     p.props.Username,
		CurrentUser:  p.props.CurrentUser,
		View:         view,
		ProjectTypes: ProjectTypes,
	}
	if err := templates.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("homepage: rendering: %w", err)
	}
	return nil
}

// RepoLabel is the link text of a repository list item. Repositories owned
// by someone other than the looked-up user are shown with their owner.
func RepoLabel(repo model.Repo, currentUser string) string {
	if repo.OwnerLogin != "" && !strings.EqualFold(repo.OwnerLogin, currentUser) {
		return repo.OwnerLogin + "/" + repo.Name
	}
	return repo.Name
}
