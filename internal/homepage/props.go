package homepage

import "github.com/sakif/repo-finder/internal/model"

// Props is everything the home page reads. It is a snapshot: the page never
// changes it, it only asks for changes through Callbacks.
type Props struct {
	Username    string
	Repos       model.RepoList
	Loading     bool
	Err         error // nil means no error
	CurrentUser string
}

// Callbacks is everything the home page can ask for.
//
// Submitting is split in two: OnSubmitForm is the user pressing enter in the
// form and receives the form event; Submit is a programmatic request (the
// auto-submit on mount) and has no event at all.
type Callbacks struct {
	ChangeRoute      func(url string)
	OnChangeUsername func(evt ChangeEvent)
	OnSubmitForm     func(evt SubmitEvent)
	Submit           func()
}

// ChangeEvent is an edit of the username input. Target.Value is the full
// value of the input after the edit, not the typed delta.
type ChangeEvent struct {
	Target EventTarget
}

// EventTarget is the element an event fired on.
type EventTarget struct {
	Value string
}

// SubmitEvent is a form submission coming from the user.
type SubmitEvent interface {
	// PreventDefault suppresses the host's default handling of the
	// submission (a full page navigation to the form action).
	PreventDefault()
}
