package homepage

import "github.com/sakif/repo-finder/internal/store"

// MapStateToProps projects store state onto the page's props. Each field is
// an independent selector lookup.
func MapStateToProps(s store.State) Props {
	return Props{
		Username:    store.SelectUsername(s),
		Repos:       store.SelectRepos(s),
		Loading:     store.SelectLoading(s),
		Err:         store.SelectError(s),
		CurrentUser: store.SelectCurrentUser(s),
	}
}

// MapDispatchToProps turns page interactions into store actions. Every call
// dispatches synchronously; nothing is debounced.
func MapDispatchToProps(dispatch store.DispatchFunc) Callbacks {
	return Callbacks{
		OnChangeUsername: func(evt ChangeEvent) {
			dispatch(store.ChangeUsername{Username: evt.Target.Value})
		},
		ChangeRoute: func(url string) {
			dispatch(store.Navigate{URL: url})
		},
		OnSubmitForm: func(evt SubmitEvent) {
			if evt != nil {
				evt.PreventDefault()
			}
			dispatch(store.LoadRepos{})
		},
		Submit: func() {
			dispatch(store.LoadRepos{})
		},
	}
}

// Connect builds a HomePage from the current state of st, wired to dispatch
// into st.
func Connect(st *store.Store) *HomePage {
	return New(MapStateToProps(st.State()), MapDispatchToProps(st.Dispatch))
}
