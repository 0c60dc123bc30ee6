package homepage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/repo-finder/internal/model"
	"github.com/sakif/repo-finder/internal/store"
)

type fakeSubmitEvent struct {
	prevented int
}

func (e *fakeSubmitEvent) PreventDefault() { e.prevented++ }

func collect() (*[]store.Action, store.DispatchFunc) {
	var actions []store.Action
	return &actions, func(a store.Action) { actions = append(actions, a) }
}

func TestMapDispatchToProps_ChangeUsername(t *testing.T) {
	actions, dispatch := collect()
	cb := MapDispatchToProps(dispatch)

	cb.OnChangeUsername(ChangeEvent{Target: EventTarget{Value: "octoc"}})

	assert.Equal(t, []store.Action{store.ChangeUsername{Username: "octoc"}}, *actions)
}

func TestMapDispatchToProps_ChangeRoute(t *testing.T) {
	actions, dispatch := collect()
	cb := MapDispatchToProps(dispatch)

	cb.ChangeRoute("/features")

	assert.Equal(t, []store.Action{store.Navigate{URL: "/features"}}, *actions)
}

func TestMapDispatchToProps_FormSubmitPreventsDefault(t *testing.T) {
	actions, dispatch := collect()
	cb := MapDispatchToProps(dispatch)
	evt := &fakeSubmitEvent{}

	cb.OnSubmitForm(evt)

	assert.Equal(t, 1, evt.prevented)
	assert.Equal(t, []store.Action{store.LoadRepos{}}, *actions)
}

func TestMapDispatchToProps_FormSubmitWithoutEvent(t *testing.T) {
	actions, dispatch := collect()
	cb := MapDispatchToProps(dispatch)

	cb.OnSubmitForm(nil)

	assert.Equal(t, []store.Action{store.LoadRepos{}}, *actions)
}

func TestMapDispatchToProps_ProgrammaticSubmit(t *testing.T) {
	actions, dispatch := collect()
	cb := MapDispatchToProps(dispatch)

	cb.Submit()

	assert.Equal(t, []store.Action{store.LoadRepos{}}, *actions)
}

func TestMapStateToProps(t *testing.T) {
	st := store.New(store.Reduce, store.State{})
	st.Dispatch(store.ChangeUsername{Username: "octocat"})
	st.Dispatch(store.ReposLoaded{Repos: []model.Repo{{Name: "hello"}}, Username: "octocat"})

	p := MapStateToProps(st.State())

	assert.Equal(t, "octocat", p.Username)
	assert.Equal(t, "octocat", p.CurrentUser)
	assert.False(t, p.Loading)
	assert.NoError(t, p.Err)
	assert.True(t, p.Repos.Loaded)
	assert.Len(t, p.Repos.Items, 1)
}

func TestConnect_MountLoadsStoredUsername(t *testing.T) {
	st := store.New(store.Reduce, store.State{Home: store.HomeState{Username: "octocat"}})

	var seen []string
	st.Subscribe(func(s store.State) {
		if s.Global.Loading {
			seen = append(seen, "loading")
		}
	})

	Connect(st).Mount()

	assert.Equal(t, []string{"loading"}, seen)
	assert.Equal(t, ViewLoading, Connect(st).View().Kind)
}

func TestConnect_EveryKeystrokeDispatches(t *testing.T) {
	st := store.New(store.Reduce, store.State{})
	page := Connect(st)

	value := ""
	for _, r := range "octocat" {
		value += string(r)
		page.ChangeUsername(ChangeEvent{Target: EventTarget{Value: value}})
	}

	assert.Equal(t, uint64(7), st.State().Version())
	assert.Equal(t, "octocat", st.State().Home.Username)
}

func TestConnect_ErrorState(t *testing.T) {
	st := store.New(store.Reduce, store.State{})
	st.Dispatch(store.LoadRepos{})
	st.Dispatch(store.RepoLoadingError{Err: errors.New("rate limited")})

	v := Connect(st).View()

	assert.Equal(t, ViewError, v.Kind)
	assert.Equal(t, ErrorMessage, v.Message)
}
