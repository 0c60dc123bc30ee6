package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/repo-finder/internal/auth"
	"github.com/sakif/repo-finder/internal/effects"
	"github.com/sakif/repo-finder/internal/handler"
	"github.com/sakif/repo-finder/internal/model"
	"github.com/sakif/repo-finder/internal/store"
)

const testSession = "sess-1"

// mockLister stands in for the GitHub-backed service.
type mockLister struct {
	mu      sync.Mutex
	calls   []string
	release chan struct{} // when set, every call blocks until closed
	err     error
}

func (m *mockLister) ListForUser(ctx context.Context, username string) ([]model.Repo, error) {
	m.mu.Lock()
	m.calls = append(m.calls, username)
	release := m.release
	m.mu.Unlock()

	if release != nil {
		<-release
	}
	if m.err != nil {
		return nil, m.err
	}
	return []model.Repo{
		{Name: "hello-world", OwnerLogin: username, HTMLURL: "https://github.com/" + username + "/hello-world", OpenIssuesCount: 3},
	}, nil
}

func (m *mockLister) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockStores hands out one store per session, all sharing a loader.
type mockStores struct {
	mu      sync.Mutex
	initial store.State
	loader  *effects.RepoLoader
	stores  map[string]*store.Store
}

func (m *mockStores) Get(_ context.Context, id string) (*store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.stores[id]; ok {
		return st, nil
	}
	st := store.New(store.Reduce, m.initial, m.loader.Middleware())
	m.stores[id] = st
	return st, nil
}

type testEnv struct {
	lister *mockLister
	loader *effects.RepoLoader
	stores *mockStores
	home   *handler.HomeHandler
	api    *handler.APIHandler
}

func newTestEnv(t *testing.T, initial store.State) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	lister := &mockLister{}
	loader := effects.NewRepoLoader(context.Background(), lister, time.Second, logger)
	stores := &mockStores{initial: initial, loader: loader, stores: make(map[string]*store.Store)}

	home, err := handler.NewHomeHandler(stores, logger)
	require.NoError(t, err)

	return &testEnv{
		lister: lister,
		loader: loader,
		stores: stores,
		home:   home,
		api:    handler.NewAPIHandler(stores, logger),
	}
}

func (e *testEnv) state(t *testing.T) store.State {
	t.Helper()
	st, err := e.stores.Get(context.Background(), testSession)
	require.NoError(t, err)
	return st.State()
}

func withSession(req *http.Request) *http.Request {
	return req.WithContext(auth.WithSessionID(req.Context(), testSession))
}

func get(path string) *http.Request {
	return withSession(httptest.NewRequest(http.MethodGet, path, nil))
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withSession(req)
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return withSession(req)
}

// ===================================================================
// Page handlers
// ===================================================================

func TestHandleHome(t *testing.T) {
	t.Run("fresh session without username renders the form only", func(t *testing.T) {
		env := newTestEnv(t, store.State{})
		rr := httptest.NewRecorder()

		env.home.HandleHome(rr, get("/"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rr.Body.String(), `placeholder="mxstbr"`)
		assert.NotContains(t, rr.Body.String(), "data-view")
		assert.Equal(t, 0, env.lister.callCount())
		assert.Equal(t, "/", env.state(t).Router.Location)
	})

	t.Run("stored username is loaded once on arrival", func(t *testing.T) {
		env := newTestEnv(t, store.State{Home: store.HomeState{Username: "octocat"}})

		env.home.HandleHome(httptest.NewRecorder(), get("/"))
		env.loader.Wait()

		rr := httptest.NewRecorder()
		env.home.HandleHome(rr, get("/"))

		assert.Equal(t, 1, env.lister.callCount(), "refreshing / must not reload")
		assert.Contains(t, rr.Body.String(), `data-view="results"`)
		assert.Contains(t, rr.Body.String(), "hello-world")
	})

	t.Run("whitespace username does not load", func(t *testing.T) {
		env := newTestEnv(t, store.State{Home: store.HomeState{Username: "   "}})

		env.home.HandleHome(httptest.NewRecorder(), get("/"))

		assert.Equal(t, 0, env.lister.callCount())
	})

	t.Run("page refreshes itself while loading", func(t *testing.T) {
		env := newTestEnv(t, store.State{Home: store.HomeState{Username: "octocat"}})
		env.lister.release = make(chan struct{})

		rr := httptest.NewRecorder()
		env.home.HandleHome(rr, get("/"))

		assert.Contains(t, rr.Body.String(), `http-equiv="refresh"`)
		assert.Contains(t, rr.Body.String(), `data-view="loading"`)

		close(env.lister.release)
		env.loader.Wait()
	})

	t.Run("failed load shows the generic message", func(t *testing.T) {
		env := newTestEnv(t, store.State{Home: store.HomeState{Username: "octocat"}})
		env.lister.err = errors.New("github is down")

		env.home.HandleHome(httptest.NewRecorder(), get("/"))
		env.loader.Wait()

		rr := httptest.NewRecorder()
		env.home.HandleHome(rr, get("/"))

		assert.Contains(t, rr.Body.String(), "Something went wrong, please try again!")
		assert.NotContains(t, rr.Body.String(), "github is down")
	})

	t.Run("request without session fails", func(t *testing.T) {
		env := newTestEnv(t, store.State{})
		rr := httptest.NewRecorder()

		env.home.HandleHome(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHandleFeatures(t *testing.T) {
	env := newTestEnv(t, store.State{})
	rr := httptest.NewRecorder()

	env.home.HandleFeatures(rr, get("/features"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<h1>Features</h1>")
	assert.Equal(t, "/features", env.state(t).Router.Location)
}

func TestHandleUsername(t *testing.T) {
	env := newTestEnv(t, store.State{})
	rr := httptest.NewRecorder()

	env.home.HandleUsername(rr, postForm("/actions/username", url.Values{"username": {"@mxstbr"}}))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, "mxstbr", env.state(t).Home.Username)
	assert.Equal(t, 0, env.lister.callCount(), "typing never loads")
}

func TestHandleSubmit(t *testing.T) {
	t.Run("posted username is applied and loaded", func(t *testing.T) {
		env := newTestEnv(t, store.State{})
		rr := httptest.NewRecorder()

		env.home.HandleSubmit(rr, postForm("/actions/submit", url.Values{"username": {"@octocat"}}))
		env.loader.Wait()

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))

		s := env.state(t)
		assert.Equal(t, "octocat", s.Home.Username)
		assert.Equal(t, "octocat", s.Global.CurrentUser)
		assert.True(t, s.Global.Repos.Loaded)
		assert.Equal(t, []string{"octocat"}, env.lister.calls)
	})

	t.Run("empty username still submits", func(t *testing.T) {
		env := newTestEnv(t, store.State{})

		env.home.HandleSubmit(httptest.NewRecorder(), postForm("/actions/submit", url.Values{}))
		env.loader.Wait()

		assert.Equal(t, []string{""}, env.lister.calls)
	})
}

func TestHandleNavigate(t *testing.T) {
	t.Run("to features", func(t *testing.T) {
		env := newTestEnv(t, store.State{})
		rr := httptest.NewRecorder()

		env.home.HandleNavigate(rr, postForm("/actions/navigate", url.Values{"url": {"/features"}}))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/features", rr.Header().Get("Location"))
		assert.Equal(t, "/features", env.state(t).Router.Location)
	})

	t.Run("back home mounts the page", func(t *testing.T) {
		env := newTestEnv(t, store.State{Home: store.HomeState{Username: "octocat"}})
		env.home.HandleFeatures(httptest.NewRecorder(), get("/features"))

		rr := httptest.NewRecorder()
		env.home.HandleNavigate(rr, postForm("/actions/navigate", url.Values{"url": {"/"}}))
		env.loader.Wait()

		assert.Equal(t, "/", rr.Header().Get("Location"))
		assert.Equal(t, 1, env.lister.callCount())

		// the redirect target does not mount a second time
		env.home.HandleHome(httptest.NewRecorder(), get("/"))
		env.loader.Wait()
		assert.Equal(t, 1, env.lister.callCount())
	})

	t.Run("concurrent arrivals mount once", func(t *testing.T) {
		env := newTestEnv(t, store.State{Home: store.HomeState{Username: "octocat"}})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				env.home.HandleHome(httptest.NewRecorder(), get("/"))
			}()
		}
		wg.Wait()
		env.loader.Wait()

		assert.Equal(t, 1, env.lister.callCount())
	})

	t.Run("off-site targets are rejected", func(t *testing.T) {
		for _, target := range []string{"https://evil.example", "//evil.example", "features", ""} {
			env := newTestEnv(t, store.State{})
			rr := httptest.NewRecorder()

			env.home.HandleNavigate(rr, postForm("/actions/navigate", url.Values{"url": {target}}))

			assert.Equal(t, http.StatusBadRequest, rr.Code, "target %q", target)
		}
	})
}

func TestHandleOpenFeatures(t *testing.T) {
	env := newTestEnv(t, store.State{})
	env.home.HandleHome(httptest.NewRecorder(), get("/"))

	rr := httptest.NewRecorder()
	env.home.HandleOpenFeatures(rr, postForm("/actions/features", url.Values{}))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/features", rr.Header().Get("Location"))
	assert.Equal(t, "/features", env.state(t).Router.Location)
}

// ===================================================================
// JSON API
// ===================================================================

func decodeState(t *testing.T, rr *httptest.ResponseRecorder) handler.StateResponse {
	t.Helper()
	var resp handler.StateResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestAPI_HandleState(t *testing.T) {
	env := newTestEnv(t, store.State{Home: store.HomeState{Username: "octocat"}})
	rr := httptest.NewRecorder()

	env.api.HandleState(rr, get("/api/state"))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeState(t, rr)
	assert.Equal(t, "octocat", resp.Username)
	assert.Equal(t, "empty", resp.View)
	assert.False(t, resp.ReposLoaded)
	assert.NotNil(t, resp.Repos)
}

func TestAPI_HandleAction(t *testing.T) {
	t.Run("change username", func(t *testing.T) {
		env := newTestEnv(t, store.State{})
		rr := httptest.NewRecorder()

		env.api.HandleAction(rr, postJSON("/api/actions", `{"type":"home/CHANGE_USERNAME","payload":"@octo"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "octo", decodeState(t, rr).Username)
	})

	t.Run("load repos", func(t *testing.T) {
		env := newTestEnv(t, store.State{Home: store.HomeState{Username: "octocat"}})
		env.lister.release = make(chan struct{})
		rr := httptest.NewRecorder()

		env.api.HandleAction(rr, postJSON("/api/actions", `{"type":"app/LOAD_REPOS"}`))

		assert.Equal(t, http.StatusAccepted, rr.Code)
		resp := decodeState(t, rr)
		assert.True(t, resp.Loading)
		assert.Equal(t, "loading", resp.View)

		close(env.lister.release)
		env.loader.Wait()

		rr = httptest.NewRecorder()
		env.api.HandleState(rr, get("/api/state"))
		resp = decodeState(t, rr)
		assert.Equal(t, "results", resp.View)
		require.Len(t, resp.Repos, 1)
		assert.Equal(t, "hello-world", resp.Repos[0].Name)
	})

	t.Run("load error is reported generically", func(t *testing.T) {
		env := newTestEnv(t, store.State{Home: store.HomeState{Username: "octocat"}})
		env.lister.err = errors.New("boom")

		env.api.HandleAction(httptest.NewRecorder(), postJSON("/api/actions", `{"type":"app/LOAD_REPOS"}`))
		env.loader.Wait()

		rr := httptest.NewRecorder()
		env.api.HandleState(rr, get("/api/state"))
		resp := decodeState(t, rr)
		assert.Equal(t, "error", resp.View)
		assert.Equal(t, "Something went wrong, please try again!", resp.Error)
	})

	t.Run("navigating home mounts the page", func(t *testing.T) {
		env := newTestEnv(t, store.State{
			Home:   store.HomeState{Username: "octocat"},
			Router: store.RouterState{Location: "/features"},
		})

		rr := httptest.NewRecorder()
		env.api.HandleAction(rr, postJSON("/api/actions", `{"type":"router/PUSH","payload":"/"}`))
		env.loader.Wait()

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, env.lister.callCount())

		// the page served for the new location does not load again
		env.home.HandleHome(httptest.NewRecorder(), get("/"))
		env.loader.Wait()
		assert.Equal(t, 1, env.lister.callCount())
		assert.True(t, env.state(t).Global.Repos.Loaded)
	})

	t.Run("navigate", func(t *testing.T) {
		env := newTestEnv(t, store.State{})
		rr := httptest.NewRecorder()

		env.api.HandleAction(rr, postJSON("/api/actions", `{"type":"router/PUSH","payload":"/features"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "/features", decodeState(t, rr).Location)
	})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"type":`},
		{"unknown type", `{"type":"app/LOAD_REPOS_SUCCESS"}`},
		{"missing payload", `{"type":"home/CHANGE_USERNAME"}`},
		{"non-string payload", `{"type":"home/CHANGE_USERNAME","payload":42}`},
		{"off-site navigation", `{"type":"router/PUSH","payload":"https://evil.example"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, store.State{})
			rr := httptest.NewRecorder()

			env.api.HandleAction(rr, postJSON("/api/actions", tt.body))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var errResp handler.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
			assert.Equal(t, "validation_error", errResp.Error)
		})
	}
}

// ===================================================================
// Health
// ===================================================================

type mockPinger struct{ err error }

func (m mockPinger) Ping() error { return m.err }

func TestHandleHealth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rr := httptest.NewRecorder()
	handler.NewHealthHandler(mockPinger{}, logger).HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.NewHealthHandler(mockPinger{err: errors.New("closed")}, logger).HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
