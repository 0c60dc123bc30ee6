// Package handler contains the HTTP handlers of repo-finder.
//
// Handlers are glue: they find the store of the requesting session, turn
// the request into calls on a homepage.HomePage (or straight dispatches for
// the JSON API) and write the response. They hold no state of their own.
package handler

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/repo-finder/internal/apperror"
	"github.com/sakif/repo-finder/internal/auth"
	"github.com/sakif/repo-finder/internal/homepage"
	"github.com/sakif/repo-finder/internal/store"
	"github.com/sakif/repo-finder/web"
)

// HomeRoute is the location of the home page.
const HomeRoute = "/"

// StoreSource resolves a session ID to its store. session.Manager is the
// production implementation.
type StoreSource interface {
	Get(ctx context.Context, id string) (*store.Store, error)
}

// HomeHandler serves the home page, the features page and the form
// endpoints behind them.
type HomeHandler struct {
	stores   StoreSource
	features *template.Template
	logger   *slog.Logger
}

// NewHomeHandler creates a HomeHandler. The features template is parsed
// once here and reused for every request.
func NewHomeHandler(stores StoreSource, logger *slog.Logger) (*HomeHandler, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/base.html", "templates/features.html")
	if err != nil {
		return nil, fmt.Errorf("parsing features template: %w", err)
	}

	return &HomeHandler{
		stores:   stores,
		features: tmpl,
		logger:   logger,
	}, nil
}

// HandleHome serves GET /.
//
// The page is mounted when the session arrives at "/" from somewhere else
// (a fresh session, the features page, a restart). The self-refresh issued
// while a load is pending comes from "/" and does not mount again, so it
// does not restart the load. See enterRoute.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	st, err := h.storeFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	enterRoute(st, func() {
		st.Dispatch(store.LocationChanged{Path: HomeRoute})
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homepage.Connect(st).Render(w); err != nil {
		h.logger.Error("failed to render home page", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleFeatures serves GET /features.
func (h *HomeHandler) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	st, err := h.storeFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	enterRoute(st, func() {
		st.Dispatch(store.LocationChanged{Path: homepage.FeaturesRoute})
	})

	data := map[string]any{
		"Title": "Features - repo-finder",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.features.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render features page", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleUsername serves POST /actions/username: one edit of the username
// input, carrying its full value.
func (h *HomeHandler) HandleUsername(w http.ResponseWriter, r *http.Request) {
	st, err := h.storeFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperror.ValidationFailed("form", "malformed form body"))
		return
	}

	page := homepage.Connect(st)
	page.ChangeUsername(homepage.ChangeEvent{
		Target: homepage.EventTarget{Value: r.PostForm.Get("username")},
	})

	http.Redirect(w, r, HomeRoute, http.StatusSeeOther)
}

// HandleSubmit serves POST /actions/submit, the username form. A posted
// username is applied first, exactly like a final keystroke, then the form
// is submitted.
func (h *HomeHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	st, err := h.storeFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperror.ValidationFailed("form", "malformed form body"))
		return
	}

	page := homepage.Connect(st)
	if r.PostForm.Has("username") {
		page.ChangeUsername(homepage.ChangeEvent{
			Target: homepage.EventTarget{Value: r.PostForm.Get("username")},
		})
	}

	evt := &formSubmission{}
	page.SubmitForm(evt)
	if !evt.prevented {
		h.logger.Warn("form submission was not intercepted")
	}

	http.Redirect(w, r, HomeRoute, http.StatusSeeOther)
}

// HandleNavigate serves POST /actions/navigate, the page's route buttons.
// Entering "/" from another route mounts the home page, as a router would.
func (h *HomeHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	st, err := h.storeFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperror.ValidationFailed("form", "malformed form body"))
		return
	}

	url := r.PostForm.Get("url")
	if err := validateRoute(url); err != nil {
		h.fail(w, r, err)
		return
	}

	location := enterRoute(st, func() {
		homepage.Connect(st).OpenRoute(url)
	})

	http.Redirect(w, r, location, http.StatusSeeOther)
}

// HandleOpenFeatures serves POST /actions/features, the home page's
// "Features" button.
func (h *HomeHandler) HandleOpenFeatures(w http.ResponseWriter, r *http.Request) {
	st, err := h.storeFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	location := enterRoute(st, func() {
		homepage.Connect(st).OpenFeaturesPage()
	})

	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *HomeHandler) storeFor(r *http.Request) (*store.Store, error) {
	return sessionStore(r, h.stores)
}

// sessionStore returns the store of the requesting session.
func sessionStore(r *http.Request, stores StoreSource) (*store.Store, error) {
	id, ok := auth.SessionIDFromContext(r.Context())
	if !ok {
		return nil, fmt.Errorf("handler: request has no session")
	}
	return stores.Get(r.Context(), id)
}

func (h *HomeHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writePageError(w, err)
}

// enterRoute runs move, which changes the session's location, and mounts
// the home page when that brought the session onto "/" from anywhere else.
// It returns the location move ended on.
//
// Every route change of a session goes through here. Reading the old
// location and making the change happen in one exclusive section of the
// store, so two requests racing onto "/" (two tabs after a restart) mount
// the page once, not twice.
func enterRoute(st *store.Store, move func()) string {
	var prev, next string
	st.Exclusive(func() {
		prev = store.SelectLocation(st.State())
		move()
		next = store.SelectLocation(st.State())
	})

	if next == HomeRoute && prev != HomeRoute {
		homepage.Connect(st).Mount()
	}
	return next
}

// formSubmission is the SubmitEvent of a server-side form post. The browser
// already performed the navigation, so preventing it only records the call.
type formSubmission struct {
	prevented bool
}

func (e *formSubmission) PreventDefault() {
	e.prevented = true
}

// validateRoute accepts local absolute paths only, so navigation can never
// redirect off-site.
func validateRoute(url string) error {
	if !strings.HasPrefix(url, "/") || strings.HasPrefix(url, "//") || strings.Contains(url, `\`) {
		return apperror.ValidationFailed("url", "route must be a local path")
	}
	return nil
}
