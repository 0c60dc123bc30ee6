package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/repo-finder/internal/apperror"
	"github.com/sakif/repo-finder/internal/homepage"
	"github.com/sakif/repo-finder/internal/model"
	"github.com/sakif/repo-finder/internal/store"
)

// APIHandler exposes the session store as JSON, for clients that render
// the page themselves and dispatch per keystroke.
type APIHandler struct {
	stores StoreSource
	logger *slog.Logger
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(stores StoreSource, logger *slog.Logger) *APIHandler {
	return &APIHandler{stores: stores, logger: logger}
}

// StateResponse is the JSON projection of the home page props.
type StateResponse struct {
	Username    string       `json:"username"`
	Loading     bool         `json:"loading"`
	Error       string       `json:"error,omitempty"`
	ReposLoaded bool         `json:"reposLoaded"`
	Repos       []model.Repo `json:"repos"`
	CurrentUser string       `json:"currentUser,omitempty"`
	Location    string       `json:"location"`
	View        string       `json:"view"`
	Version     uint64       `json:"version"`
}

// ActionRequest is the body of POST /api/actions.
//
// Payload depends on Type:
//   - "home/CHANGE_USERNAME": the full input value, a JSON string
//   - "app/LOAD_REPOS": none
//   - "router/PUSH": the target route, a JSON string
type ActionRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HandleState serves GET /api/state.
func (h *APIHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	st, err := h.storeFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(st.State()))
}

// HandleAction serves POST /api/actions. Only the actions a page can
// originate are accepted; results of a load are the loader's business.
func (h *APIHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	st, err := h.storeFor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON in request body"))
		return
	}

	page := homepage.Connect(st)
	status := http.StatusOK

	switch req.Type {
	case store.TypeChangeUsername:
		var value string
		if err := decodePayload(req.Payload, &value); err != nil {
			writeError(w, err)
			return
		}
		page.ChangeUsername(homepage.ChangeEvent{Target: homepage.EventTarget{Value: value}})

	case store.TypeLoadRepos:
		page.SubmitForm(&formSubmission{})
		status = http.StatusAccepted

	case store.TypeNavigate:
		var url string
		if err := decodePayload(req.Payload, &url); err != nil {
			writeError(w, err)
			return
		}
		if err := validateRoute(url); err != nil {
			writeError(w, err)
			return
		}
		enterRoute(st, func() {
			page.OpenRoute(url)
		})

	default:
		writeError(w, apperror.ValidationFailed("type", fmt.Sprintf("unsupported action type %q", req.Type)))
		return
	}

	h.logger.Debug("action dispatched", slog.String("type", req.Type))
	writeJSON(w, status, stateResponse(st.State()))
}

func (h *APIHandler) storeFor(r *http.Request) (*store.Store, error) {
	return sessionStore(r, h.stores)
}

func decodePayload(raw json.RawMessage, dst *string) error {
	if len(raw) == 0 {
		return apperror.ValidationFailed("payload", "payload is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperror.ValidationFailed("payload", "payload must be a string")
	}
	return nil
}

func stateResponse(s store.State) StateResponse {
	props := homepage.MapStateToProps(s)
	resp := StateResponse{
		Username:    props.Username,
		Loading:     props.Loading,
		ReposLoaded: props.Repos.Loaded,
		Repos:       props.Repos.Items,
		CurrentUser: props.CurrentUser,
		Location:    store.SelectLocation(s),
		View:        homepage.SelectView(props).Kind.String(),
		Version:     s.Version(),
	}
	if props.Err != nil {
		resp.Error = homepage.ErrorMessage
	}
	if resp.Repos == nil {
		resp.Repos = []model.Repo{}
	}
	return resp
}
