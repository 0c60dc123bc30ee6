package handler

// Response helpers shared by the page and API handlers.
//
// Every JSON error has the same shape:
//
//	{"error": "not_found", "message": "github user not found: ghost"}
//
// so a client can always rely on those two fields, whatever the status.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/repo-finder/internal/apperror"
)

// ErrorResponse is the error body of every JSON endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends data as JSON. Headers and status must go out before the
// body, so the encode comes last.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent; all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// classify maps a domain error onto an HTTP status and an error kind.
//
// The service and gateway layers return apperror sentinels and know nothing
// about HTTP; this is the one place they are translated.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError sends err as a JSON ErrorResponse.
//
// Only *apperror.AppError messages reach the client. Anything else may carry
// SQL, paths or other internals and is replaced by a generic message.
func writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)

	message := "An internal error occurred"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

// writePageError is writeError for HTML form endpoints.
func writePageError(w http.ResponseWriter, err error) {
	status, _ := classify(err)

	message := http.StatusText(status)
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	http.Error(w, message, status)
}
