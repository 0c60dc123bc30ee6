// Package middleware contains repo-finder's own HTTP middleware. Generic
// pieces (request IDs, real IP, panic recovery) come from chi.
//
// A middleware wraps a handler to add behaviour around it:
//
//	func MyMiddleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // before
//	        next.ServeHTTP(w, r)
//	        // after
//	    })
//	}
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/repo-finder/internal/auth"
)

// responseWriter records the status code and body size, which
// http.ResponseWriter does not expose after the fact.
//
// EMBEDDING:
// The embedded http.ResponseWriter gives responseWriter every method of the
// original (Header, Write, WriteHeader). Declaring WriteHeader and Write
// here shadows those two, so we see each call and then pass it on.
type responseWriter struct {
	http.ResponseWriter
	statusCode int   // last status passed to WriteHeader
	written    int64 // body bytes written so far
}

// WriteHeader records code before sending it.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write counts the bytes that actually went out.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger logs one line per request: method, path, status, duration, bytes,
// plus the request ID and session when earlier middleware set them. Mount it
// after chi's RequestID and auth.Sessions.
//
// Redirects and client errors are logged at Info, server errors at Error.
//
// STRUCTURED FIELDS:
// Every value is a slog attribute rather than part of the message, so a
// line looks like
//
//	level=INFO msg="request completed" method=GET path=/ status=200 duration=1.2ms bytes=4096 request_id=host/abc-000001 session=cs1...
//
// and all requests of one visitor can be found by grepping session=.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK, // if WriteHeader is never called
			}

			next.ServeHTTP(wrapped, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if id, ok := auth.SessionIDFromContext(r.Context()); ok {
				attrs = append(attrs, slog.String("session", id))
			}

			level := slog.LevelInfo
			if wrapped.statusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request completed", attrs...)
		})
	}
}
