package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// contextKey is the package's private type for context keys.
//
// context.WithValue accepts any key. With a plain string key, any package
// that knows the string could read or overwrite the value. A key of an
// unexported type can only be created here, so only this package can get
// at the session ID.
type contextKey string

const sessionIDKey contextKey = "sessionID"

// Sessions makes sure every request belongs to a session.
//
// A request with a valid session cookie keeps its session. Any other request
// (no cookie, tampered, expired) gets a new session ID and a Set-Cookie.
// Either way the ID is available to handlers via SessionIDFromContext.
//
// Unlike a login check, this middleware never rejects a request: a visitor
// whose cookie is bad simply becomes a new visitor.
//
// COOKIE ATTRIBUTES:
//   - HttpOnly: page scripts cannot read the token.
//   - SameSite=Lax: the cookie is not sent on cross-site POSTs, so another
//     site cannot submit the username form on a visitor's behalf.
//   - MaxAge: the token lifetime, so browser and server expire together.
func Sessions(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractSessionID(r, tokens)
			if err != nil {
				id = xid.New().String()
				token, err := tokens.Generate(id)
				if err != nil {
					logger.Error("failed to issue session token", slog.String("error", err.Error()))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(tokens.Lifetime().Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithSessionID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSessionID returns a copy of ctx carrying session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session of the current request.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

func extractSessionID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
