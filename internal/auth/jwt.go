// Package auth identifies browser sessions.
//
// repo-finder has no accounts. A visitor is a session: an xid generated on
// the first request, carried in a signed JWT cookie so that it cannot be
// forged or guessed, and used as the key of both the in-memory store and the
// persisted username.
//
// SESSION FLOW:
//  1. A browser without a cookie requests any page.
//  2. Sessions (middleware.go) generates an xid and signs it into a JWT.
//  3. The JWT goes back in an HttpOnly "session" cookie.
//  4. Every later request carries the cookie; Validate recovers the xid
//     and handlers find the session's store with it.
//
// TOKEN LAYOUT (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"<session xid>","iss":"repo-finder","exp":...}
//	- Signature: HMAC-SHA256(header + "." + payload, secret)
//
// Checking a token needs only the secret. Nothing is looked up in the
// database, and changing a single byte of the payload breaks the signature.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "repo-finder"

// DefaultTokenLifetime is how long a session cookie stays valid.
const DefaultTokenLifetime = 30 * 24 * time.Hour

// TokenService signs and verifies session tokens with HMAC-SHA256.
//
// HS256 is symmetric: the same secret signs and verifies. That is enough for
// a single server. Several servers behind a load balancer must share the
// secret, or every request that lands elsewhere starts a new session.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenService creates a TokenService. The secret should be at least 32
// bytes of random data in production:
//
//	SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &TokenService{secret: []byte(secret), lifetime: lifetime}, nil
}

// Lifetime is the validity of tokens issued by Generate.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Generate issues a token whose subject is sessionID.
func (s *TokenService) Generate(sessionID string) (string, error) {
	return s.GenerateWithDuration(sessionID, s.lifetime)
}

// GenerateWithDuration issues a token with a custom lifetime. Tests use it
// to produce expired tokens.
func (s *TokenService) GenerateWithDuration(sessionID string, d time.Duration) (string, error) {
	now := time.Now()

	c := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate verifies a token and returns its session ID.
//
// WHAT IS CHECKED:
//   - the signature, with HS256 only (WithValidMethods). A token whose
//     header claims "alg": "none" or an RSA algorithm is rejected before
//     the key func is even consulted for it.
//   - the issuer, so a token signed for another app with the same secret
//     does not pass.
//   - the expiry, which must be present (WithExpirationRequired).
//   - a non-empty subject, the session ID itself.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
