// Package auth makes the API's access-control boundary explicit.
//
// The ledger has no user accounts; the boundary is a single static
// bearer token. When no token is configured the middleware passes every
// request through, but it logs that fact once at startup so an open
// deployment is a visible choice rather than an accident.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// TokenMiddleware checks the Authorization header against a static token.
type TokenMiddleware struct {
	token string
}

// NewTokenMiddleware creates the middleware. An empty token disables
// the check.
func NewTokenMiddleware(token string) *TokenMiddleware {
	if token == "" {
		slog.Warn("API token not configured, all requests are accepted", "component", "auth")
	}
	return &TokenMiddleware{token: token}
}

// Enabled reports whether a token is configured.
func (m *TokenMiddleware) Enabled() bool {
	return m.token != ""
}

// Middleware returns the HTTP middleware function
func (m *TokenMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		got, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(m.token)) != 1 {
			slog.WarnContext(r.Context(), "Rejected request with invalid token",
				"component", "auth",
				"method", r.Method,
				"path", r.URL.Path)
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
