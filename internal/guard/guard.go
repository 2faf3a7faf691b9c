// Package guard decides where a navigation should land given the session.
//
// The rule is the same for HTTP handlers and for the REPL:
//
//   - signed in and heading to the entry path: go home instead
//   - signed out and heading anywhere else: go to the entry path
package guard

import (
	"net/http"
	"sync"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// Default paths.
const (
	DefaultEntryPath = "/"
	DefaultHomePath  = "/articles"
)

// Paths names the two fixed destinations of the guard.
type Paths struct {
	Entry string
	Home  string
}

// DefaultPaths returns "/" and "/articles".
func DefaultPaths() Paths {
	return Paths{Entry: DefaultEntryPath, Home: DefaultHomePath}
}

// Resolve returns the path to redirect to and true, or ("", false) when
// path may be visited as is.
func (p Paths) Resolve(hasToken bool, path string) (string, bool) {
	switch {
	case hasToken && path == p.Entry:
		return p.Home, true
	case !hasToken && path != p.Entry:
		return p.Entry, true
	default:
		return "", false
	}
}

// Resolve applies DefaultPaths.
func Resolve(hasToken bool, path string) (string, bool) {
	return DefaultPaths().Resolve(hasToken, path)
}

// TokenChecker reports whether a session token is held.
type TokenChecker interface {
	HasToken() bool
}

// Middleware redirects requests the guard rejects with 302 Found.
func Middleware(tokens TokenChecker, paths Paths, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if to, ok := paths.Resolve(tokens.HasToken(), r.URL.Path); ok {
			logger.L(r.Context()).Debug("guard redirect", "from", r.URL.Path, "to", to)
			http.Redirect(w, r, to, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Router tracks the current location of an in-process client and applies
// the guard on every navigation. It implements session.Navigator.
type Router struct {
	mu      sync.Mutex
	tokens  TokenChecker
	paths   Paths
	current string
	history []string
}

// NewRouter creates a Router positioned at the entry path.
func NewRouter(tokens TokenChecker, paths Paths) *Router {
	return &Router{tokens: tokens, paths: paths, current: paths.Entry}
}

// Navigate moves to path, or to wherever the guard redirects it.
func (r *Router) Navigate(path string) {
	hasToken := r.tokens.HasToken()

	r.mu.Lock()
	defer r.mu.Unlock()
	if to, ok := r.paths.Resolve(hasToken, path); ok {
		path = to
	}
	if path == r.current {
		return
	}
	r.history = append(r.history, r.current)
	r.current = path
}

// Current returns the current path.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns previously visited paths, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}
