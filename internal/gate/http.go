// ABOUTME: HTTP middleware form of the capability gate
// ABOUTME: Redirects to login (capturing the origin path) or forbidden per decision

package gate

import (
	"net/http"
	"net/url"

	"github.com/jmfreitas/gatekeeper/internal/authstate"
	"github.com/jmfreitas/gatekeeper/internal/directory"
)

// Redirect targets used by the middleware.
const (
	LoginPath     = "/login"
	ForbiddenPath = "/forbidden"
)

// StateSource exposes the current auth state. *authstate.Manager satisfies it.
type StateSource interface {
	State() authstate.State
}

// Middleware guards an HTTP handler with the capability gate. required lists
// the roles allowed through; none means any authenticated principal.
//
// Decision mapping:
//   - pending: 503 with Retry-After, a neutral wait rather than a redirect,
//     so a login surface never flashes during session restoration
//   - unauthenticated: 302 to /login?from=<requested path>
//   - unauthorized: 302 to /forbidden (terminal, no origin capture)
//   - allowed: the principal is attached to the request context and the
//     wrapped handler runs
func Middleware(src StateSource, required ...directory.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := src.State()
			result := EvaluateRoute(state, required, r.URL.RequestURI())

			switch result.Decision {
			case DecisionPending:
				w.Header().Set("Retry-After", "1")
				http.Error(w, `{"error":"session restoration in progress"}`, http.StatusServiceUnavailable)
			case DecisionLogin:
				target := LoginPath + "?from=" + url.QueryEscape(result.From)
				http.Redirect(w, r, target, http.StatusFound)
			case DecisionForbidden:
				http.Redirect(w, r, ForbiddenPath, http.StatusFound)
			case DecisionAllow:
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), state.Principal)))
			}
		})
	}
}
