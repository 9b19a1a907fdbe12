// ABOUTME: Navigation-time capability gate deciding render vs redirect
// ABOUTME: Fixed evaluation order: loading, then authentication, then authorization

package gate

import (
	"github.com/jmfreitas/gatekeeper/internal/authstate"
	"github.com/jmfreitas/gatekeeper/internal/directory"
)

// Decision is the outcome of evaluating the gate for one navigation.
type Decision int

const (
	// DecisionPending means session restoration is still in progress: show a
	// neutral waiting state, do not redirect.
	DecisionPending Decision = iota
	// DecisionLogin means the caller is unauthenticated and should be sent
	// to the login surface.
	DecisionLogin
	// DecisionForbidden means the caller is authenticated but lacks a
	// required role.
	DecisionForbidden
	// DecisionAllow means the guarded content may render.
	DecisionAllow
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionLogin:
		return "login"
	case DecisionForbidden:
		return "forbidden"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Result carries a decision plus the originally requested path when the
// decision is a login redirect, so the caller can return there afterwards.
// Forbidden is terminal and captures nothing.
type Result struct {
	Decision Decision
	From     string
}

// Evaluate runs the gate for one navigation. required lists the roles
// allowed through; nil or empty means any authenticated principal.
//
// The order is fixed: the loading check precedes authentication, which
// precedes authorization. Checking authorization first would leak role
// requirements to unauthenticated callers and read a nil principal's role.
func Evaluate(state authstate.State, required []directory.Role) Decision {
	if state.Loading {
		return DecisionPending
	}
	if !state.Authenticated {
		return DecisionLogin
	}
	if len(required) > 0 && state.Principal != nil && !roleIn(state.Principal.Role, required) {
		return DecisionForbidden
	}
	return DecisionAllow
}

// EvaluateRoute runs the gate and captures the requested path on a login
// redirect.
func EvaluateRoute(state authstate.State, required []directory.Role, requestedPath string) Result {
	d := Evaluate(state, required)
	if d == DecisionLogin {
		return Result{Decision: d, From: requestedPath}
	}
	return Result{Decision: d}
}

// roleIn reports whether r is in the allow-set.
func roleIn(r directory.Role, allowed []directory.Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
