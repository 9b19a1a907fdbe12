// ABOUTME: AuthState snapshot type and its invariants
// ABOUTME: Whole-value replacement semantics so observers never see a torn state

package authstate

import (
	"github.com/jmfreitas/gatekeeper/internal/directory"
)

// State is a snapshot of the current authentication state. It is always
// replaced wholesale, never mutated field by field, so any reader observes
// either the old or the new complete state.
//
// Invariant: Authenticated == (Principal != nil && Token != "").
// Loading is true only during initial session restoration and is never
// re-entered afterwards.
type State struct {
	Principal     *directory.Principal
	Token         string
	Authenticated bool
	Loading       bool
}

// authenticated builds a state snapshot for a signed-in principal.
func authenticated(p *directory.Principal, token string) State {
	return State{
		Principal:     p,
		Token:         token,
		Authenticated: true,
		Loading:       false,
	}
}

// anonymous builds the unauthenticated baseline state.
func anonymous() State {
	return State{
		Principal:     nil,
		Token:         "",
		Authenticated: false,
		Loading:       false,
	}
}
