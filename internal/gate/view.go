// ABOUTME: Render-time role visibility check for UI fragments
// ABOUTME: Pure function, never redirects, safe on a nil principal

package gate

import (
	"github.com/jmfreitas/gatekeeper/internal/directory"
)

// Visible reports whether a UI fragment gated on the allow-set should render
// for the given principal. It is the non-navigating counterpart of Evaluate:
// a false result means "show the fallback", never "redirect". A nil
// principal is always invisible.
func Visible(p *directory.Principal, allowed []directory.Role) bool {
	if p == nil {
		return false
	}
	return roleIn(p.Role, allowed)
}
