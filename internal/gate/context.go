// ABOUTME: Request context plumbing for the authenticated principal
// ABOUTME: WithPrincipal/FromContext pair used by guarded HTTP handlers

package gate

import (
	"context"

	"github.com/jmfreitas/gatekeeper/internal/directory"
)

// principalKey is the key type for storing the principal in context.Context.
type principalKey struct{}

// WithPrincipal returns a new context with the principal attached.
func WithPrincipal(ctx context.Context, p *directory.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from the context, returning nil if
// not present.
func FromContext(ctx context.Context) *directory.Principal {
	val := ctx.Value(principalKey{})
	if val == nil {
		return nil
	}
	p, ok := val.(*directory.Principal)
	if !ok {
		return nil
	}
	return p
}

// MustFromContext retrieves the principal from the context, panicking if not
// present. Use only behind Middleware, which guarantees attachment.
func MustFromContext(ctx context.Context) *directory.Principal {
	p := FromContext(ctx)
	if p == nil {
		panic("gate: principal not found in context")
	}
	return p
}
