// ABOUTME: Directory interface and principal types for identity lookups
// ABOUTME: Defines Principal, Role and the contract the auth core depends on

package directory

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrNotFound is returned when no principal matches the lookup.
var ErrNotFound = errors.New("principal not found")

// ErrAlreadyExists is returned when a principal with the same email already exists.
var ErrAlreadyExists = errors.New("principal already exists")

// Role is a closed enumeration of principal roles.
type Role string

// Role constants. Each protected surface declares its own explicit allow-set;
// there is no numeric hierarchy between roles.
const (
	RoleAdmin  Role = "ADMIN"
	RoleUser   Role = "USER"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleViewer:
		return true
	default:
		return false
	}
}

// String returns the role name.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a string to a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

// Principal represents an identity record in the directory.
type Principal struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"` // unique, case-sensitive key
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// NewPrincipal holds the fields required to create a principal record.
type NewPrincipal struct {
	Name     string
	Email    string
	Password string
	Role     Role
	Avatar   string
}

// PrincipalUpdate holds optional fields for a partial update.
// Nil fields are left unchanged.
type PrincipalUpdate struct {
	Name   *string
	Email  *string
	Role   *Role
	Avatar *string
}

// Directory defines the identity directory operations the auth core depends on.
// Implementations are expected to be remote-service shaped: asynchronous with
// respect to the caller and fallible on every operation.
type Directory interface {
	// VerifyCredentials checks an email/password pair and returns the matching
	// principal, or ErrNotFound if no principal matches.
	VerifyCredentials(ctx context.Context, email, password string) (*Principal, error)

	// CreatePrincipal adds a new principal record. Returns ErrAlreadyExists if
	// the email is already registered.
	CreatePrincipal(ctx context.Context, np NewPrincipal) (*Principal, error)

	// PrincipalExists reports whether a principal with the given email exists.
	PrincipalExists(ctx context.Context, email string) (bool, error)

	// GetPrincipal retrieves a principal by ID. Returns ErrNotFound if absent.
	GetPrincipal(ctx context.Context, id string) (*Principal, error)

	// ListPrincipals returns all principal records.
	ListPrincipals(ctx context.Context) ([]Principal, error)

	// UpdatePrincipal applies a partial update to a principal by ID.
	// Returns ErrNotFound if absent.
	UpdatePrincipal(ctx context.Context, id string, upd PrincipalUpdate) (*Principal, error)

	// DeletePrincipal removes a principal by ID. Returns ErrNotFound if absent.
	DeletePrincipal(ctx context.Context, id string) error
}

// defaultAvatar returns a generated avatar URL derived from the display name,
// used when a principal is created without one.
func defaultAvatar(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}
