// Package admin provides the directory management surface: JSON-over-HTTP
// CRUD for principals, mounted behind the capability gate with an
// ADMIN-only allow-set.
//
// The package is a collaborator of the auth core, not part of it. It talks
// to the directory through the same interface as everything else and relies
// on gate.Middleware for authorization; handlers themselves only read the
// acting principal from the request context for attribution.
package admin
