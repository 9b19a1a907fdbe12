// Package directory provides the identity directory the auth core depends on.
//
// # Contract
//
// The Directory interface models a remote identity service: every operation
// takes a context, can fail, and may take real time to complete. The auth
// core consumes this contract and nothing else, so the directory can be
// swapped without touching session or state management.
//
// Operations:
//
//   - VerifyCredentials: email/password check, ErrNotFound on any miss
//   - CreatePrincipal: registration, ErrAlreadyExists on duplicate email
//   - PrincipalExists: existence probe for password-reset flows
//   - GetPrincipal / ListPrincipals / UpdatePrincipal / DeletePrincipal:
//     CRUD used by the admin surface
//
// # Implementations
//
// Two implementations ship with the package:
//
//   - MockDirectory: in-memory with configurable simulated latency, seeded
//     via SeedDefaults() with one account per role. Used for development
//     and unit tests.
//   - SQLiteDirectory: modernc.org/sqlite backed, bcrypt password hashes,
//     WAL mode, automatic schema creation. Use ":memory:" in tests.
//
// # Tokens
//
// TokenIssuer mints bearer tokens for authenticated principals. The shipped
// JWTIssuer signs HS256 JWTs, but consumers treat the result as an opaque
// string: nothing outside this package ever parses a token.
package directory
