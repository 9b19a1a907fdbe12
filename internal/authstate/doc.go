// Package authstate manages the in-memory authentication state and the
// operations that change it.
//
// # State cell
//
// A single Manager owns the State cell. Writes replace the whole value, so
// concurrent readers see either the previous or the next complete state,
// never a mix. Consumers read snapshots with State() or follow changes with
// Subscribe().
//
// # Operations
//
//   - RestoreOnStartup: resolve the stored session once, leave Loading
//   - Login: verify credentials, persist a session, replace state
//   - Register: create a principal; does not sign in
//   - RequestPasswordReset: existence check only
//   - Logout: clear storage, reset to baseline
//
// # Errors
//
// ErrInvalidCredentials, ErrEmailInUse and ErrEmailNotFound are expected
// outcomes, not defects. They pass through to the caller unchanged and are
// never retried. Transport-level directory failures surface wrapped, as a
// distinct generic failure.
//
// # Concurrency
//
// Operations are not serialized against each other. Two concurrent Login
// calls race with last-writer-wins semantics; callers should disable the
// triggering control while a call is in flight.
package authstate
