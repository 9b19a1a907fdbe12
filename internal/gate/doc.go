// Package gate makes render-versus-redirect decisions from the current auth
// state and a per-route role allow-set.
//
// # Navigation-time gate
//
// Evaluate is a pure three-check decision function with a fixed order:
//
//  1. Loading: session restoration in progress, wait, never redirect
//  2. Authentication: not signed in, redirect to login with the origin path
//  3. Authorization: signed in but role not in the allow-set, redirect to
//     forbidden (terminal, no origin capture)
//  4. Otherwise: allow
//
// The gate holds no state of its own; it is evaluated fresh on every
// navigation. Middleware adapts the same decision to HTTP handlers.
//
// # Render-time view
//
// Visible is the non-navigating variant: a pure bool for showing or hiding
// a UI fragment by role inside an already-authorized page. It never
// redirects and is safe on a nil principal.
package gate
