// Package session persists the authenticated session across two storage
// tiers of different durability.
//
// # Tiers
//
// A Tier is a minimal get/set/remove key-value store. Two implementations:
//
//   - MemoryTier: in-process, dies with the process (ephemeral)
//   - FileTier: single JSON file, atomic rewrite, survives restarts (persistent)
//
// The Store composes one of each. "Remember me" sessions go to the
// persistent tier with an absolute expiry; default sessions go to the
// ephemeral tier with no expiry, since the tier itself disappears.
//
// # Resolution
//
// Restore checks the ephemeral tier first, then the persistent tier. An
// expired persistent session is silently cleared, not reported as an error.
// Only one tier ever holds live data: Save clears both tiers before writing.
package session
