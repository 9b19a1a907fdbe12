// ABOUTME: Session persistence across two storage tiers of differing durability
// ABOUTME: Save/Clear/Restore with ephemeral-first resolution and expiry enforcement

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmfreitas/gatekeeper/internal/directory"
)

// Storage keys shared by both tiers. Token and principal are always written
// and cleared together; a key present without its partner is treated as an
// absent session, never as corruption.
const (
	keyToken     = "session_token"
	keyPrincipal = "session_principal"
	keyExpiry    = "session_expiry"
)

// Durability classifies how long a session outlives the moment it was created.
type Durability int

const (
	// Ephemeral sessions die with the process; they carry no expiry.
	Ephemeral Durability = iota
	// Persistent sessions survive restarts and are time-boxed by ExpiresAt.
	Persistent
)

// String returns the durability name.
func (d Durability) String() string {
	switch d {
	case Ephemeral:
		return "ephemeral"
	case Persistent:
		return "persistent"
	default:
		return "unknown"
	}
}

// ErrInvalidSession is returned by Save when a session violates the
// durability/expiry invariant.
var ErrInvalidSession = errors.New("invalid session")

// Session pairs a bearer token with its principal and a durability class.
// ExpiresAt is non-nil exactly when Durability is Persistent.
type Session struct {
	Token      string
	Principal  directory.Principal
	Durability Durability
	ExpiresAt  *time.Time
}

// Store owns persistence of at most one session across an ephemeral and a
// persistent tier. Only one tier holds live session data at any time.
//
// The store is not safe under concurrent writers from multiple processes;
// the design assumes a single session-owning context, so no cross-process
// lock is taken.
type Store struct {
	ephemeral  Tier
	persistent Tier
	now        func() time.Time
	logger     *slog.Logger
}

// NewStore creates a session store over the given tiers.
func NewStore(ephemeral, persistent Tier) *Store {
	return &Store{
		ephemeral:  ephemeral,
		persistent: persistent,
		now:        time.Now,
		logger:     slog.Default().With("component", "session"),
	}
}

// WithClock overrides the store's time source. Used by tests to control expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Save persists the session into the tier matching its durability. Both
// tiers are cleared first so a tier switch never leaves stale data behind.
func (s *Store) Save(sess *Session) error {
	switch sess.Durability {
	case Persistent:
		if sess.ExpiresAt == nil {
			return fmt.Errorf("%w: persistent session without expiry", ErrInvalidSession)
		}
	case Ephemeral:
		if sess.ExpiresAt != nil {
			return fmt.Errorf("%w: ephemeral session with expiry", ErrInvalidSession)
		}
	default:
		return fmt.Errorf("%w: unknown durability %d", ErrInvalidSession, sess.Durability)
	}

	principalJSON, err := json.Marshal(sess.Principal)
	if err != nil {
		return fmt.Errorf("encoding principal: %w", err)
	}

	s.Clear()

	tier := s.ephemeral
	if sess.Durability == Persistent {
		tier = s.persistent
	}

	if err := tier.Set(keyToken, sess.Token); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	if err := tier.Set(keyPrincipal, string(principalJSON)); err != nil {
		// Never leave a token without its principal.
		tier.Remove(keyToken)
		return fmt.Errorf("writing principal: %w", err)
	}
	if sess.Durability == Persistent {
		expiry := strconv.FormatInt(sess.ExpiresAt.UnixMilli(), 10)
		if err := tier.Set(keyExpiry, expiry); err != nil {
			tier.Remove(keyToken)
			tier.Remove(keyPrincipal)
			return fmt.Errorf("writing expiry: %w", err)
		}
	}

	s.logger.Debug("session saved", "durability", sess.Durability.String())
	return nil
}

// Clear removes session data from both tiers unconditionally. Idempotent.
func (s *Store) Clear() {
	for _, tier := range []Tier{s.ephemeral, s.persistent} {
		tier.Remove(keyToken)
		tier.Remove(keyPrincipal)
		tier.Remove(keyExpiry)
	}
}

// Restore resolves the authoritative session on startup. The ephemeral tier
// wins when it holds a complete pair: a fresh explicit sign-in outranks an
// older persistent session without needing invalidation logic. Ephemeral
// sessions are never expiry-checked; their lifetime is the process itself.
//
// A persistent session past its expiry is not an error: both tiers are
// cleared and (nil, nil) is returned.
func (s *Store) Restore() (*Session, error) {
	if sess, ok := s.readTier(s.ephemeral, Ephemeral); ok {
		return sess, nil
	}

	sess, ok := s.readTier(s.persistent, Persistent)
	if !ok {
		return nil, nil
	}

	if sess.ExpiresAt != nil && s.now().After(*sess.ExpiresAt) {
		s.logger.Debug("persistent session expired, clearing")
		s.Clear()
		return nil, nil
	}

	return sess, nil
}

// readTier reconstructs a session from one tier. An incomplete pair or an
// undecodable principal reads as absent.
func (s *Store) readTier(tier Tier, durability Durability) (*Session, bool) {
	token, okToken := tier.Get(keyToken)
	principalJSON, okPrincipal := tier.Get(keyPrincipal)
	if !okToken || !okPrincipal || token == "" {
		return nil, false
	}

	var principal directory.Principal
	if err := json.Unmarshal([]byte(principalJSON), &principal); err != nil {
		s.logger.Warn("discarding undecodable stored principal", "durability", durability.String())
		s.Clear()
		return nil, false
	}

	sess := &Session{
		Token:      token,
		Principal:  principal,
		Durability: durability,
	}

	if durability == Persistent {
		if raw, ok := tier.Get(keyExpiry); ok {
			ms, err := strconv.ParseInt(raw, 10, 64)
			if err == nil {
				t := time.UnixMilli(ms)
				sess.ExpiresAt = &t
			}
		}
	}

	return sess, true
}
