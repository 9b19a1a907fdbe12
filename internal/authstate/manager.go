// ABOUTME: Auth state manager orchestrating login, logout, registration and restore
// ABOUTME: Sole writer of the shared AuthState cell; fans snapshots out to subscribers

package authstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmfreitas/gatekeeper/internal/directory"
	"github.com/jmfreitas/gatekeeper/internal/session"
)

// Expected, user-facing outcomes of directory lookups. These are not defects
// and propagate unchanged to the caller; anything else from the directory is
// wrapped and surfaces as a generic failure.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrEmailNotFound      = errors.New("email not found")
)

// DefaultRememberTTL bounds a "remember me" session.
const DefaultRememberTTL = 7 * 24 * time.Hour

// Manager is the single source of truth for the current session. It is the
// only component that mutates the AuthState cell; everything else reads
// snapshots or subscribes to changes.
//
// Operations are not serialized against each other: two concurrent Login
// calls race and the last write wins. Callers are expected to disable the
// triggering control while an operation is in flight.
type Manager struct {
	dir         directory.Directory
	issuer      directory.TokenIssuer
	store       *session.Store
	rememberTTL time.Duration
	logger      *slog.Logger

	mu      sync.RWMutex
	state   State
	subs    map[int]chan State
	nextSub int
}

// Option configures a Manager.
type Option func(*Manager)

// WithRememberTTL overrides the persistent-session lifetime.
func WithRememberTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.rememberTTL = ttl }
}

// WithLogger overrides the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager. The state starts in Loading until
// RestoreOnStartup runs.
func NewManager(dir directory.Directory, issuer directory.TokenIssuer, store *session.Store, opts ...Option) *Manager {
	m := &Manager{
		dir:         dir,
		issuer:      issuer,
		store:       store,
		rememberTTL: DefaultRememberTTL,
		logger:      slog.Default().With("component", "authstate"),
		state:       State{Loading: true},
		subs:        make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the current auth state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers a listener for state snapshots. The returned channel
// receives the current state immediately and every replacement afterwards.
// Slow subscribers miss intermediate snapshots rather than block the
// mutation path. Call the returned cancel function when done.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan State, 1)
	ch <- m.state
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// setState replaces the state wholesale and notifies subscribers.
func (m *Manager) setState(next State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = next
	for _, ch := range m.subs {
		select {
		case ch <- next:
		default:
			// Drop the stale snapshot so the fresh one fits.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}

// RestoreOnStartup resolves the stored session exactly once at process start
// and leaves the Loading phase. A stored, non-expired session is trusted
// as-is: no directory round-trip is made, so the shell can load without a
// backend liveness check. Staleness is caught by each downstream call's own
// fallibility.
func (m *Manager) RestoreOnStartup() {
	sess, err := m.store.Restore()
	if err != nil || sess == nil {
		if err != nil {
			m.logger.Warn("session restore failed", "error", err)
		}
		m.setState(anonymous())
		return
	}

	m.logger.Info("session restored", "durability", sess.Durability.String())
	p := sess.Principal
	m.setState(authenticated(&p, sess.Token))
}

// Login verifies credentials against the directory, persists a session in
// the tier matching remember, and replaces the auth state. On invalid
// credentials the state is left untouched and ErrInvalidCredentials is
// returned; the caller owns user-visible messaging.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) (*session.Session, error) {
	p, err := m.dir.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verifying credentials: %w", err)
	}

	sess := &session.Session{
		Principal:  *p,
		Durability: session.Ephemeral,
	}

	var ttl time.Duration
	if remember {
		ttl = m.rememberTTL
		expires := time.Now().Add(ttl)
		sess.Durability = session.Persistent
		sess.ExpiresAt = &expires
	}

	token, err := m.issuer.Issue(p.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	sess.Token = token

	if err := m.store.Save(sess); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	m.setState(authenticated(p, token))
	m.logger.Info("login", "principal", p.ID, "role", p.Role, "durability", sess.Durability.String())
	return sess, nil
}

// Register creates a principal record in the directory. It deliberately does
// not establish a session: registration and login are decoupled, and the
// caller must invoke Login separately. Public registrations always get the
// USER role.
func (m *Manager) Register(ctx context.Context, name, email, password, avatar string) error {
	_, err := m.dir.CreatePrincipal(ctx, directory.NewPrincipal{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     directory.RoleUser,
		Avatar:   avatar,
	})
	if err != nil {
		if errors.Is(err, directory.ErrAlreadyExists) {
			return ErrEmailInUse
		}
		return fmt.Errorf("creating principal: %w", err)
	}

	m.logger.Info("principal registered", "role", directory.RoleUser)
	return nil
}

// RequestPasswordReset checks that the email belongs to a known principal.
// Has no effect on the auth state.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	exists, err := m.dir.PrincipalExists(ctx, email)
	if err != nil {
		return fmt.Errorf("checking principal: %w", err)
	}
	if !exists {
		return ErrEmailNotFound
	}
	return nil
}

// Logout clears both storage tiers and resets the auth state to the
// unauthenticated baseline. Unconditional, cannot fail.
func (m *Manager) Logout() {
	m.store.Clear()
	m.setState(anonymous())
	m.logger.Info("logout")
}
