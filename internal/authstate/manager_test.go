// ABOUTME: Tests for the auth state manager operations
// ABOUTME: Covers login, restore, logout, registration and password reset flows

package authstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmfreitas/gatekeeper/internal/directory"
	"github.com/jmfreitas/gatekeeper/internal/session"
)

const testSecret = "authstate-test-secret-32-bytes!!"

type fixture struct {
	mgr   *Manager
	dir   *directory.MockDirectory
	store *session.Store
	eph   *session.MemoryTier
	per   *session.MemoryTier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := directory.NewMockDirectory(0)
	dir.SeedDefaults()

	eph := session.NewMemoryTier()
	per := session.NewMemoryTier()
	store := session.NewStore(eph, per)

	issuer := directory.NewJWTIssuer([]byte(testSecret))
	mgr := NewManager(dir, issuer, store)

	return &fixture{mgr: mgr, dir: dir, store: store, eph: eph, per: per}
}

func TestManager_StartsLoading(t *testing.T) {
	f := newFixture(t)

	state := f.mgr.State()
	assert.True(t, state.Loading)
	assert.False(t, state.Authenticated)
}

func TestManager_RestoreOnStartup_NoSession(t *testing.T) {
	f := newFixture(t)

	f.mgr.RestoreOnStartup()

	state := f.mgr.State()
	assert.False(t, state.Loading)
	assert.False(t, state.Authenticated)
	assert.Nil(t, state.Principal)
	assert.Empty(t, state.Token)
}

func TestManager_LoginEphemeral(t *testing.T) {
	f := newFixture(t)
	f.mgr.RestoreOnStartup()

	sess, err := f.mgr.Login(context.Background(), "user@test.com", "password", false)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, session.Ephemeral, sess.Durability)
	assert.Nil(t, sess.ExpiresAt)

	state := f.mgr.State()
	assert.True(t, state.Authenticated)
	require.NotNil(t, state.Principal)
	assert.Equal(t, "user@test.com", state.Principal.Email)
	assert.Equal(t, directory.RoleUser, state.Principal.Role)
	assert.Equal(t, sess.Token, state.Token)

	// Session landed in the ephemeral tier only.
	_, ok := f.eph.Get("session_token")
	assert.True(t, ok)
	_, ok = f.per.Get("session_token")
	assert.False(t, ok)
}

func TestManager_LoginRemembered(t *testing.T) {
	f := newFixture(t)
	f.mgr.RestoreOnStartup()

	before := time.Now()
	sess, err := f.mgr.Login(context.Background(), "admin@test.com", "password", true)
	require.NoError(t, err)
	assert.Equal(t, session.Persistent, sess.Durability)
	require.NotNil(t, sess.ExpiresAt)

	// Expiry sits a remember-TTL out from now.
	assert.WithinDuration(t, before.Add(DefaultRememberTTL), *sess.ExpiresAt, time.Minute)

	_, ok := f.per.Get("session_token")
	assert.True(t, ok)
	_, ok = f.eph.Get("session_token")
	assert.False(t, ok)
}

func TestManager_LoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.mgr.RestoreOnStartup()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "user@test.com", "nope"},
		{"unknown email", "ghost@test.com", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.mgr.State()

			sess, err := f.mgr.Login(context.Background(), tt.email, tt.password, false)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Nil(t, sess)

			// State is untouched on failure.
			assert.Equal(t, before, f.mgr.State())
		})
	}
}

func TestManager_LogoutThenRestore(t *testing.T) {
	f := newFixture(t)
	f.mgr.RestoreOnStartup()

	_, err := f.mgr.Login(context.Background(), "user@test.com", "password", true)
	require.NoError(t, err)

	f.mgr.Logout()

	state := f.mgr.State()
	assert.False(t, state.Authenticated)
	assert.Nil(t, state.Principal)
	assert.Empty(t, state.Token)
	assert.False(t, state.Loading)

	// A fresh manager over the same store sees nothing to restore.
	issuer := directory.NewJWTIssuer([]byte(testSecret))
	fresh := NewManager(f.dir, issuer, f.store)
	fresh.RestoreOnStartup()
	assert.False(t, fresh.State().Authenticated)
}

func TestManager_RestoreTrustsStoredSession(t *testing.T) {
	f := newFixture(t)
	f.mgr.RestoreOnStartup()

	sess, err := f.mgr.Login(context.Background(), "viewer@test.com", "password", true)
	require.NoError(t, err)

	// A second manager over the same tiers models a process restart with
	// the persistent tier intact. No directory call is needed.
	issuer := directory.NewJWTIssuer([]byte(testSecret))
	fresh := NewManager(f.dir, issuer, f.store)
	fresh.RestoreOnStartup()

	state := fresh.State()
	assert.True(t, state.Authenticated)
	require.NotNil(t, state.Principal)
	assert.Equal(t, "viewer@test.com", state.Principal.Email)
	assert.Equal(t, sess.Token, state.Token)
}

func TestManager_RegisterDoesNotSignIn(t *testing.T) {
	f := newFixture(t)
	f.mgr.RestoreOnStartup()

	err := f.mgr.Register(context.Background(), "New User", "new@test.com", "secret", "")
	require.NoError(t, err)

	assert.False(t, f.mgr.State().Authenticated)

	// The new account can log in afterwards, with the USER role.
	sess, err := f.mgr.Login(context.Background(), "new@test.com", "secret", false)
	require.NoError(t, err)
	assert.Equal(t, directory.RoleUser, sess.Principal.Role)
}

func TestManager_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.mgr.RestoreOnStartup()

	require.NoError(t, f.mgr.Register(context.Background(), "A", "a@x.com", "p", ""))

	err := f.mgr.Register(context.Background(), "B", "a@x.com", "q", "")
	assert.ErrorIs(t, err, ErrEmailInUse)

	// The directory still holds exactly one record for that email.
	principals, err := f.dir.ListPrincipals(context.Background())
	require.NoError(t, err)
	count := 0
	for _, p := range principals {
		if p.Email == "a@x.com" {
			count++
			assert.Equal(t, "A", p.Name)
		}
	}
	assert.Equal(t, 1, count)
}

func TestManager_RequestPasswordReset(t *testing.T) {
	f := newFixture(t)
	f.mgr.RestoreOnStartup()

	assert.NoError(t, f.mgr.RequestPasswordReset(context.Background(), "user@test.com"))

	err := f.mgr.RequestPasswordReset(context.Background(), "ghost@test.com")
	assert.ErrorIs(t, err, ErrEmailNotFound)

	// Neither outcome touches the auth state.
	assert.False(t, f.mgr.State().Authenticated)
}

func TestManager_Subscribe(t *testing.T) {
	f := newFixture(t)

	ch, cancel := f.mgr.Subscribe()
	defer cancel()

	// The current (loading) state arrives immediately.
	state := <-ch
	assert.True(t, state.Loading)

	f.mgr.RestoreOnStartup()
	state = <-ch
	assert.False(t, state.Loading)
	assert.False(t, state.Authenticated)

	_, err := f.mgr.Login(context.Background(), "user@test.com", "password", false)
	require.NoError(t, err)
	state = <-ch
	assert.True(t, state.Authenticated)
}

func TestManager_SubscribeSlowConsumerSeesLatest(t *testing.T) {
	f := newFixture(t)

	ch, cancel := f.mgr.Subscribe()
	defer cancel()

	// Drain nothing: restore and login both happen while the buffer holds
	// the initial snapshot. The subscriber must end up with the newest
	// state, not block the manager.
	f.mgr.RestoreOnStartup()
	_, err := f.mgr.Login(context.Background(), "user@test.com", "password", false)
	require.NoError(t, err)

	var last State
	for {
		select {
		case s := <-ch:
			last = s
			continue
		default:
		}
		break
	}
	assert.True(t, last.Authenticated)
}

func TestManager_ExpiredPersistentSessionNotRestored(t *testing.T) {
	dir := directory.NewMockDirectory(0)
	dir.SeedDefaults()

	eph := session.NewMemoryTier()
	per := session.NewMemoryTier()

	now := time.Now()
	store := session.NewStore(eph, per).WithClock(func() time.Time { return now })

	issuer := directory.NewJWTIssuer([]byte(testSecret))
	mgr := NewManager(dir, issuer, store)
	mgr.RestoreOnStartup()

	_, err := mgr.Login(context.Background(), "user@test.com", "password", true)
	require.NoError(t, err)

	// Restart after the remember window has passed.
	store.WithClock(func() time.Time { return now.Add(DefaultRememberTTL + time.Hour) })
	fresh := NewManager(dir, issuer, store)
	fresh.RestoreOnStartup()

	assert.False(t, fresh.State().Authenticated)

	// Expiry is a silent fallback: both tiers end up empty.
	_, ok := per.Get("session_token")
	assert.False(t, ok)
}
