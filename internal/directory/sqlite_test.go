// ABOUTME: Tests for the SQLite directory implementation
// ABOUTME: Uses an in-memory database; verifies bcrypt hashing and unique email constraint

package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) *SQLiteDirectory {
	t.Helper()
	dir, err := NewSQLiteDirectory(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dir.Close() })
	return dir
}

func TestSQLiteDirectory_CreateAndVerify(t *testing.T) {
	dir := newTestDirectory(t)

	p, err := dir.CreatePrincipal(context.Background(), NewPrincipal{
		Name:     "Joao Freitas",
		Email:    "user@test.com",
		Password: "password",
		Role:     RoleUser,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, err := dir.VerifyCredentials(context.Background(), "user@test.com", "password")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, RoleUser, got.Role)

	// Wrong password and missing email are indistinguishable.
	_, err = dir.VerifyCredentials(context.Background(), "user@test.com", "wrong")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = dir.VerifyCredentials(context.Background(), "nobody@test.com", "password")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteDirectory_DuplicateEmail(t *testing.T) {
	dir := newTestDirectory(t)

	_, err := dir.CreatePrincipal(context.Background(), NewPrincipal{
		Name: "A", Email: "a@x.com", Password: "p", Role: RoleUser,
	})
	require.NoError(t, err)

	_, err = dir.CreatePrincipal(context.Background(), NewPrincipal{
		Name: "B", Email: "a@x.com", Password: "q", Role: RoleUser,
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	principals, err := dir.ListPrincipals(context.Background())
	require.NoError(t, err)
	assert.Len(t, principals, 1)
	assert.Equal(t, "A", principals[0].Name)
}

func TestSQLiteDirectory_CRUD(t *testing.T) {
	dir := newTestDirectory(t)

	p, err := dir.CreatePrincipal(context.Background(), NewPrincipal{
		Name: "Maria", Email: "maria@x.com", Password: "p", Role: RoleViewer,
	})
	require.NoError(t, err)

	got, err := dir.GetPrincipal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", got.Name)

	exists, err := dir.PrincipalExists(context.Background(), "maria@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	newRole := RoleAdmin
	updated, err := dir.UpdatePrincipal(context.Background(), p.ID, PrincipalUpdate{Role: &newRole})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, updated.Role)
	assert.Equal(t, "Maria", updated.Name)

	require.NoError(t, dir.DeletePrincipal(context.Background(), p.ID))
	_, err = dir.GetPrincipal(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	err = dir.DeletePrincipal(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteDirectory_DefaultAvatar(t *testing.T) {
	dir := newTestDirectory(t)

	p, err := dir.CreatePrincipal(context.Background(), NewPrincipal{
		Name: "No Avatar", Email: "na@x.com", Password: "p", Role: RoleUser,
	})
	require.NoError(t, err)
	assert.Contains(t, p.Avatar, "No+Avatar")

	withAvatar, err := dir.CreatePrincipal(context.Background(), NewPrincipal{
		Name: "Has One", Email: "ha@x.com", Password: "p", Role: RoleUser,
		Avatar: "https://example.com/me.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/me.png", withAvatar.Avatar)
}
