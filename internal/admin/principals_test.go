// ABOUTME: Tests for the admin principal management handlers
// ABOUTME: Exercises the CRUD routes behind the capability gate middleware

package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmfreitas/gatekeeper/internal/authstate"
	"github.com/jmfreitas/gatekeeper/internal/directory"
	"github.com/jmfreitas/gatekeeper/internal/gate"
)

// stubState is a gate.StateSource returning a canned snapshot.
type stubState struct {
	state authstate.State
}

func (s stubState) State() authstate.State {
	return s.state
}

func adminState() authstate.State {
	return authstate.State{
		Principal:     &directory.Principal{ID: "admin-1", Name: "Root", Email: "root@test.com", Role: directory.RoleAdmin},
		Token:         "tok",
		Authenticated: true,
	}
}

func viewerState() authstate.State {
	return authstate.State{
		Principal:     &directory.Principal{ID: "viewer-1", Name: "Eyes", Email: "eyes@test.com", Role: directory.RoleViewer},
		Token:         "tok",
		Authenticated: true,
	}
}

func newTestServer(t *testing.T, state authstate.State) (*httptest.Server, *directory.MockDirectory) {
	t.Helper()

	dir := directory.NewMockDirectory(0)
	dir.SeedDefaults()

	r := mux.NewRouter()
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(gate.Middleware(stubState{state}, directory.RoleAdmin))
	NewService(dir).Register(adminRouter)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, dir
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAdmin_ViewerIsForbidden(t *testing.T) {
	srv, _ := newTestServer(t, viewerState())

	resp := doJSON(t, http.MethodGet, srv.URL+"/admin/principals", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, gate.ForbiddenPath, resp.Header.Get("Location"))
}

func TestAdmin_ListPrincipals(t *testing.T) {
	srv, _ := newTestServer(t, adminState())

	resp := doJSON(t, http.MethodGet, srv.URL+"/admin/principals", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var principals []directory.Principal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&principals))
	assert.Len(t, principals, 3)
}

func TestAdmin_CreatePrincipal(t *testing.T) {
	srv, dir := newTestServer(t, adminState())

	resp := doJSON(t, http.MethodPost, srv.URL+"/admin/principals", map[string]string{
		"name":  "Provisioned",
		"email": "prov@test.com",
		"role":  "VIEWER",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created directory.Principal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, directory.RoleViewer, created.Role)

	// No password supplied: the account gets the provisioning default.
	p, err := dir.VerifyCredentials(context.Background(), "prov@test.com", "password")
	require.NoError(t, err)
	assert.Equal(t, created.ID, p.ID)
}

func TestAdmin_CreateValidation(t *testing.T) {
	srv, _ := newTestServer(t, adminState())

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{
			name: "missing name",
			body: map[string]string{"email": "x@test.com", "role": "USER"},
			want: http.StatusBadRequest,
		},
		{
			name: "missing email",
			body: map[string]string{"name": "X", "role": "USER"},
			want: http.StatusBadRequest,
		},
		{
			name: "bad role",
			body: map[string]string{"name": "X", "email": "x@test.com", "role": "OWNER"},
			want: http.StatusBadRequest,
		},
		{
			name: "duplicate email",
			body: map[string]string{"name": "X", "email": "admin@test.com", "role": "USER"},
			want: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/admin/principals", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAdmin_UpdatePrincipal(t *testing.T) {
	srv, dir := newTestServer(t, adminState())

	p, err := dir.VerifyCredentials(context.Background(), "viewer@test.com", "password")
	require.NoError(t, err)

	url := fmt.Sprintf("%s/admin/principals/%s", srv.URL, p.ID)
	resp := doJSON(t, http.MethodPatch, url, map[string]string{"role": "USER"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated directory.Principal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, directory.RoleUser, updated.Role)
	assert.Equal(t, p.Name, updated.Name)
}

func TestAdmin_UpdateMissingPrincipal(t *testing.T) {
	srv, _ := newTestServer(t, adminState())

	resp := doJSON(t, http.MethodPatch, srv.URL+"/admin/principals/no-such-id", map[string]string{"role": "USER"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_DeletePrincipal(t *testing.T) {
	srv, dir := newTestServer(t, adminState())

	p, err := dir.VerifyCredentials(context.Background(), "user@test.com", "password")
	require.NoError(t, err)

	url := fmt.Sprintf("%s/admin/principals/%s", srv.URL, p.ID)
	resp := doJSON(t, http.MethodDelete, url, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, url, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
