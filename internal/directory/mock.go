// ABOUTME: Mock Directory implementation for development and testing
// ABOUTME: In-memory principal records with simulated network latency

package directory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockDirectory is an in-memory Directory implementation. It simulates the
// latency of a remote identity service so callers exercise their loading and
// in-flight states the same way they would against a real backend.
type MockDirectory struct {
	mu      sync.RWMutex
	byEmail map[string]*mockRecord // keyed by email (case-sensitive)
	byID    map[string]string      // keyed by ID -> email
	latency time.Duration
}

// mockRecord pairs a principal with its plaintext password. Plaintext is
// acceptable here only because the mock stands in for a remote service that
// owns credential verification.
type mockRecord struct {
	principal Principal
	password  string
}

// NewMockDirectory creates an empty MockDirectory with the given simulated
// latency per operation. Zero latency is valid and useful in tests.
func NewMockDirectory(latency time.Duration) *MockDirectory {
	return &MockDirectory{
		byEmail: make(map[string]*mockRecord),
		byID:    make(map[string]string),
		latency: latency,
	}
}

// SeedDefaults populates the directory with one account per role, matching
// the fixtures a fresh install ships with. Existing records are kept.
func (d *MockDirectory) SeedDefaults() {
	seeds := []struct {
		name  string
		email string
		role  Role
	}{
		{"Desenvolvedor", "admin@test.com", RoleAdmin},
		{"Joao Freitas", "user@test.com", RoleUser},
		{"Maria Alencar", "viewer@test.com", RoleViewer},
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range seeds {
		if _, ok := d.byEmail[s.email]; ok {
			continue
		}
		p := Principal{
			ID:     uuid.NewString(),
			Name:   s.name,
			Email:  s.email,
			Role:   s.role,
			Avatar: defaultAvatar(s.name),
		}
		d.byEmail[s.email] = &mockRecord{principal: p, password: "password"}
		d.byID[p.ID] = s.email
	}
}

// sleep waits for the configured latency or until the context is cancelled.
func (d *MockDirectory) sleep(ctx context.Context) error {
	if d.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VerifyCredentials checks an email/password pair.
func (d *MockDirectory) VerifyCredentials(ctx context.Context, email, password string) (*Principal, error) {
	if err := d.sleep(ctx); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.byEmail[email]
	if !ok || rec.password != password {
		return nil, ErrNotFound
	}

	p := rec.principal
	return &p, nil
}

// CreatePrincipal adds a new principal record.
func (d *MockDirectory) CreatePrincipal(ctx context.Context, np NewPrincipal) (*Principal, error) {
	if err := d.sleep(ctx); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byEmail[np.Email]; ok {
		return nil, ErrAlreadyExists
	}

	avatar := np.Avatar
	if avatar == "" {
		avatar = defaultAvatar(np.Name)
	}

	p := Principal{
		ID:     uuid.NewString(),
		Name:   np.Name,
		Email:  np.Email,
		Role:   np.Role,
		Avatar: avatar,
	}
	d.byEmail[np.Email] = &mockRecord{principal: p, password: np.Password}
	d.byID[p.ID] = np.Email

	return &p, nil
}

// PrincipalExists reports whether a principal with the given email exists.
func (d *MockDirectory) PrincipalExists(ctx context.Context, email string) (bool, error) {
	if err := d.sleep(ctx); err != nil {
		return false, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.byEmail[email]
	return ok, nil
}

// GetPrincipal retrieves a principal by ID.
func (d *MockDirectory) GetPrincipal(ctx context.Context, id string) (*Principal, error) {
	if err := d.sleep(ctx); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	email, ok := d.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	p := d.byEmail[email].principal
	return &p, nil
}

// ListPrincipals returns all principal records.
func (d *MockDirectory) ListPrincipals(ctx context.Context) ([]Principal, error) {
	if err := d.sleep(ctx); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]Principal, 0, len(d.byEmail))
	for _, rec := range d.byEmail {
		result = append(result, rec.principal)
	}
	return result, nil
}

// UpdatePrincipal applies a partial update to a principal by ID.
func (d *MockDirectory) UpdatePrincipal(ctx context.Context, id string, upd PrincipalUpdate) (*Principal, error) {
	if err := d.sleep(ctx); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	email, ok := d.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec := d.byEmail[email]

	if upd.Email != nil && *upd.Email != email {
		if _, taken := d.byEmail[*upd.Email]; taken {
			return nil, ErrAlreadyExists
		}
		delete(d.byEmail, email)
		d.byEmail[*upd.Email] = rec
		d.byID[id] = *upd.Email
		rec.principal.Email = *upd.Email
	}
	if upd.Name != nil {
		rec.principal.Name = *upd.Name
	}
	if upd.Role != nil {
		rec.principal.Role = *upd.Role
	}
	if upd.Avatar != nil {
		rec.principal.Avatar = *upd.Avatar
	}

	p := rec.principal
	return &p, nil
}

// DeletePrincipal removes a principal by ID.
func (d *MockDirectory) DeletePrincipal(ctx context.Context, id string) error {
	if err := d.sleep(ctx); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	email, ok := d.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(d.byEmail, email)
	delete(d.byID, id)
	return nil
}
