// ABOUTME: SQLite implementation of the Directory interface using modernc.org/sqlite
// ABOUTME: Stores principals with bcrypt password hashes and automatic schema creation

package directory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// SQLiteDirectory implements the Directory interface using SQLite.
type SQLiteDirectory struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteDirectory creates a SQLite-backed directory at the given path.
// The schema is automatically created if it doesn't exist. Parent directories
// are created if needed. Use ":memory:" for tests.
func NewSQLiteDirectory(path string) (*SQLiteDirectory, error) {
	logger := slog.Default().With("component", "directory")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	d := &SQLiteDirectory{
		db:     db,
		logger: logger,
	}

	if err := d.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite directory initialized", "path", path)
	return d, nil
}

// createSchema creates the principals table if it doesn't exist
func (d *SQLiteDirectory) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS principals (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT ''
		);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (d *SQLiteDirectory) Close() error {
	return d.db.Close()
}

// VerifyCredentials checks an email/password pair against the stored bcrypt
// hash. A missing email and a wrong password are indistinguishable to the
// caller: both return ErrNotFound.
func (d *SQLiteDirectory) VerifyCredentials(ctx context.Context, email, password string) (*Principal, error) {
	var p Principal
	var hash string
	err := d.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, avatar
		FROM principals WHERE email = ?
	`, email).Scan(&p.ID, &p.Name, &p.Email, &hash, &p.Role, &p.Avatar)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying principal: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrNotFound
	}

	return &p, nil
}

// CreatePrincipal adds a new principal record with a bcrypt-hashed password.
func (d *SQLiteDirectory) CreatePrincipal(ctx context.Context, np NewPrincipal) (*Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(np.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	avatar := np.Avatar
	if avatar == "" {
		avatar = defaultAvatar(np.Name)
	}

	p := &Principal{
		ID:     uuid.NewString(),
		Name:   np.Name,
		Email:  np.Email,
		Role:   np.Role,
		Avatar: avatar,
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO principals (id, name, email, password_hash, role, avatar)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Email, string(hash), string(p.Role), p.Avatar)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("inserting principal: %w", err)
	}

	d.logger.Debug("created principal", "id", p.ID, "role", p.Role)
	return p, nil
}

// PrincipalExists reports whether a principal with the given email exists.
func (d *SQLiteDirectory) PrincipalExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM principals WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("counting principals: %w", err)
	}
	return count > 0, nil
}

// GetPrincipal retrieves a principal by ID.
func (d *SQLiteDirectory) GetPrincipal(ctx context.Context, id string) (*Principal, error) {
	var p Principal
	err := d.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, avatar
		FROM principals WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.Avatar)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying principal: %w", err)
	}
	return &p, nil
}

// ListPrincipals returns all principal records ordered by name.
func (d *SQLiteDirectory) ListPrincipals(ctx context.Context) ([]Principal, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, email, role, avatar
		FROM principals ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying principals: %w", err)
	}
	defer rows.Close()

	var result []Principal
	for rows.Next() {
		var p Principal
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.Avatar); err != nil {
			return nil, fmt.Errorf("scanning principal: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// UpdatePrincipal applies a partial update to a principal by ID.
func (d *SQLiteDirectory) UpdatePrincipal(ctx context.Context, id string, upd PrincipalUpdate) (*Principal, error) {
	p, err := d.GetPrincipal(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Email != nil {
		p.Email = *upd.Email
	}
	if upd.Role != nil {
		p.Role = *upd.Role
	}
	if upd.Avatar != nil {
		p.Avatar = *upd.Avatar
	}

	_, err = d.db.ExecContext(ctx, `
		UPDATE principals SET name = ?, email = ?, role = ?, avatar = ? WHERE id = ?
	`, p.Name, p.Email, string(p.Role), p.Avatar, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("updating principal: %w", err)
	}
	return p, nil
}

// DeletePrincipal removes a principal by ID.
func (d *SQLiteDirectory) DeletePrincipal(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM principals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting principal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
// modernc.org/sqlite surfaces constraint failures in the error string without
// a stable sentinel to match with errors.Is.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
