// Package sqlite provides an authenticator backed by a SQLite user table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/smazurov/opentaxii-core/internal/auth"
	"github.com/smazurov/opentaxii-core/internal/logging"
	"github.com/smazurov/opentaxii-core/internal/plugin"

	_ "modernc.org/sqlite"
)

// Class is the plugin class name of UserStore.
const Class = "sqlite.UserStore"

func init() {
	plugin.MustRegister(plugin.Default(), Class, Open)
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	is_admin      INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL
)`

// Params configures UserStore.
type Params struct {
	Path        string        `param:"path"`
	BusyTimeout time.Duration `param:"busy_timeout"`
}

// UserStore authenticates against the accounts table. Passwords are stored
// as salted Argon2id hashes.
type UserStore struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at p.Path.
func Open(ctx context.Context, p Params) (*UserStore, error) {
	if p.Path == "" {
		return nil, errors.New("path is required")
	}
	busy := p.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	db, err := sql.Open("sqlite", p.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logging.GetLogger("backends.sqlite").Debug("userstore.opened", "path", p.Path)
	return &UserStore{db: db, path: p.Path}, nil
}

// Close closes the underlying database connection.
func (s *UserStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutAccount creates or replaces an account.
func (s *UserStore) PutAccount(ctx context.Context, username, password string, admin bool) error {
	if username == "" {
		return errors.New("username is required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("put account %s: %w", username, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (username, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			password_hash = excluded.password_hash,
			is_admin = excluded.is_admin`,
		username, hash, admin, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put account %s: %w", username, err)
	}
	return nil
}

// Authenticate implements auth.Authenticator.
func (s *UserStore) Authenticate(ctx context.Context, creds auth.Credentials) (auth.Account, error) {
	var hash string
	var admin bool
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash, is_admin FROM accounts WHERE username = ?`, creds.Username,
	).Scan(&hash, &admin)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return auth.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := verifyPassword(creds.Password, hash)
	if err != nil {
		return auth.Account{}, fmt.Errorf("verify password for %s: %w", creds.Username, err)
	}
	if !ok {
		return auth.Account{}, auth.ErrInvalidCredentials
	}
	return auth.Account{Username: creds.Username, Admin: admin}, nil
}
