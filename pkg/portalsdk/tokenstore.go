package portalsdk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// TokenStore holds the current access token. Writes overwrite; there is no
// expiry check on read.
type TokenStore interface {
	Save(ctx context.Context, token string) error
	Get(ctx context.Context) (token string, ok bool, err error)
	Clear(ctx context.Context) error
}

const accessTokenKey = "accessToken"

// SQLiteTokenStore persists the token in a local SQLite file so it survives
// restarts.
type SQLiteTokenStore struct {
	db *sqlx.DB
}

// OpenSQLiteTokenStore opens (or creates) the database at path.
func OpenSQLiteTokenStore(ctx context.Context, path string) (*SQLiteTokenStore, error) {
	db, err := sqlx.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tokens (
			id       TEXT PRIMARY KEY,
			value    TEXT NOT NULL,
			saved_at TIMESTAMP NOT NULL
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tokens table: %w", err)
	}
	return &SQLiteTokenStore{db: db}, nil
}

func (s *SQLiteTokenStore) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (id, value, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value, saved_at = excluded.saved_at`,
		accessTokenKey, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save token[%s]: %w", accessTokenKey, err)
	}
	return nil
}

func (s *SQLiteTokenStore) Get(ctx context.Context) (string, bool, error) {
	var v string
	err := s.db.GetContext(ctx, &v, `SELECT value FROM tokens WHERE id = ?`, accessTokenKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get token[%s]: %w", accessTokenKey, err)
	}
	return v, true, nil
}

func (s *SQLiteTokenStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, accessTokenKey); err != nil {
		return fmt.Errorf("failed to clear token[%s]: %w", accessTokenKey, err)
	}
	return nil
}

func (s *SQLiteTokenStore) Close() error { return s.db.Close() }

// MemoryTokenStore keeps the token in process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
	set   bool
}

func (m *MemoryTokenStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token, m.set = token, true
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenStore) Get(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.set, nil
}

func (m *MemoryTokenStore) Clear(context.Context) error {
	m.mu.Lock()
	m.token, m.set = "", false
	m.mu.Unlock()
	return nil
}
