package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gomate/internal/repository"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store is a PostgreSQL implementation of repository.Store.
// Every key is a row in the kv_store table.
type Store struct {
	q Querier
}

// NewStore creates a new PostgreSQL store.
func NewStore(db *sql.DB) *Store {
	return &Store{q: db}
}

// NewStoreWithTx creates a store using a transaction.
func NewStoreWithTx(tx *sql.Tx) *Store {
	return &Store{q: tx}
}

// EnsureSchema creates the kv_store table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := s.q.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%w: create kv_store: %v", repository.ErrStorageIO, err)
	}
	return nil
}

// GetItem returns the value stored under key.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM kv_store WHERE key = $1`

	var value string
	err := s.q.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: get %s: %v", repository.ErrStorageIO, key, err)
	}

	return value, true, nil
}

// SetItem upserts value under key.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := s.q.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%w: set %s: %v", repository.ErrStorageIO, key, err)
	}
	return nil
}

// RemoveItem deletes key.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", repository.ErrStorageIO, key, err)
	}
	return nil
}

// GetAllKeys lists every stored key.
func (s *Store) GetAllKeys(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT key FROM kv_store ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("%w: list keys: %v", repository.ErrStorageIO, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: scan key: %v", repository.ErrStorageIO, err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list keys: %v", repository.ErrStorageIO, err)
	}
	return keys, nil
}

// Clear removes every key.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM kv_store`); err != nil {
		return fmt.Errorf("%w: clear: %v", repository.ErrStorageIO, err)
	}
	return nil
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)
