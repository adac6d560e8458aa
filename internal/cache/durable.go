package cache

import (
	"context"
	"database/sql"
	"time"
)

// Row is a durable-tier cache record.
type Row struct {
	Key         string
	Data        []byte
	Category    string
	AssetSymbol string
	ExpiresAt   time.Time
}

// SQLTier persists cache entries in PostgreSQL so that a process
// restart does not immediately re-trigger a storm of upstream calls.
type SQLTier struct {
	db *sql.DB
}

// NewSQLTier creates a durable cache tier over the given database.
func NewSQLTier(db *sql.DB) *SQLTier {
	return &SQLTier{db: db}
}

// EnsureSchema creates the cache table if it does not exist.
func (s *SQLTier) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cache_entries (
			key          TEXT PRIMARY KEY,
			data         TEXT NOT NULL,
			category     TEXT NOT NULL DEFAULT '',
			asset_symbol TEXT NOT NULL DEFAULT '',
			expires_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Upsert inserts or refreshes a cache row, keyed uniquely by key.
func (s *SQLTier) Upsert(ctx context.Context, row Row) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, data, category, asset_symbol, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			category = EXCLUDED.category,
			asset_symbol = EXCLUDED.asset_symbol,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()
	`, row.Key, string(row.Data), row.Category, row.AssetSymbol, row.ExpiresAt)
	return err
}

// FindByKey returns the row for key, or nil when absent.
func (s *SQLTier) FindByKey(ctx context.Context, key string) (*Row, error) {
	var row Row
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT key, data, category, asset_symbol, expires_at
		FROM cache_entries
		WHERE key = $1
	`, key).Scan(&row.Key, &data, &row.Category, &row.AssetSymbol, &row.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	row.Data = []byte(data)
	return &row, nil
}

// Delete removes the row for key.
func (s *SQLTier) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return err
}

// DeleteAll removes every cache row.
func (s *SQLTier) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	return err
}

// DeleteExpired removes rows whose expiry has passed and returns the
// number of rows removed.
func (s *SQLTier) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
