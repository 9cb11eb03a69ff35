package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStore implements Store on the kv table. A positive quota caps the
// total bytes of keys plus values, mimicking a browser storage quota.
type SQLiteStore struct {
	db    *sql.DB
	quota int64
}

func NewSQLiteStore(db *sql.DB, quotaBytes int64) *SQLiteStore {
	return &SQLiteStore{db: db, quota: quotaBytes}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv get: %w", err)
	}
	return string(value), true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if s.quota > 0 {
			row := tx.QueryRowContext(ctx, `
				SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(value)), 0)
				FROM kv
				WHERE key <> ?
			`, key)
			var used int64
			if err := row.Scan(&used); err != nil {
				return fmt.Errorf("kv usage: %w", err)
			}
			if used+int64(len(key)+len(value)) > s.quota {
				return ErrQuotaExceeded
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, []byte(value), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("kv set: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("kv keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("kv scan: %w", err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv rows: %w", err)
	}
	return out, nil
}

// Usage returns the bytes currently counted against the quota.
func (s *SQLiteStore) Usage(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(value)), 0) FROM kv`)
	var used int64
	if err := row.Scan(&used); err != nil {
		return 0, fmt.Errorf("kv usage: %w", err)
	}
	return used, nil
}
