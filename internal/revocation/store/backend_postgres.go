package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresBackend keeps the mapping as one jsonb row of the kv_store table.
type PostgresBackend struct {
	db  *sql.DB
	key string
}

// NewPostgresBackend stores the mapping under key in kv_store.
func NewPostgresBackend(db *sql.DB, key string) *PostgresBackend {
	return &PostgresBackend{db: db, key: key}
}

func (b *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = $1`, b.key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select kv_store %s: %w", b.key, err)
	}
	return raw, nil
}

func (b *PostgresBackend) Save(ctx context.Context, payload []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, b.key, string(payload))
	if err != nil {
		return fmt.Errorf("upsert kv_store %s: %w", b.key, err)
	}
	return nil
}
