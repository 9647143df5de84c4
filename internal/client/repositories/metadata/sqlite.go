package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

// GetOrCreate returns the value under key, storing create() first when the
// key is absent. An existing value is never overwritten.
func (r *SQLiteRepository) GetOrCreate(ctx context.Context, key string, create func() []byte) ([]byte, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		key, create(),
	); err != nil {
		return nil, fmt.Errorf("failed to create metadata[%s]: %w", key, err)
	}
	value, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, fmt.Errorf("metadata[%s] missing after insert", key)
	}
	return value, nil
}
