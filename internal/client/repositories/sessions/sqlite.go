package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

// saltSize is the length of the per-database key-derivation salt.
const saltSize = 32

// SQLiteStore keeps one scope's record in the sessions table, sealed with
// AES-GCM so the bearer token is not readable from the file.
type SQLiteStore struct {
	db     dbx.DBTX
	sealer *cryptox.Sealer
	scope  Scope
}

func NewSQLiteStore(db dbx.DBTX, sealer *cryptox.Sealer, scope Scope) *SQLiteStore {
	return &SQLiteStore{db: db, sealer: sealer, scope: scope}
}

// OpenSealer derives the sealing key from secret and the database's salt,
// creating the salt on first use.
func OpenSealer(ctx context.Context, meta metadata.Repository, secret []byte) (*cryptox.Sealer, error) {
	salt, err := meta.GetOrCreate(ctx, common.StorageSaltKey, func() []byte {
		return common.GenerateRandByteArray(saltSize)
	})
	if err != nil {
		return nil, fmt.Errorf("storage salt: %w", err)
	}
	return cryptox.NewSealer(secret, salt)
}

func (r *SQLiteStore) Load(ctx context.Context) (*models.Session, error) {
	var ciphertext, nonce []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT ciphertext, nonce FROM sessions WHERE scope = ?`, string(r.scope),
	).Scan(&ciphertext, &nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session[%s]: %w", r.scope, err)
	}

	var s models.Session
	if err := r.sealer.Open(ciphertext, nonce, &s); err != nil {
		return nil, fmt.Errorf("session[%s]: %w: %w", r.scope, ErrCorrupt, err)
	}
	return &s, nil
}

func (r *SQLiteStore) Save(ctx context.Context, s *models.Session) error {
	ciphertext, nonce, err := r.sealer.Seal(s)
	if err != nil {
		return fmt.Errorf("failed to seal session[%s]: %w", r.scope, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (scope, ciphertext, nonce, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(scope) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			nonce = excluded.nonce,
			updated_at = excluded.updated_at
	`, string(r.scope), ciphertext, nonce)
	if err != nil {
		return fmt.Errorf("failed to save session[%s]: %w", r.scope, err)
	}
	return nil
}

func (r *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE scope = ?`, string(r.scope)); err != nil {
		return fmt.Errorf("failed to clear session[%s]: %w", r.scope, err)
	}
	return nil
}
