package store

import (
	"context"
	"database/sql"
)

// GetToken returns the active token for a platform, or the empty string
// when none is configured. Absence is not an error: collectors can run
// unauthenticated against public repositories.
func (s *SQLiteStore) GetToken(ctx context.Context, platform string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM token_config WHERE platform = ? AND is_active = 1 LIMIT 1`,
		platform,
	).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", &StorageError{Op: "token lookup", Err: err}
	}
	return token, nil
}

// SetToken stores a platform token, deactivating any previous one so at
// most one active token exists per platform.
func (s *SQLiteStore) SetToken(ctx context.Context, platform, token string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "token update", Err: err}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE token_config SET is_active = 0 WHERE platform = ?`, platform); err != nil {
		tx.Rollback()
		return &StorageError{Op: "token update", Err: err}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO token_config (platform, token, is_active) VALUES (?, ?, 1)`,
		platform, token); err != nil {
		tx.Rollback()
		return &StorageError{Op: "token update", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "token update", Err: err}
	}
	return nil
}
