package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// IsDuplicate reports whether a defect with the composite key already
// exists. Empty keys return false — "not yet checkable" — deferring to
// the insert's own uniqueness enforcement. This check is an optimization
// to skip extraction spend, not the correctness boundary.
func (s *SQLiteStore) IsDuplicate(ctx context.Context, repoID string, issueID int) (bool, error) {
	if repoID == "" || issueID == 0 {
		return false, nil
	}
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM standardized_defect WHERE repo_id = ? AND issue_id = ? LIMIT 1`,
		repoID, issueID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &StorageError{Op: "duplicate check", Err: err}
	}
	return true, nil
}

// InsertDefect persists one record with insert-ignore semantics: a genuine
// new insert returns the generated row id, a composite-key collision
// returns 0 with no error. Missing key halves fail with ErrMissingKey.
func (s *SQLiteStore) InsertDefect(ctx context.Context, d *Defect) (int64, error) {
	if d.RepoID == "" || d.IssueID == 0 {
		return 0, ErrMissingKey
	}

	steps, err := json.Marshal(d.StepsToReproduce)
	if err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}
	recordAt := d.RecordAt
	if recordAt.IsZero() {
		recordAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO standardized_defect
		 (repo_id, issue_id, title, description, version, steps_to_reproduce, severity, stack_trace, url, created_at, record_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RepoID, d.IssueID, d.Title, d.Description, d.Version,
		string(steps), d.Severity, d.StackTrace, d.URL, d.CreatedAt, recordAt,
	)
	if err != nil {
		tx.Rollback()
		return 0, &StorageError{Op: "insert", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, &StorageError{Op: "insert commit", Err: err}
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}
	if rows == 0 {
		// Unique constraint absorbed the insert: duplicate no-op.
		return 0, nil
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}
	d.ID = id
	d.RecordAt = recordAt
	return id, nil
}
