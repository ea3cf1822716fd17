package store

import "fmt"

// migrate creates all tables if they don't exist. The schema is small
// enough that idempotent CREATE IF NOT EXISTS bootstrap is the whole
// migration story.
func (s *SQLiteStore) migrate() error {
	statements := []string{
		// Standardized defect records. The composite unique index backs
		// the insert-ignore idempotence guarantee.
		`CREATE TABLE IF NOT EXISTS standardized_defect (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			repo_id            TEXT NOT NULL,
			issue_id           INTEGER NOT NULL,
			title              TEXT,
			description        TEXT,
			version            TEXT,
			steps_to_reproduce TEXT,
			severity           TEXT,
			stack_trace        TEXT,
			url                TEXT,
			created_at         TEXT,
			record_at          DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (repo_id, issue_id)
		)`,

		// Per-platform API credentials. At most one active token per
		// platform is honored.
		`CREATE TABLE IF NOT EXISTS token_config (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			platform  TEXT NOT NULL,
			token     TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,

		// One row per pipeline invocation, for auditing re-runs.
		`CREATE TABLE IF NOT EXISTS collect_runs (
			id          TEXT PRIMARY KEY,
			repo_id     TEXT,
			platform    TEXT,
			owner       TEXT,
			repo        TEXT,
			since_bound TEXT,
			until_bound TEXT,
			inserted    INTEGER,
			started_at  DATETIME,
			duration_ms INTEGER
		)`,

		`CREATE INDEX IF NOT EXISTS idx_defect_repo ON standardized_defect(repo_id)`,
		`CREATE INDEX IF NOT EXISTS idx_token_platform ON token_config(platform, is_active)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}
