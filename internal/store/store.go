// Package store provides the SQLite storage gateway for the pipeline.
//
// All persisted state lives in a single SQLite database file:
// - standardized defect records, unique over (repo_id, issue_id)
// - per-platform API tokens
// - a run audit log
//
// Inserts use INSERT OR IGNORE so a re-run over the same issues is a
// silent no-op; the unique index, not the duplicate pre-check, is the
// authority on "already persisted".
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.defectflow/defects.db"

// Defect is one persisted standardized defect record.
type Defect struct {
	ID               int64
	RepoID           string
	IssueID          int
	Title            string
	Description      string
	Version          string
	StepsToReproduce []string // serialized as JSON text in the column
	Severity         string
	StackTrace       string
	URL              string
	CreatedAt        string // original issue creation time, as collected
	RecordAt         time.Time
}

// CollectRun is one audit row per pipeline invocation.
type CollectRun struct {
	ID        string // uuid
	RepoID    string
	Platform  string
	Owner     string
	Repo      string
	Since     string
	Until     string
	Inserted  int
	StartedAt time.Time
	Duration  time.Duration
}

// Store is the gateway contract the pipeline consumes.
type Store interface {
	// Tokens
	GetToken(ctx context.Context, platform string) (string, error)
	SetToken(ctx context.Context, platform, token string) error

	// Defects
	IsDuplicate(ctx context.Context, repoID string, issueID int) (bool, error)
	InsertDefect(ctx context.Context, d *Defect) (int64, error)

	// Audit
	LogRun(ctx context.Context, r *CollectRun) error

	Close() error
}

// StorageError wraps a connection or statement failure with the operation
// that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// ErrMissingKey reports an insert attempted without both composite key
// halves. This is caller misuse, not a storage failure.
var ErrMissingKey = errors.New("repo_id and issue_id are required")

// IsConnectionError reports whether err looks like a dead connection
// rather than a per-statement failure. The runner aborts the whole batch
// on these instead of skipping one issue.
func IsConnectionError(err error) bool {
	return errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone)
}

// SQLiteStore implements Store on a single SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// Config holds construction inputs for NewStore.
type Config struct {
	DBPath string // ":memory:" for tests
}

// NewStore opens (creating if needed) the database and runs migrations.
func NewStore(cfg Config) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: cfg.DBPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
