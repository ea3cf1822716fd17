package store

import (
	"context"
	"time"
)

// LogRun appends one audit row for a pipeline invocation.
func (s *SQLiteStore) LogRun(ctx context.Context, r *CollectRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collect_runs
		 (id, repo_id, platform, owner, repo, since_bound, until_bound, inserted, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RepoID, r.Platform, r.Owner, r.Repo, r.Since, r.Until,
		r.Inserted, r.StartedAt.UTC(), r.Duration.Milliseconds(),
	)
	if err != nil {
		return &StorageError{Op: "run log", Err: err}
	}
	return nil
}

// RecentRuns returns the newest audit rows, most recent first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]CollectRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repo_id, platform, owner, repo, since_bound, until_bound, inserted, started_at, duration_ms
		 FROM collect_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, &StorageError{Op: "run list", Err: err}
	}
	defer rows.Close()

	var runs []CollectRun
	for rows.Next() {
		var r CollectRun
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.RepoID, &r.Platform, &r.Owner, &r.Repo,
			&r.Since, &r.Until, &r.Inserted, &r.StartedAt, &durationMS); err != nil {
			return nil, &StorageError{Op: "run list", Err: err}
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "run list", Err: err}
	}
	return runs, nil
}
