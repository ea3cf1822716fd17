package pipeline

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/defectflow/defectflow/internal/clean"
	"github.com/defectflow/defectflow/internal/collect"
	"github.com/defectflow/defectflow/internal/extract"
	"github.com/defectflow/defectflow/internal/store"
)

// Extractor is the model-backed extraction contract the runner depends
// on. It never fails: degraded output is still a valid schema.
type Extractor interface {
	Extract(ctx context.Context, text string) extract.Schema
}

// Params describes one collection run.
type Params struct {
	Platform collect.Platform
	Owner    string
	Repo     string
	RepoID   string // repository identifier used in the composite key
	State    string
	Since    string
	Until    string
	PageSize int
}

// Runner wires a collector, the extractors, and the storage gateway into
// one batch pass over a repository's issues.
type Runner struct {
	Store     store.Store
	Extractor Extractor

	// NewCollector builds the platform collector. Nil means collect.New.
	// Injectable so tests can substitute a stub.
	NewCollector func(collect.Platform, collect.Config) (collect.Collector, error)

	// Token is used when the token store has no entry for the platform
	// (e.g. supplied via config or environment).
	Token string

	// Workers bounds concurrent issue processing. Values <= 1 keep the
	// reference sequential behavior. Collector pagination is never
	// parallelized: page cursors are ordered state.
	Workers int

	Logger *log.Logger
}

// Run executes one collection pass and returns the number of genuinely
// new records persisted. Duplicate issues (by composite key) count zero.
func (r *Runner) Run(ctx context.Context, p Params) (int, error) {
	if p.RepoID == "" {
		return 0, &collect.ConfigError{Msg: "repo_id is required"}
	}

	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	newCollector := r.NewCollector
	if newCollector == nil {
		newCollector = collect.New
	}

	started := time.Now()

	token, err := r.Store.GetToken(ctx, string(p.Platform))
	if err != nil {
		return 0, err
	}
	if token == "" {
		token = r.Token
	}

	coll, err := newCollector(p.Platform, collect.Config{
		Token: token,
		Owner: p.Owner,
		Repo:  p.Repo,
	})
	if err != nil {
		return 0, err
	}

	issues, err := coll.FetchRecent(ctx, collect.FetchOptions{
		State:    p.State,
		PageSize: p.PageSize,
		Since:    p.Since,
		Until:    p.Until,
	})
	if err != nil {
		return 0, err
	}

	inserted, err := r.processAll(ctx, p.RepoID, issues, logger)

	run := &store.CollectRun{
		ID:        uuid.NewString(),
		RepoID:    p.RepoID,
		Platform:  string(p.Platform),
		Owner:     p.Owner,
		Repo:      p.Repo,
		Since:     p.Since,
		Until:     p.Until,
		Inserted:  inserted,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if logErr := r.Store.LogRun(ctx, run); logErr != nil {
		logger.Printf("recording run %s: %v", run.ID, logErr)
	}

	return inserted, err
}

// processAll walks the issue batch sequentially or under a bounded worker
// pool. The insert's unique constraint stays the sole authority on
// duplicates, so racing workers are safe: one insert wins, the rest
// observe a no-op.
func (r *Runner) processAll(ctx context.Context, repoID string, issues []collect.RawIssue, logger *log.Logger) (int, error) {
	if r.Workers <= 1 {
		inserted := 0
		for _, issue := range issues {
			ok, err := r.processIssue(ctx, repoID, issue, logger)
			if err != nil {
				return inserted, err
			}
			if ok {
				inserted++
			}
		}
		return inserted, nil
	}

	var inserted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)
	for _, issue := range issues {
		g.Go(func() error {
			ok, err := r.processIssue(gctx, repoID, issue, logger)
			if err != nil {
				return err
			}
			if ok {
				inserted.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(inserted.Load()), err
	}
	return int(inserted.Load()), nil
}

// processIssue runs one issue through clean → extract → merge → persist.
// Returns true when a genuinely new record was inserted. Per-issue insert
// failures are logged and skipped; connection-level failures abort the
// batch.
func (r *Runner) processIssue(ctx context.Context, repoID string, issue collect.RawIssue, logger *log.Logger) (bool, error) {
	dup, err := r.Store.IsDuplicate(ctx, repoID, issue.IssueID)
	if err != nil {
		if store.IsConnectionError(err) {
			return false, err
		}
		// Pre-check is an optimization only; the insert decides.
		logger.Printf("duplicate check for issue %d: %v", issue.IssueID, err)
	}
	if dup {
		return false, nil
	}

	cleaned := clean.All(issue.Body)
	ruleVersion := extract.ExtractVersion(cleaned)
	ruleSteps := extract.ExtractSteps(cleaned)
	llmRes := r.Extractor.Extract(ctx, cleaned)

	defect := Merge(llmRes, ruleVersion, ruleSteps, issue, cleaned)
	defect.RepoID = repoID

	id, err := r.Store.InsertDefect(ctx, defect)
	if err != nil {
		if store.IsConnectionError(err) || errors.Is(err, context.Canceled) {
			return false, err
		}
		logger.Printf("inserting issue %d: %v", issue.IssueID, err)
		return false, nil
	}
	return id > 0, nil
}
