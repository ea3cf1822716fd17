// Package collect fetches raw issue reports from hosted source-control
// trackers.
//
// Three platform variants are supported: GitHub, Gitee, and GitLab. Each
// collector paginates a repository's issue list in creation-time order,
// excludes pull/merge requests, and applies the requested time window with
// whatever filtering the upstream API actually supports — server-side where
// the API has it, client-side where it doesn't.
package collect

import (
	"context"
	"net/http"
	"time"
)

// Platform identifies an issue tracker variant.
type Platform string

const (
	PlatformGitHub Platform = "github"
	PlatformGitee  Platform = "gitee"
	PlatformGitLab Platform = "gitlab"
)

// DefaultRequestTimeout bounds a single page request.
const DefaultRequestTimeout = 10 * time.Second

// DefaultPageSize is the per-page item count requested from upstream.
const DefaultPageSize = 100

// RawIssue is one issue as returned by a platform API, trimmed to the
// fields the pipeline consumes. Immutable once returned by a collector.
type RawIssue struct {
	Platform  Platform
	IssueID   int
	GlobalID  int64 // GitLab only: instance-wide id, distinct from the per-project number
	Title     string
	Body      string
	CreatedAt string // ISO-8601 as returned upstream
	UpdatedAt string
	State     string
	URL       string
	Owner     string
	Repo      string
}

// FetchOptions controls a single FetchRecent call.
type FetchOptions struct {
	State    string // open/closed/all (GitLab: opened/closed/all)
	PageSize int    // 0 = DefaultPageSize
	Since    string // "YYYY-MM-DD" or RFC 3339; empty = no lower bound
	Until    string // same formats; empty = no upper bound
}

// Collector is the per-platform paginated fetch contract.
// Implementations return issues ascending by creation time.
type Collector interface {
	FetchRecent(ctx context.Context, opts FetchOptions) ([]RawIssue, error)
	Platform() Platform
}

// Config holds the construction inputs shared by all collectors.
type Config struct {
	Token     string
	Owner     string
	Repo      string
	ProjectID string // GitLab: explicit project path or numeric id, overrides owner/repo
	BaseURL   string // override for tests; empty = platform default
	Client    *http.Client
}

func (c Config) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: DefaultRequestTimeout}
}

// constructors maps each platform tag to its collector constructor.
// Dispatch happens here, not in call-site branching.
var constructors = map[Platform]func(Config) (Collector, error){
	PlatformGitHub: func(cfg Config) (Collector, error) { return NewGitHub(cfg) },
	PlatformGitee:  func(cfg Config) (Collector, error) { return NewGitee(cfg) },
	PlatformGitLab: func(cfg Config) (Collector, error) { return NewGitLab(cfg) },
}

// New builds the collector for the given platform tag.
func New(platform Platform, cfg Config) (Collector, error) {
	ctor, ok := constructors[platform]
	if !ok {
		return nil, &ConfigError{Msg: "unknown platform " + string(platform) + " (supported: github, gitee, gitlab)"}
	}
	return ctor(cfg)
}

// ParsePlatform validates a platform tag from user input.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if _, ok := constructors[p]; !ok {
		return "", &ConfigError{Msg: "unknown platform " + s + " (supported: github, gitee, gitlab)"}
	}
	return p, nil
}
