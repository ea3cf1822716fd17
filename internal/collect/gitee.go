package collect

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// DefaultGiteeAPI is the public Gitee v5 endpoint.
const DefaultGiteeAPI = "https://gitee.com/api/v5"

// giteePageInterval spaces out page requests. Gitee rate-limits far more
// aggressively than the other two platforms.
const giteePageInterval = 500 * time.Millisecond

// GiteeCollector fetches repository issues from the Gitee v5 API.
//
// Gitee has no server-side time filters at all, so both bounds are applied
// client-side. The token travels as an `access_token` query parameter
// rather than a header. A pacing delay runs between page requests.
type GiteeCollector struct {
	token   string
	owner   string
	repo    string
	baseURL string
	client  *http.Client
	pacer   *rate.Limiter
}

// NewGitee builds a Gitee collector. Owner and repo are required.
func NewGitee(cfg Config) (*GiteeCollector, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, &ConfigError{Msg: "gitee collector requires owner and repo"}
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultGiteeAPI
	}
	return &GiteeCollector{
		token:   cfg.Token,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		baseURL: base,
		client:  cfg.httpClient(),
		pacer:   rate.NewLimiter(rate.Every(giteePageInterval), 1),
	}, nil
}

func (c *GiteeCollector) Platform() Platform { return PlatformGitee }

type giteeIssue struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
	HTMLURL     string    `json:"html_url"`
	PullRequest *struct{} `json:"pull_request"`
}

// FetchRecent pages through the repository's issues ascending by creation
// time until upstream returns an empty page, pacing between pages.
func (c *GiteeCollector) FetchRecent(ctx context.Context, opts FetchOptions) ([]RawIssue, error) {
	page := 1
	w, err := resolveWindow(opts, page)
	if err != nil {
		return nil, err
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	state := opts.State
	if state == "" {
		state = "open"
	}

	endpoint := c.baseURL + "/repos/" + c.owner + "/" + c.repo + "/issues"
	var issues []RawIssue

	for {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, &CollectionError{Platform: PlatformGitee, Page: page, Err: err}
		}

		query := url.Values{
			"state":     {state},
			"per_page":  {strconv.Itoa(pageSize)},
			"page":      {strconv.Itoa(page)},
			"sort":      {"created"},
			"direction": {"asc"},
		}
		if c.token != "" {
			query.Set("access_token", c.token)
		}

		var pageItems []giteeIssue
		if err := getJSON(ctx, c.client, PlatformGitee, page, endpoint, query, nil, &pageItems); err != nil {
			return nil, err
		}
		if len(pageItems) == 0 {
			break
		}

		for _, item := range pageItems {
			if item.PullRequest != nil {
				continue
			}
			created, ok := parseCreatedAt(item.CreatedAt)
			if !ok || !w.contains(created) {
				continue
			}
			issues = append(issues, RawIssue{
				Platform:  PlatformGitee,
				IssueID:   item.Number,
				Title:     item.Title,
				Body:      item.Body,
				CreatedAt: item.CreatedAt,
				UpdatedAt: item.UpdatedAt,
				State:     item.State,
				URL:       item.HTMLURL,
				Owner:     c.owner,
				Repo:      c.repo,
			})
		}
		page++
	}
	return issues, nil
}
