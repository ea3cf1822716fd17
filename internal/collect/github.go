package collect

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultGitHubAPI is the public GitHub REST v3 endpoint.
const DefaultGitHubAPI = "https://api.github.com"

// GitHubCollector fetches repository issues from the GitHub REST API.
//
// GitHub supports a server-side lower bound (the `since` query parameter);
// the upper bound is applied client-side by comparing parsed creation
// timestamps. Pull requests arrive mixed into the issues listing and are
// excluded by the presence of their `pull_request` key.
type GitHubCollector struct {
	token   string
	owner   string
	repo    string
	baseURL string
	client  *http.Client
}

// NewGitHub builds a GitHub collector. Owner and repo are required.
func NewGitHub(cfg Config) (*GitHubCollector, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, &ConfigError{Msg: "github collector requires owner and repo"}
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultGitHubAPI
	}
	return &GitHubCollector{
		token:   cfg.Token,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		baseURL: base,
		client:  cfg.httpClient(),
	}, nil
}

func (c *GitHubCollector) Platform() Platform { return PlatformGitHub }

// githubIssue is the subset of the GitHub issue payload the pipeline reads.
type githubIssue struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
	HTMLURL     string    `json:"html_url"`
	PullRequest *struct{} `json:"pull_request"` // non-nil marks the item as a PR
}

// FetchRecent pages through the repository's issues ascending by creation
// time until upstream returns an empty page.
func (c *GitHubCollector) FetchRecent(ctx context.Context, opts FetchOptions) ([]RawIssue, error) {
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

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "token "+c.token)
	}

	endpoint := c.baseURL + "/repos/" + c.owner + "/" + c.repo + "/issues"
	var issues []RawIssue

	for {
		query := url.Values{
			"state":     {state},
			"per_page":  {strconv.Itoa(pageSize)},
			"page":      {strconv.Itoa(page)},
			"sort":      {"created"},
			"direction": {"asc"},
		}
		// Lower bound is handled upstream; GitHub has no created-before filter.
		if !w.since.IsZero() {
			query.Set("since", w.since.UTC().Format("2006-01-02T15:04:05Z"))
		}

		var pageItems []githubIssue
		if err := getJSON(ctx, c.client, PlatformGitHub, page, endpoint, query, header, &pageItems); err != nil {
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
				Platform:  PlatformGitHub,
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
