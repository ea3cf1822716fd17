package collect

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultGitLabAPI is the public gitlab.com v4 endpoint.
const DefaultGitLabAPI = "https://gitlab.com/api/v4"

// GitLabCollector fetches project issues from the GitLab v4 API.
//
// GitLab is the only variant with server-side filters on both ends of the
// time window (`created_after` / `created_before`). The project is
// addressed by a URL-escaped "owner/repo" path or an explicit project id,
// the per-project issue number lives in `iid`, and the instance-wide `id`
// is carried separately. GitLab keeps merge requests out of the issues
// endpoint, so no client-side exclusion is needed.
type GitLabCollector struct {
	token       string
	owner       string
	repo        string
	projectPath string // URL-escaped, ready to interpolate
	baseURL     string
	client      *http.Client
}

// NewGitLab builds a GitLab collector. Either owner+repo or an explicit
// project id must be provided.
func NewGitLab(cfg Config) (*GitLabCollector, error) {
	path := cfg.ProjectID
	if path == "" {
		if cfg.Owner == "" || cfg.Repo == "" {
			return nil, &ConfigError{Msg: "gitlab collector requires owner and repo, or a project id"}
		}
		path = cfg.Owner + "/" + cfg.Repo
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultGitLabAPI
	}
	return &GitLabCollector{
		token:       cfg.Token,
		owner:       cfg.Owner,
		repo:        cfg.Repo,
		projectPath: url.PathEscape(path),
		baseURL:     base,
		client:      cfg.httpClient(),
	}, nil
}

func (c *GitLabCollector) Platform() Platform { return PlatformGitLab }

type gitlabIssue struct {
	IID         int    `json:"iid"`
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	WebURL      string `json:"web_url"`
}

// FetchRecent pages through the project's issues ascending by creation
// time until upstream returns an empty page.
func (c *GitLabCollector) FetchRecent(ctx context.Context, opts FetchOptions) ([]RawIssue, error) {
	page := 1
	w, err := resolveWindow(opts, page)
	if err != nil {
		return nil, err
	}

	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = DefaultPageSize // GitLab caps per_page at 100
	}
	state := opts.State
	if state == "" {
		state = "opened"
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("PRIVATE-TOKEN", c.token)
	}

	endpoint := c.baseURL + "/projects/" + c.projectPath + "/issues"
	var issues []RawIssue

	for {
		query := url.Values{
			"state":    {state},
			"per_page": {strconv.Itoa(pageSize)},
			"page":     {strconv.Itoa(page)},
			"order_by": {"created_at"},
			"sort":     {"asc"},
		}
		// GitLab wants a trailing Z, not a numeric offset.
		if !w.since.IsZero() {
			query.Set("created_after", w.since.UTC().Format("2006-01-02T15:04:05Z"))
		}
		if !w.until.IsZero() {
			query.Set("created_before", w.until.UTC().Format("2006-01-02T15:04:05Z"))
		}

		var pageItems []gitlabIssue
		if err := getJSON(ctx, c.client, PlatformGitLab, page, endpoint, query, header, &pageItems); err != nil {
			return nil, err
		}
		if len(pageItems) == 0 {
			break
		}

		for _, item := range pageItems {
			issues = append(issues, RawIssue{
				Platform:  PlatformGitLab,
				IssueID:   item.IID,
				GlobalID:  item.ID,
				Title:     item.Title,
				Body:      item.Description,
				CreatedAt: item.CreatedAt,
				UpdatedAt: item.UpdatedAt,
				State:     item.State,
				URL:       item.WebURL,
				Owner:     c.owner,
				Repo:      c.repo,
			})
		}
		page++
	}
	return issues, nil
}
