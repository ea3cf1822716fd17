package collect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestGiteeFetchRecentTokenAndWindow(t *testing.T) {
	var tokens []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.URL.Query().Get("access_token"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		items := []map[string]any{}
		if page == 1 {
			items = []map[string]any{
				{"number": 10, "title": "too old", "created_at": "2023-12-01T00:00:00Z"},
				{"number": 11, "title": "in window", "created_at": "2024-03-05T00:00:00Z"},
				{"number": 12, "title": "a PR", "created_at": "2024-03-06T00:00:00Z", "pull_request": map[string]any{}},
				{"number": 13, "title": "too new", "created_at": "2024-09-01T00:00:00Z"},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	}))
	defer srv.Close()

	c, err := NewGitee(Config{Owner: "o", Repo: "r", BaseURL: srv.URL, Token: "gt-1"})
	if err != nil {
		t.Fatal(err)
	}

	// Gitee has no server-side time filters: both bounds are client-side.
	issues, err := c.FetchRecent(context.Background(), FetchOptions{
		Since: "2024-01-01",
		Until: "2024-06-30",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 || issues[0].IssueID != 11 {
		t.Fatalf("got %+v, want only issue 11", issues)
	}
	if issues[0].Platform != PlatformGitee {
		t.Errorf("platform = %q", issues[0].Platform)
	}
	for _, tok := range tokens {
		if tok != "gt-1" {
			t.Errorf("access_token = %q, want gt-1", tok)
		}
	}
}

func TestGiteeFetchRecentNoTokenOmitsParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["access_token"]; ok {
			t.Error("access_token sent without a configured token")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := NewGitee(Config{Owner: "o", Repo: "r", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	issues, err := c.FetchRecent(context.Background(), FetchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 0 {
		t.Fatalf("got %d issues from empty listing", len(issues))
	}
}

func TestGiteeFetchRecentCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := NewGitee(Config{Owner: "o", Repo: "r", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.FetchRecent(ctx, FetchOptions{}); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
