package collect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func TestGitLabFetchRecentFieldMappingAndFilters(t *testing.T) {
	var gotPath, gotToken string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if gotQuery == nil {
			gotQuery = map[string]string{}
			for k := range r.URL.Query() {
				gotQuery[k] = r.URL.Query().Get(k)
			}
		}
		items := []map[string]any{}
		if page == 1 {
			items = []map[string]any{
				{
					"iid": 7, "id": 99123, "title": "panic in importer",
					"description": "stack below", "state": "opened",
					"created_at": "2024-04-01T09:00:00Z", "web_url": "https://gitlab.com/g/p/-/issues/7",
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	}))
	defer srv.Close()

	c, err := NewGitLab(Config{Owner: "group", Repo: "proj", BaseURL: srv.URL, Token: "pt-1"})
	if err != nil {
		t.Fatal(err)
	}

	issues, err := c.FetchRecent(context.Background(), FetchOptions{
		Since: "2024-04-01",
		Until: "2024-04-30",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}

	got := issues[0]
	if got.IssueID != 7 {
		t.Errorf("IssueID = %d, want iid 7", got.IssueID)
	}
	if got.GlobalID != 99123 {
		t.Errorf("GlobalID = %d, want 99123", got.GlobalID)
	}
	if got.Body != "stack below" {
		t.Errorf("Body = %q, want description field", got.Body)
	}
	if got.URL != "https://gitlab.com/g/p/-/issues/7" {
		t.Errorf("URL = %q", got.URL)
	}

	if !strings.Contains(gotPath, "group%2Fproj") {
		t.Errorf("project path not URL-escaped: %q", gotPath)
	}
	if gotToken != "pt-1" {
		t.Errorf("PRIVATE-TOKEN = %q", gotToken)
	}
	if gotQuery["created_after"] != "2024-04-01T00:00:00Z" {
		t.Errorf("created_after = %q", gotQuery["created_after"])
	}
	if gotQuery["created_before"] != "2024-04-30T00:00:00Z" {
		t.Errorf("created_before = %q", gotQuery["created_before"])
	}
	if gotQuery["order_by"] != "created_at" || gotQuery["sort"] != "asc" {
		t.Errorf("ordering params = %q/%q", gotQuery["order_by"], gotQuery["sort"])
	}
	if gotQuery["state"] != "opened" {
		t.Errorf("default state = %q, want opened", gotQuery["state"])
	}
}

func TestGitLabProjectIDOverridesOwnerRepo(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := NewGitLab(Config{ProjectID: "12345", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.FetchRecent(context.Background(), FetchOptions{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotPath, "/projects/12345/issues") {
		t.Errorf("path = %q, want numeric project id", gotPath)
	}
}

func TestNewGitLabRequiresProject(t *testing.T) {
	_, err := NewGitLab(Config{})
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}
