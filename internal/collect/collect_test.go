package collect

import (
	"errors"
	"testing"
)

func TestNewDispatch(t *testing.T) {
	tests := []struct {
		platform Platform
		cfg      Config
	}{
		{PlatformGitHub, Config{Owner: "o", Repo: "r"}},
		{PlatformGitee, Config{Owner: "o", Repo: "r"}},
		{PlatformGitLab, Config{Owner: "o", Repo: "r"}},
	}
	for _, tt := range tests {
		c, err := New(tt.platform, tt.cfg)
		if err != nil {
			t.Fatalf("New(%s): %v", tt.platform, err)
		}
		if c.Platform() != tt.platform {
			t.Errorf("Platform() = %q, want %q", c.Platform(), tt.platform)
		}
	}
}

func TestNewUnknownPlatform(t *testing.T) {
	_, err := New("bitbucket", Config{Owner: "o", Repo: "r"})
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestParsePlatform(t *testing.T) {
	for _, valid := range []string{"github", "gitee", "gitlab"} {
		if _, err := ParsePlatform(valid); err != nil {
			t.Errorf("ParsePlatform(%q): %v", valid, err)
		}
	}
	if _, err := ParsePlatform("GitHub"); err == nil {
		t.Error("platform tags are case-sensitive lowercase")
	}
	if _, err := ParsePlatform(""); err == nil {
		t.Error("empty platform should be rejected")
	}
}
