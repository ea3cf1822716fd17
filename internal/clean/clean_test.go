package clean

import (
	"strings"
	"testing"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "fenced code block removed",
			input: "before\n```go\npanic(\"boom\")\n```\nafter",
			want:  "before\n\nafter",
		},
		{
			name:  "inline code removed",
			input: "run `npm install` first",
			want:  "run  first",
		},
		{
			name:  "html tags become text with breaks",
			input: "<p>first paragraph</p><p>second paragraph</p>",
			want:  "first paragraph\nsecond paragraph",
		},
		{
			name:  "script contents dropped",
			input: "<p>visible</p><script>alert(1)</script>",
			want:  "visible",
		},
		{
			name:  "entities decoded",
			input: "a &amp; b",
			want:  "a & b",
		},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.input); got != tt.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRemoveNoise(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "tracker url removed",
			input: "see https://github.com/acme/widget/issues/12 for details",
			want:  "see  for details",
		},
		{
			name:  "ssh remote removed",
			input: "clone git@gitlab.com:acme/widget.git and run",
			want:  "clone  and run",
		},
		{
			name:  "mention removed",
			input: "ping @octocat about this",
			want:  "ping  about this",
		},
		{
			name:  "gitlab label and milestone tokens removed",
			input: "tagged ~bug for &v2",
			want:  "tagged  for",
		},
		{
			name:  "emoji removed",
			input: "crashes every time 🚀🔥",
			want:  "crashes every time",
		},
		{
			name:  "control characters removed",
			input: "bad\x00byte\x07here",
			want:  "badbytehere",
		},
		{
			name:  "fullwidth folded to ascii",
			input: "Ｅｒｒｏｒ　４０４",
			want:  "Error 404",
		},
		{
			name:  "cjk punctuation runs collapsed",
			input: "无法启动。。。请修复",
			want:  "无法启动。请修复",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoveNoise(tt.input)
			// Interior double spaces left by removals are collapsed later by
			// Normalize; here we only require the noise itself is gone.
			if strings.TrimSpace(hspaceCollapse(got)) != strings.TrimSpace(hspaceCollapse(tt.want)) {
				t.Errorf("RemoveNoise(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func hspaceCollapse(s string) string { return hspaceRE.ReplaceAllString(s, " ") }

func TestRemoveNoiseDropsOverlongLines(t *testing.T) {
	long := strings.Repeat("x", maxLineLen+1)
	input := "keep this\n" + long + "\nand this"
	got := RemoveNoise(input)
	if strings.Contains(got, long) {
		t.Error("overlong line survived")
	}
	if !strings.Contains(got, "keep this") || !strings.Contains(got, "and this") {
		t.Errorf("short lines lost: %q", got)
	}

	exact := strings.Repeat("y", maxLineLen)
	if !strings.Contains(RemoveNoise(exact), exact) {
		t.Error("line at exactly the limit should be kept")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases",
			input: "The App Crashes",
			want:  "the app crashes",
		},
		{
			name:  "repeated punctuation collapsed and trailing stripped",
			input: "it fails!!! badly",
			want:  "it fails! badly",
		},
		{
			name:  "edge junk trimmed",
			input: "### crash on startup ###",
			want:  "crash on startup",
		},
		{
			name:  "horizontal whitespace collapsed",
			input: "a    b\tc",
			want:  "a b c",
		},
		{
			name:  "paragraph breaks preserved",
			input: "first paragraph\n\nsecond paragraph",
			want:  "first paragraph\n\nsecond paragraph",
		},
		{
			name:  "blank line runs capped at one empty line",
			input: "a\n\n\n\n\nb",
			want:  "a\n\nb",
		},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"The App!!! Crashes...",
		"### heading ###\n\nsteps:\n- one\n- two",
		"多行　文本。。。测试",
		"a    b\n\n\n\nc",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent on %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestAllPipelineOrder(t *testing.T) {
	input := "<p>App Crashes on Save</p>\n```\nstack trace here\n```\nSee https://github.com/a/b/issues/1 and ping @dev!!!"
	got := All(input)

	if strings.Contains(got, "stack trace here") {
		t.Error("fenced code survived the full pass")
	}
	if strings.Contains(got, "github.com") {
		t.Error("tracker URL survived the full pass")
	}
	if strings.Contains(got, "@dev") {
		t.Error("mention survived the full pass")
	}
	if !strings.Contains(got, "app crashes on save") {
		t.Errorf("content lost or not lowercased: %q", got)
	}
	if got != All(got) {
		// The staged pass must be stable for re-cleaned records.
		t.Errorf("All not stable on its own output: %q vs %q", got, All(got))
	}
}
