package extract

import (
	"reflect"
	"testing"
)

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain semver", "crashes since 2.5.1 on linux", "2.5.1"},
		{"v prefix", "regression in v1.14.0", "v1.14.0"},
		{"two components", "seen on 3.2", "3.2"},
		{"four components", "build 10.0.0.3 affected", "10.0.0.3"},
		{"first match wins", "broke between 1.2.3 and 1.3.0", "1.2.3"},
		{"no version", "the button does nothing", ""},
		{"bare integer is not a version", "happens 3 times", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractVersion(tt.input); got != tt.want {
				t.Errorf("ExtractVersion(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractSteps(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "bulleted steps under heading",
			input: "the app crashes\n\nsteps to reproduce:\n- open the editor\n- paste a large file\n- hit save",
			want:  []string{"steps to reproduce:", "open the editor", "paste a large file", "hit save"},
		},
		{
			name:  "reproduc stem matches reproduction",
			input: "intro\n\nreproduction:\n1. do the thing",
			want:  []string{"reproduction:", "1. do the thing"},
		},
		{
			name:  "first matching paragraph wins",
			input: "how to reproduce:\nstep one\n\nreproduce again:\nother steps",
			want:  []string{"how to reproduce:", "step one"},
		},
		{
			name:  "no matching paragraph",
			input: "it just breaks\n\nno idea why",
			want:  []string{},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSteps(tt.input)
			if got == nil {
				t.Fatal("ExtractSteps returned nil; callers rely on a non-nil slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractSteps(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}
