// Package extract pulls structured defect fields out of cleaned issue
// text.
//
// Two extractors run side by side: a deterministic rule pass (version
// token, steps-to-reproduce paragraph) and an LLM pass with retry,
// heuristic fallback, and schema repair. Whatever happens upstream, every
// code path hands back a Schema with exactly the six contract fields.
package extract

import (
	"strings"
	"unicode/utf8"
)

// Severity vocabulary. "UnKnow" is the upstream wire spelling — it is part
// of the storage contract, so it stays.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
	SeverityUnknown  = "UnKnow"
)

// maxFieldLen caps every string field after repair, in characters.
const maxFieldLen = 5000

// Schema is the fixed six-field extraction contract. Instances always
// carry exactly these keys regardless of which path produced them.
type Schema struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Version          string   `json:"version"`
	Severity         string   `json:"severity"`
	StepsToReproduce []string `json:"steps_to_reproduce"`
	StackTrace       string   `json:"stack_trace"`
}

// DefaultSchema returns a fresh default instance. Always a new value —
// never a shared template that callers could mutate.
func DefaultSchema() Schema {
	return Schema{
		Severity:         SeverityUnknown,
		StepsToReproduce: []string{},
	}
}

// clampField trims surrounding whitespace and truncates to maxFieldLen
// characters. The cap counts runes, not bytes, so CJK text keeps the same
// allowance as ASCII.
func clampField(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxFieldLen {
		return s
	}
	return strings.TrimSpace(truncateRunes(s, maxFieldLen))
}

// truncateRunes cuts s to at most max runes.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
