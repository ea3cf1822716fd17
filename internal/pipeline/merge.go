// Package pipeline orchestrates one collection run: fetch raw issues,
// clean, extract (rules + LLM), merge, and persist idempotently.
package pipeline

import (
	"unicode/utf8"

	"github.com/defectflow/defectflow/internal/collect"
	"github.com/defectflow/defectflow/internal/extract"
	"github.com/defectflow/defectflow/internal/store"
)

// descriptionLimit caps the cleaned-text fallback description, in characters.
const descriptionLimit = 2000

// Merge reconciles the LLM result, the rule results, and the original
// issue into one record. Precedence is LLM > rule/original > hard
// default. The repository identifier is attached by the runner, not here.
func Merge(llmRes extract.Schema, ruleVersion string, ruleSteps []string, issue collect.RawIssue, cleaned string) *store.Defect {
	d := &store.Defect{
		IssueID:   issue.IssueID,
		URL:       issue.URL,
		CreatedAt: issue.CreatedAt,
	}

	d.Title = llmRes.Title
	if d.Title == "" {
		d.Title = issue.Title
	}

	d.Description = llmRes.Description
	if d.Description == "" {
		d.Description = truncate(cleaned, descriptionLimit)
	}

	d.Version = llmRes.Version
	if d.Version == "" {
		d.Version = ruleVersion
	}

	d.StepsToReproduce = llmRes.StepsToReproduce
	if len(d.StepsToReproduce) == 0 {
		d.StepsToReproduce = ruleSteps
	}
	if d.StepsToReproduce == nil {
		d.StepsToReproduce = []string{}
	}

	d.Severity = llmRes.Severity
	if d.Severity == "" {
		d.Severity = extract.SeverityUnknown
	}

	d.StackTrace = llmRes.StackTrace
	return d
}

// truncate cuts s to at most max runes. The limit counts characters so
// Chinese reports keep the same allowance as English ones.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
