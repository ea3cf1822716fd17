package extract

import (
	"regexp"
	"strings"
)

// versionRE matches a semantic-version-like token: v2.5.1, 1.2, 10.0.0.3.
var versionRE = regexp.MustCompile(`(?i)\b(v?\d+\.\d+(?:\.\d+)*)\b`)

// stepsHeadingRE matches paragraphs that announce reproduction steps.
// "reproduc" deliberately covers reproduce/reproduction/reproducible.
var stepsHeadingRE = regexp.MustCompile(`(?i)steps to reproduce|reproduc|how to reproduce`)

// paragraphSplitRE splits text into blank-line-delimited paragraphs.
var paragraphSplitRE = regexp.MustCompile(`\n{2,}`)

// ExtractVersion returns the first version-like token in the text, or the
// empty string when none is present. Deterministic, never fails.
func ExtractVersion(text string) string {
	m := versionRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractSteps returns the line-by-line content of the first paragraph
// whose text matches a reproduction-related keyword, with leading bullet
// and punctuation characters stripped. Empty slice when no paragraph
// matches.
func ExtractSteps(text string) []string {
	for _, para := range paragraphSplitRE.Split(text, -1) {
		if !stepsHeadingRE.MatchString(para) {
			continue
		}
		steps := []string{}
		for _, line := range strings.Split(para, "\n") {
			line = strings.Trim(line, "-.*) \t")
			if line != "" {
				steps = append(steps, line)
			}
		}
		return steps
	}
	return []string{}
}
