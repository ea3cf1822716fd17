package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/defectflow/defectflow/internal/llm"
)

// CJKRatioThreshold is the character-density cutoff for classifying input
// as Chinese. Named rather than inlined so it stays testable and tunable.
const CJKRatioThreshold = 0.2

// fallbackTitleLen caps the heuristic fallback title.
const fallbackTitleLen = 200

// fallbackDescLines is how many lines after the title feed the heuristic
// fallback description.
const fallbackDescLines = 4

// modelTemperature keeps extraction output stable across runs.
const modelTemperature = 0.1

// LLMExtractor runs model-backed field extraction with retry, heuristic
// fallback, and schema repair. Extract never returns an error: every
// failure mode degrades to a valid Schema.
type LLMExtractor struct {
	client llm.Client
	retry  llm.RetryPolicy
	logger *log.Logger
}

// NewLLMExtractor builds an extractor over the given completion client.
func NewLLMExtractor(client llm.Client, retry llm.RetryPolicy, logger *log.Logger) *LLMExtractor {
	if logger == nil {
		logger = log.Default()
	}
	return &LLMExtractor{client: client, retry: retry, logger: logger}
}

// DetectLanguage classifies text as "zh" or "en" by CJK character density:
// above CJKRatioThreshold of non-whitespace characters means "zh". Blank
// input defaults to "zh".
func DetectLanguage(text string) string {
	var cjk, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r >= 0x4E00 && r <= 0x9FFF {
			cjk++
		}
	}
	if total == 0 {
		return "zh"
	}
	if float64(cjk)/float64(total) > CJKRatioThreshold {
		return "zh"
	}
	return "en"
}

// Extract runs the full extraction state machine: detect language, build
// the prompt, call the model under the retry policy, parse, validate.
// JSON parse failures fall back to a heuristic fill from the input text;
// any other failure returns the default schema. It never errors.
func (e *LLMExtractor) Extract(ctx context.Context, text string) Schema {
	if strings.TrimSpace(text) == "" {
		return DefaultSchema()
	}

	lang := DetectLanguage(text)
	system, template := promptFor(lang)
	prompt := fmt.Sprintf(template, text)

	raw, err := e.retry.Do(ctx, func() (string, error) {
		return e.client.Complete(ctx, llm.Request{
			System:      system,
			Prompt:      prompt,
			Temperature: modelTemperature,
			JSONFormat:  true,
		})
	})
	if err != nil {
		e.logger.Printf("llm extraction failed, returning default schema: %v", err)
		return DefaultSchema()
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		e.logger.Printf("llm returned invalid JSON, using heuristic fallback: %v", err)
		return FallbackSchema(text)
	}
	return Repair(parsed)
}

// FallbackSchema builds a schema from the input text alone: the first
// non-blank line becomes the title, the next few become the description.
func FallbackSchema(text string) Schema {
	s := DefaultSchema()
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) == 0 {
		return s
	}
	s.Title = truncateRunes(lines[0], fallbackTitleLen)
	rest := lines[1:]
	if len(rest) > fallbackDescLines {
		rest = rest[:fallbackDescLines]
	}
	s.Description = strings.Join(rest, " ")
	return s
}

// Repair coerces a parsed model response into the fixed schema: missing
// keys take the default value, non-sequence steps are coerced into a
// single-element sequence (or emptied), and every string is clamped.
func Repair(parsed map[string]any) Schema {
	s := DefaultSchema()
	s.Title = clampField(stringField(parsed, "title", s.Title))
	s.Description = clampField(stringField(parsed, "description", s.Description))
	s.Version = clampField(stringField(parsed, "version", s.Version))
	s.Severity = clampField(stringField(parsed, "severity", s.Severity))
	s.StackTrace = clampField(stringField(parsed, "stack_trace", s.StackTrace))
	s.StepsToReproduce = stepsField(parsed["steps_to_reproduce"])
	return s
}

// stringField reads a string key, stringifying scalar mismatches and
// falling back to def when absent or empty.
func stringField(parsed map[string]any, key, def string) string {
	v, ok := parsed[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return def
		}
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// stepsField coerces a steps_to_reproduce value into a string sequence.
func stepsField(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []any:
		steps := make([]string, 0, len(t))
		for _, item := range t {
			s := clampField(fmt.Sprintf("%v", item))
			if s != "" {
				steps = append(steps, s)
			}
		}
		return steps
	case []string:
		return t
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}
		}
		return []string{clampField(t)}
	default:
		return []string{clampField(fmt.Sprintf("%v", t))}
	}
}
