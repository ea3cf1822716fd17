package collect

import (
	"fmt"
	"time"
)

// ParseBound parses a user-supplied time bound. Two formats are accepted
// everywhere in the pipeline: a plain calendar date ("YYYY-MM-DD",
// interpreted as UTC midnight) or a full RFC 3339 timestamp where a
// trailing "Z" means UTC.
func ParseBound(value string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", value, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparsable time bound %q", value)
}

// parseCreatedAt parses an upstream created_at timestamp. All three
// platforms return RFC 3339, GitHub and Gitee with a trailing Z.
func parseCreatedAt(value string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// window holds resolved time bounds for client-side filtering.
// A zero bound means unbounded on that side.
type window struct {
	since time.Time
	until time.Time
}

// resolveWindow parses opts.Since/Until into a window. A bad since is a
// ValidationError just like a bad until: both are caller inputs.
func resolveWindow(opts FetchOptions, page int) (window, error) {
	var w window
	if opts.Since != "" {
		t, err := ParseBound(opts.Since)
		if err != nil {
			return w, &ValidationError{Param: "since", Value: opts.Since, Page: page}
		}
		w.since = t
	}
	if opts.Until != "" {
		t, err := ParseBound(opts.Until)
		if err != nil {
			return w, &ValidationError{Param: "until", Value: opts.Until, Page: page}
		}
		w.until = t
	}
	return w, nil
}

// contains reports whether created lies inside the window (inclusive).
func (w window) contains(created time.Time) bool {
	if !w.since.IsZero() && created.Before(w.since) {
		return false
	}
	if !w.until.IsZero() && created.After(w.until) {
		return false
	}
	return true
}

// afterUpper reports whether created falls past the upper bound. With
// creation-ascending pagination this means no later item can match either.
func (w window) afterUpper(created time.Time) bool {
	return !w.until.IsZero() && created.After(w.until)
}
