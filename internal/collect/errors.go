package collect

import "fmt"

// ConfigError reports a missing or unresolved repository identifier.
// Fatal: the call cannot succeed until the caller fixes its inputs.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// ValidationError reports a malformed time-bound input, carrying the
// offending parameter and value plus the page being processed when the
// problem surfaced.
type ValidationError struct {
	Param string
	Value string
	Page  int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q (page %d): expected YYYY-MM-DD or RFC 3339 timestamp", e.Param, e.Value, e.Page)
}

// CollectionError reports an upstream tracker API failure with enough
// context to retry the whole run later.
type CollectionError struct {
	Platform Platform
	Page     int
	Status   int // 0 when the request never got a response
	Err      error
}

func (e *CollectionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s API request failed (page %d, status %d): %v", e.Platform, e.Page, e.Status, e.Err)
	}
	return fmt.Sprintf("%s API request failed (page %d): %v", e.Platform, e.Page, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }
