package kb

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no entry has the requested identifier.
var ErrNotFound = errors.New("agent not found")

// LoadError reports a missing, unreadable or malformed knowledge base
// document. Index is the zero-based entry position, or -1 for document level
// problems.
type LoadError struct {
	Path   string
	Index  int
	Field  string
	Reason string
	Err    error
}

// Error implements error.
func (e *LoadError) Error() string {
	msg := "kb load"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Index >= 0 {
		msg += fmt.Sprintf(": entry %d", e.Index)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause (e.g. fs.ErrNotExist).
func (e *LoadError) Unwrap() error { return e.Err }

// ConfigError reports that no fallback agent could be resolved.
type ConfigError struct {
	Reason string
}

// Error implements error.
func (e *ConfigError) Error() string { return "kb config: " + e.Reason }
