package ir

import "fmt"

// ParseError marks a single file the analyzer could not process. The
// file is skipped and the run continues.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError is fatal: the run aborts before any parallel phase starts.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FixConflictError means a computed fix could not be applied safely,
// typically because the declaration line moved since analysis.
type FixConflictError struct {
	Path   string
	Line   int
	Reason string
}

func (e *FixConflictError) Error() string {
	return fmt.Sprintf("fix conflict at %s:%d: %s", e.Path, e.Line, e.Reason)
}

// IndexInconsistencyError marks a discovered test file that could not
// be attributed to any configured test root. The file is excluded from
// the index and a warning is recorded.
type IndexInconsistencyError struct {
	Path string
}

func (e *IndexInconsistencyError) Error() string {
	return fmt.Sprintf("cannot determine test tier for %s", e.Path)
}
