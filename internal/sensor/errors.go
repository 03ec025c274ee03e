package sensor

import (
	"errors"
	"fmt"
)

// ErrInsufficientData means a response was structurally incomplete, for
// example a CSV line with fewer fields than queried.
var ErrInsufficientData = errors.New("insufficient data")

// ParseError describes a single field or line that could not be parsed.
// Parsers recover from it locally; it is only ever logged.
type ParseError struct {
	Field string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SourceError reports that a whole source strategy failed. The
// coordinator moves on to the next strategy when it sees one.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
