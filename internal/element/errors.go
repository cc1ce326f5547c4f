package element

import (
	"errors"
	"fmt"
)

// Sentinel errors for element parsing.
var (
	// ErrUnknownType is returned for a type name outside the five variants.
	ErrUnknownType = errors.New("unknown element type")

	// ErrSyntax is returned when an element spec is malformed.
	ErrSyntax = errors.New("invalid element spec")
)

// ParseError describes a rejected element spec line.
type ParseError struct {
	// Line is the 1-based line number within a spec list, or 0 if unknown.
	Line int

	// Text is the offending spec text.
	Text string

	// Err is the underlying error.
	Err error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("element spec line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("element spec %q: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
