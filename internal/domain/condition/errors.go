package condition

import (
	"errors"
	"fmt"
)

// ErrInvalidDSL is the sentinel matched by every parse failure.
var ErrInvalidDSL = errors.New("invalid dsl")

// ParseError reports where a condition or DSL document failed to parse.
// Fragment is the offending piece of input.
type ParseError struct {
	Fragment string
	Pos      int
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("invalid dsl at offset %d near %q: %s", e.Pos, e.Fragment, e.Reason)
	}
	return fmt.Sprintf("invalid dsl near %q: %s", e.Fragment, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidDSL
}

func parseErr(pos int, fragment, format string, args ...any) *ParseError {
	return &ParseError{Fragment: fragment, Pos: pos, Reason: fmt.Sprintf(format, args...)}
}

// AsParseError extracts a *ParseError from err.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
