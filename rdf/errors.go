package rdf

import (
	"errors"
	"fmt"
)

// Common parse-layer errors.
var (
	// ErrEncoding is returned when input is not valid UTF-8.
	ErrEncoding = errors.New("input is not valid UTF-8")

	// ErrUnknownFormat is returned for a format with no registered codec.
	ErrUnknownFormat = errors.New("unknown RDF format")
)

// ParseError reports a syntax error with its position in the source text.
// Line and Column are 1-based; Column may be zero when the underlying
// decoder only tracks line granularity.
type ParseError struct {
	Format Format
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	pos := ""
	if e.Line > 0 {
		if e.Column > 0 {
			pos = fmt.Sprintf("%d:%d: ", e.Line, e.Column)
		} else {
			pos = fmt.Sprintf("line %d: ", e.Line)
		}
	}
	return fmt.Sprintf("%s: %s%s", e.Format, pos, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }
