package mendxml

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedEnd      = errors.New("unexpected end of input")
	ErrMalformedAttribute = errors.New("malformed attribute")
	ErrMalformedTag       = errors.New("malformed tag")
	ErrDepthLimit         = errors.New("element depth exceeds limit")
)

// ParseError reports where in the input a document stopped parsing.
// Err is one of the sentinel errors above.
type ParseError struct {
	Offset int
	Line   int
	Column int
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}

	message := e.Err.Error()

	if e.Detail != "" {
		message += ": " + e.Detail
	}

	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, message)
	}

	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, message)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func (c *cursor) failf(err error, format string, args ...any) *ParseError {
	failure := c.fail(err)
	failure.Detail = fmt.Sprintf(format, args...)

	return failure
}
