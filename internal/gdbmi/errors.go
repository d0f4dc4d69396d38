// Errors returned by the escape decoder, cursor and framer.
package gdbmi

import (
	"errors"
	"fmt"
)

// ErrNotAtString is returned when a quoted string is read from a cursor that
// is not positioned just after an opening quote.
var ErrNotAtString = errors.New("cursor not positioned after an opening quote")

// EscapeErrorKind categorizes escape decoding failures.
type EscapeErrorKind int

const (
	// EscapeUnescapedQuote: a bare quote inside text that must not contain one.
	EscapeUnescapedQuote EscapeErrorKind = iota
	// EscapeInvalidOctal: an octal group outside the byte range.
	EscapeInvalidOctal
	// EscapeInvalidChar: a single-character escape code gdb never emits.
	EscapeInvalidChar
	// EscapeMissingClosingQuote: the buffer ended inside a quoted string.
	EscapeMissingClosingQuote
)

func (k EscapeErrorKind) String() string {
	switch k {
	case EscapeUnescapedQuote:
		return "unescaped quote"
	case EscapeInvalidOctal:
		return "invalid octal number"
	case EscapeInvalidChar:
		return "invalid escape character"
	case EscapeMissingClosingQuote:
		return "missing closing quote"
	default:
		return "escape error"
	}
}

// EscapeError reports text that cannot be unambiguously decoded.
type EscapeError struct {
	Kind  EscapeErrorKind
	Value string // the offending escape, when there is one
	Text  string // the full text being decoded
}

func (e *EscapeError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s %q in %q", e.Kind, e.Value, e.Text)
	}
	return fmt.Sprintf("%s in %q", e.Kind, e.Text)
}

// LineError ties a parse failure to the line that produced it.
type LineError struct {
	Line string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("parse line %q: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
