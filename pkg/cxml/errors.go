package cxml

import "fmt"

// ErrorKind classifies codec failures.
type ErrorKind int

const (
	// KindFormat covers a bad prolog, an unknown record tag, a malformed
	// text group or a reference to a symbol that was never defined.
	KindFormat ErrorKind = iota + 1
	// KindTruncated means the buffer ended before EndDocument or mid-record.
	KindTruncated
	// KindLengthExceeded means a value does not fit the format's size fields.
	KindLengthExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case KindFormat:
		return "format error"
	case KindTruncated:
		return "truncated input"
	case KindLengthExceeded:
		return "length exceeded"
	default:
		return "unknown error"
	}
}

// Error is returned by the encoder and decoder for every codec failure.
// Offset is the buffer position at which the problem was detected, or -1
// when it does not apply.
type Error struct {
	Kind   ErrorKind
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("cxml: %s at offset %d: %s", e.Kind, e.Offset, e.Msg)
	}
	return fmt.Sprintf("cxml: %s: %s", e.Kind, e.Msg)
}

// Is reports whether target is a codec error of the same kind, so callers
// can write errors.Is(err, cxml.ErrTruncated).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrFormat         = &Error{Kind: KindFormat, Offset: -1, Msg: "malformed stream"}
	ErrTruncated      = &Error{Kind: KindTruncated, Offset: -1, Msg: "reached end of input"}
	ErrLengthExceeded = &Error{Kind: KindLengthExceeded, Offset: -1, Msg: "value too large"}
)

func formatError(offset int, format string, args ...any) error {
	return &Error{Kind: KindFormat, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func truncatedError(offset int) error {
	return &Error{Kind: KindTruncated, Offset: offset, Msg: "reached end of input"}
}

func lengthError(format string, args ...any) error {
	return &Error{Kind: KindLengthExceeded, Offset: -1, Msg: fmt.Sprintf(format, args...)}
}
