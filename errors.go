package bundlebase

import (
	"errors"
	"fmt"
)

// ErrOverflow is returned by the numeric field decoder when an encoded
// value exceeds the range of a uint64.  Header size fields are 32 bytes
// wide, so a hostile stream can trivially encode values that no counter
// can represent; those must fail outright rather than wrap to some
// small alias.
var ErrOverflow = errors.New("value exceeds uint64 range")

// ErrTooDeep is returned by the Walker when bundle nesting exceeds
// MaxDepth.  It is fatal: past the nested directory header there is no
// declared length left that could resynchronize the parent cursor.
var ErrTooDeep = errors.New("bundle nesting exceeds max depth")

// ReadError wraps a stream-level I/O failure, including short reads.
// A ReadError is always fatal to a walk -- it carries no trustworthy
// byte count for resynchronization.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read error: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ParseError is a structural violation inside one entry's byte region:
// unknown signature type, invalid presence byte, malformed tag blob,
// tag count mismatch, or a header that overruns its declared size.
// BytesRead is the number of entry bytes consumed before the violation
// was detected; the caller uses it to discard the remainder of the
// entry's declared size and continue with the next sibling.
type ParseError struct {
	Msg       string
	BytesRead uint64
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at byte %d: %s", e.BytesRead, e.Msg)
}

// ValidationError marks a single tag that violates the size or
// non-emptiness bounds.  It is never fatal; the offending tag is
// dropped and reported through the Observer.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tag validation error: %s", e.Msg)
}
