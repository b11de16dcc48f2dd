package subtitle

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedEncoding is wrapped by Decode when the input charset cannot be
// converted to UTF-8.
var ErrUnsupportedEncoding = errors.New("unsupported text encoding")

// FormatError reports a timecode, or an entry timing line, that does not match
// HH:MM:SS,mmm or has a field out of range. Entry and Line are zero for
// timecodes that did not come from a document.
type FormatError struct {
	Text   string
	Reason string
	Entry  int
	Line   int
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("invalid timecode %q: %s", e.Text, e.Reason)
	if e.Entry > 0 {
		return fmt.Sprintf("entry %d (line %d): %s", e.Entry, e.Line, msg)
	}
	return msg
}

// RangeError reports a time value that cannot be written as a timecode:
// negative, or past what a time.Duration holds. For an overflow, Value is the
// input that was being mapped.
type RangeError struct {
	Value    time.Duration
	Entry    int
	Overflow bool
}

func (e *RangeError) Error() string {
	msg := fmt.Sprintf("time value %s is negative", e.Value)
	if e.Overflow {
		msg = fmt.Sprintf("time value %s overflows when mapped", e.Value)
	}
	if e.Entry > 0 {
		return fmt.Sprintf("entry %d: %s", e.Entry, msg)
	}
	return msg
}
