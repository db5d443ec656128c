package ingest

import (
	"errors"
	"fmt"
)

// ErrFormat is wrapped by every FormatError.
var ErrFormat = errors.New("malformed scope log")

// FormatError reports a header that cannot yield a measurement duration.
// It is fatal for the ingestion call.
type FormatError struct {
	Path   string
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap lets errors.Is match ErrFormat.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// LayoutMismatchError reports a file whose rows never match the width of the
// selected layout.
type LayoutMismatchError struct {
	Layout string
	// Want is the row width the layout expects.
	Want int
	// Got is the most common row width observed.
	Got int
	// Rows is the number of rows rejected for their width.
	Rows int
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("layout %q expects %d tokens per row, but %d rows had %d tokens "+
		"(try ncplot detect, or --strict-width=false to read rows of any width)",
		e.Layout, e.Want, e.Rows, e.Got)
}
