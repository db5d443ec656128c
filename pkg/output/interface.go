package output

import (
	"context"
	"io"
)

// Formatter renders reports in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds channel statistics detail and issue locations.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool

	// Width is the terminal width used to clip text lines. Zero disables clipping.
	Width int
}

// NewFormatter returns the formatter for name ("text" or "json").
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text", "":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, &UnknownFormatError{Format: name, Supported: []string{"text", "json"}}
	}
}
