package parser

import (
	"context"
)

// RowSource provides an iterator over the body rows of a log file.
// Implementations must be safe for sequential access (not concurrent).
type RowSource interface {
	// Next returns the next body row.
	// Returns io.EOF when no more rows are available.
	// Blank lines are returned as rows without fields; the caller decides
	// whether they count.
	Next(ctx context.Context) (*Row, error)

	// Close releases any resources held by the source.
	Close() error
}
