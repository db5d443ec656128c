// Package parser provides line-oriented reading of motion-controller scope logs.
package parser

// Row is a single body line split on whitespace.
type Row struct {
	// Fields are the whitespace-separated tokens of the line.
	// A blank line has no fields.
	Fields []string

	// Source is the file path this row came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int

	// Oversized marks a line longer than the reader accepts. Its fields are
	// not kept.
	Oversized bool
}

// Width returns the number of tokens in the row.
func (r *Row) Width() int {
	return len(r.Fields)
}

// Blank reports whether the row is an empty line.
func (r *Row) Blank() bool {
	return len(r.Fields) == 0 && !r.Oversized
}
