package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single scope export line. Longer body lines are
// skipped to their newline and yielded as oversized rows.
const maxLineSize = 1024 * 1024

// FileSource implements RowSource for a single scope log file.
// Lines before the configured start line are skipped.
type FileSource struct {
	path      string
	startLine int

	file    *os.File
	reader  *bufio.Reader
	line    []byte
	lineNum int
	done    bool
}

// NewFileSource creates a RowSource that yields the rows of path starting at
// the 1-based line startLine. A startLine below 1 is treated as 1.
func NewFileSource(path string, startLine int) *FileSource {
	if startLine < 1 {
		startLine = 1
	}
	return &FileSource{
		path:      path,
		startLine: startLine,
	}
}

// Next returns the next row at or after the start line.
// Returns io.EOF when the file is exhausted.
func (s *FileSource) Next(ctx context.Context) (*Row, error) {
	if s.done {
		return nil, io.EOF
	}

	if s.reader == nil {
		if err := s.open(); err != nil {
			return nil, err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, oversized, err := s.readLine()
		if err == io.EOF {
			s.done = true
			if err := s.Close(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.path, err)
		}
		s.lineNum++

		if s.lineNum < s.startLine {
			continue
		}

		row := &Row{
			Source:    s.path,
			LineNum:   s.lineNum,
			Oversized: oversized,
		}
		if !oversized {
			row.Fields = strings.Fields(string(line))
		}
		return row, nil
	}
}

// readLine returns the next line. A line longer than maxLineSize is consumed
// up to its newline and reported as oversized with no content. io.EOF is
// returned only when no bytes remain.
func (s *FileSource) readLine() ([]byte, bool, error) {
	oversized := false
	s.line = s.line[:0]
	read := 0
	for {
		chunk, err := s.reader.ReadSlice('\n')
		read += len(chunk)
		if !oversized {
			if len(s.line)+len(chunk) > maxLineSize {
				oversized = true
				s.line = s.line[:0]
			} else {
				s.line = append(s.line, chunk...)
			}
		}

		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && read > 0:
			return s.line, oversized, nil
		default:
			return s.line, oversized, err
		}
	}
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

func (s *FileSource) open() error {
	f, err := os.Open(s.path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", s.path, err)
	}

	s.file = f
	s.reader = bufio.NewReaderSize(f, 64*1024)
	s.lineNum = 0

	return nil
}

// ReadHeader returns up to n lines from the start of path.
// A file shorter than n lines yields fewer lines without error.
func ReadHeader(path string, n int) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	defer f.Close()

	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for len(lines) < n && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return lines, nil
}
