package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeLog writes a scope log with the given header clocks, padding up to
// line 21 and the body rows from line 22.
func writeLog(t *testing.T, start, end string, rows []string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("Scope export\n")
	b.WriteString("Axis : X1\n")
	fmt.Fprintf(&b, "Start Time : Friday , 01.03.2019 %s\n", start)
	fmt.Fprintf(&b, "End Time : Friday , 01.03.2019 %s\n", end)
	for i := 5; i < DefaultStartLine; i++ {
		fmt.Fprintf(&b, "# meta %d\n", i)
	}
	for _, r := range rows {
		b.WriteString(r)
		b.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "scope.log")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// row builds a body line of width tokens: even tokens are counters, odd
// tokens carry base+index so each channel's value is predictable.
func row(width int, base float64) string {
	tokens := make([]string, width)
	for i := range tokens {
		if i%2 == 0 {
			tokens[i] = fmt.Sprintf("%d", i/2)
			continue
		}
		tokens[i] = fmt.Sprintf("%g", base+float64(i))
	}
	return strings.Join(tokens, " ")
}

func rows(n, width int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = row(width, float64(i*100))
	}
	return out
}
