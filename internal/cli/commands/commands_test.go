package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeScopeLog writes a scope log with width tokens per row and n body
// rows starting at line 22. Value tokens of row i all carry i*0.001.
func writeScopeLog(t *testing.T, dir, name string, width, n int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("Scope export\n")
	b.WriteString("Axis : X1\n")
	b.WriteString("Start Time : Friday , 01.03.2019 10:00:00\n")
	b.WriteString("End Time : Friday , 01.03.2019 10:00:10\n")
	for i := 5; i < 22; i++ {
		fmt.Fprintf(&b, "# meta %d\n", i)
	}
	for i := 0; i < n; i++ {
		tokens := make([]string, width)
		for k := range tokens {
			if k%2 == 0 {
				tokens[k] = fmt.Sprintf("%d", k/2)
			} else {
				tokens[k] = fmt.Sprintf("%g", float64(i)*0.001)
			}
		}
		b.WriteString(strings.Join(tokens, " "))
		b.WriteString("\n")
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("Failed to create log file: %v", err)
	}
	return path
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "ncplot.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create config: %v", err)
	}
	return path
}

func resetExitCode(t *testing.T) {
	t.Helper()
	ExitCode = 0
	t.Cleanup(func() { ExitCode = 0 })
}

func TestNewPlotCommand(t *testing.T) {
	cmd := NewPlotCommand()

	if !strings.HasPrefix(cmd.Use, "plot ") {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	flags := []string{
		"config", "layout", "start-line", "gantry-cutoff", "strict-width",
		"include-slave", "by-index", "nc-unit", "gantry-unit", "title",
		"pdf", "out-dir", "output", "verbose", "quiet", "limit",
		"log-level", "debug", "webhook-url", "webhook-token", "webhook-trigger",
	}
	for _, flag := range flags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}
}

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand()

	if cmd.Use != "watch [flags] <log-file>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}
	for _, flag := range []string{"debounce", "pdf", "out-dir", "layout", "log-level"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}
}

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	if cmd.Use != "validate <config-file>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	if !strings.Contains(cmd.Long, "Validate") {
		t.Error("Missing description in Long")
	}
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if buf.String() != "ncplot dev\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestRunValidate_Success(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeScopeLog(t, tmpDir, "scope.txt", 20, 5)

	configPath := writeConfig(t, tmpDir, `log_sources:
  - `+logPath+`
layout: standard
limits:
  - name: following-error
    description: "Position difference within 50 um"
    channel: pos_diff
    type: max_abs
    max: 0.05
`)

	cmd := NewValidateCommand()
	cmd.SetArgs([]string{configPath})

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Configuration valid!", "standard (20 tokens per row", "[max_abs] following-error on pos_diff", "Log files matched: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "invalid: yaml: content"},
		{"unknown layout", "layout: diagonal\n"},
		{"limit on missing channel", `limits:
  - name: slave
    channel: set_pos_slave
    type: max_abs
    max: 1
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, t.TempDir(), tt.content)

			cmd := NewValidateCommand()
			cmd.SetArgs([]string{configPath})
			cmd.SetOut(&bytes.Buffer{})

			if err := cmd.ExecuteContext(context.Background()); err == nil {
				t.Error("Expected error for invalid config")
			}
		})
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	cmd := NewValidateCommand()
	cmd.SetArgs([]string{"/nonexistent/config.yaml"})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRunPlot_MissingFile(t *testing.T) {
	resetExitCode(t)

	cmd := NewPlotCommand()
	cmd.SetArgs([]string{"/nonexistent/scope.txt"})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRunPlot_NoInputs(t *testing.T) {
	resetExitCode(t)

	cmd := NewPlotCommand()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no log files") {
		t.Errorf("Expected 'no log files' error, got: %v", err)
	}
}

func TestRunPlot_WritesChartsAndPDF(t *testing.T) {
	resetExitCode(t)

	tmpDir := t.TempDir()
	logPath := writeScopeLog(t, tmpDir, "scope_x1.txt", 20, 50)
	outDir := filepath.Join(tmpDir, "charts")
	pdfPath := filepath.Join(tmpDir, "report.pdf")

	cmd := NewPlotCommand()
	cmd.SetArgs([]string{"--out-dir", outDir, "--pdf", pdfPath, "--include-slave", logPath})

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}

	pngs, _ := filepath.Glob(filepath.Join(outDir, "*.png"))
	if len(pngs) != 9 {
		t.Errorf("got %d PNG files, want 9", len(pngs))
	}
	if _, err := os.Stat(pdfPath); err != nil {
		t.Errorf("PDF not written: %v", err)
	}
	if !strings.Contains(buf.String(), "scope_x1.txt") {
		t.Errorf("report does not name the log:\n%s", buf.String())
	}
}

func TestRunPlot_LimitIssuesSetExitCode(t *testing.T) {
	resetExitCode(t)

	tmpDir := t.TempDir()
	logPath := writeScopeLog(t, tmpDir, "scope.txt", 20, 100)
	configPath := writeConfig(t, tmpDir, `limits:
  - name: following-error
    channel: pos_diff
    type: max_abs
    max: 0.05
`)

	cmd := NewPlotCommand()
	cmd.SetArgs([]string{"-c", configPath, "-o", "json", logPath})

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
	if !strings.Contains(buf.String(), `"total_issues": 1`) {
		t.Errorf("expected one issue in JSON report:\n%s", buf.String())
	}
}

func TestRunPlot_LayoutMismatch(t *testing.T) {
	resetExitCode(t)

	tmpDir := t.TempDir()
	logPath := writeScopeLog(t, tmpDir, "scope.txt", 24, 10)

	cmd := NewPlotCommand()
	cmd.SetArgs([]string{"--layout", "standard", logPath})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "standard") {
		t.Errorf("Expected layout mismatch error, got: %v", err)
	}
}

func TestRunPlot_MultipleFilesGetOwnPDF(t *testing.T) {
	resetExitCode(t)

	tmpDir := t.TempDir()
	writeScopeLog(t, tmpDir, "a.txt", 24, 20)
	writeScopeLog(t, tmpDir, "b.txt", 24, 20)
	pdfPath := filepath.Join(tmpDir, "out", "report.pdf")

	cmd := NewPlotCommand()
	cmd.SetArgs([]string{"--layout", "mirror", "--pdf", pdfPath, "-q", filepath.Join(tmpDir, "*.txt")})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("plot failed: %v", err)
	}

	for _, name := range []string{"report_a.pdf", "report_b.pdf"} {
		if _, err := os.Stat(filepath.Join(tmpDir, "out", name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRunExport_CSV(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeScopeLog(t, tmpDir, "scope.txt", 20, 10)
	outDir := filepath.Join(tmpDir, "data")

	cmd := NewExportCommand()
	cmd.SetArgs([]string{"--format", "csv", "--out-dir", outDir, logPath})

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	for _, name := range []string{"scope_fast.csv", "scope_slow.csv"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
		if !strings.Contains(buf.String(), name) {
			t.Errorf("output does not list %s", name)
		}
	}
}

func TestRunExport_UnknownFormat(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeScopeLog(t, tmpDir, "scope.txt", 20, 10)

	cmd := NewExportCommand()
	cmd.SetArgs([]string{"--format", "parquet", logPath})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for unknown format")
	}
}
