package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ccollicutt/ncplot/pkg/ingest"
)

// ExportFormat names a channel data encoding.
type ExportFormat string

const (
	ExportJSON    ExportFormat = "json"
	ExportCSV     ExportFormat = "csv"
	ExportMsgpack ExportFormat = "msgpack"
)

// UnknownFormatError reports an unsupported output or export format.
type UnknownFormatError struct {
	Format    string
	Supported []string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown format %q (supported: %s)", e.Format, strings.Join(e.Supported, ", "))
}

// ParseExportFormat validates an export format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(s)); f {
	case ExportJSON, ExportCSV, ExportMsgpack:
		return f, nil
	default:
		return "", &UnknownFormatError{Format: s, Supported: []string{"json", "csv", "msgpack"}}
	}
}

// ChannelData is the exported form of an ingested log.
type ChannelData struct {
	Source   string               `json:"source" msgpack:"source"`
	Layout   string               `json:"layout" msgpack:"layout"`
	Duration float64              `json:"duration" msgpack:"duration"`
	Stats    ingest.Stats         `json:"stats" msgpack:"stats"`
	Fast     map[string][]float64 `json:"fast" msgpack:"fast"`
	Slow     map[string][]float64 `json:"slow" msgpack:"slow"`
}

// NewChannelData wraps an ingestion result for export.
func NewChannelData(r *ingest.Result) *ChannelData {
	return &ChannelData{
		Source:   r.Path,
		Layout:   r.Layout.Name,
		Duration: r.Duration,
		Stats:    r.Stats,
		Fast:     r.Fast,
		Slow:     r.Slow,
	}
}

// WriteJSON encodes data as indented JSON.
func WriteJSON(w io.Writer, data *ChannelData) error {
	return writeIndentedJSON(w, data)
}

// WriteMsgpack encodes data as MessagePack.
func WriteMsgpack(w io.Writer, data *ChannelData) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	return enc.Encode(data)
}

// ReadMsgpack decodes data written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (*ChannelData, error) {
	var data ChannelData
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ReadJSON decodes data written by WriteJSON.
func ReadJSON(r io.Reader) (*ChannelData, error) {
	var data ChannelData
	if err := sonic.ConfigStd.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// WriteCSV writes one channel group as CSV: the time column first, then the
// data channels in name order, one row per sample.
func WriteCSV(w io.Writer, g ingest.ChannelGroup) error {
	names := g.Names()
	header := append([]string{ingest.TimeKey}, names...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	columns := make([][]float64, len(header))
	columns[0] = g.Time()
	for i, name := range names {
		columns[i+1] = g[name]
	}

	record := make([]string, len(header))
	for row := 0; row < g.Len(); row++ {
		for i, col := range columns {
			record[i] = ""
			if row < len(col) {
				record[i] = strconv.FormatFloat(col[row], 'g', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Export writes r to dir using base as the file name stem and returns the
// paths written. CSV produces one file per group.
func Export(ctx context.Context, r *ingest.Result, format ExportFormat, dir, base string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	switch format {
	case ExportJSON, ExportMsgpack:
		path := filepath.Join(dir, base+"."+string(format))
		err := writeFile(ctx, path, func(w io.Writer) error {
			if format == ExportJSON {
				return WriteJSON(w, NewChannelData(r))
			}
			return WriteMsgpack(w, NewChannelData(r))
		})
		if err != nil {
			return nil, err
		}
		return []string{path}, nil

	case ExportCSV:
		var paths []string
		for _, g := range []ingest.Group{ingest.GroupFast, ingest.GroupSlow} {
			group := r.Group(g)
			path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", base, g))
			if err := writeFile(ctx, path, func(w io.Writer) error { return WriteCSV(w, group) }); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
		return paths, nil

	default:
		return nil, &UnknownFormatError{Format: string(format), Supported: []string{"json", "csv", "msgpack"}}
	}
}

func writeFile(ctx context.Context, path string, fn func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(path) // #nosec G304 -- output path is chosen by the user
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
