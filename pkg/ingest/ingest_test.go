package ingest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDuration(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		end    string
		want   float64
		errIs  error
		errMsg string
	}{
		{"five seconds", "10:00:00", "10:00:05", 5, nil, ""},
		{"across hour", "10:59:30", "11:00:30", 60, nil, ""},
		{"fractional seconds", "10:00:00", "10:00:01.5", 1.5, nil, ""},
		{"end before start", "10:00:10", "10:00:00", -10, nil, ""},
		{"bad start", "10:xx:00", "10:00:05", 0, ErrFormat, "line 3"},
		{"bad end", "10:00:00", "10-00-05", 0, ErrFormat, "line 4"},
		{"nan start", "NaN:00:00", "10:00:10", 0, ErrFormat, "line 3"},
		{"inf end", "10:00:00", "10:inf:00", 0, ErrFormat, "line 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLog(t, tt.start, tt.end, nil)

			got, err := ExtractDuration(path)
			if tt.errIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.errIs)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestExtractDuration_ShortHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nStart Time : Friday , 01.03.2019 10:00:00\n"), 0o644))

	_, err := ExtractDuration(path)
	require.Error(t, err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, path, fe.Path)
	assert.Contains(t, fe.Reason, "need 4")
}

func TestExtractDuration_MissingToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.log")
	content := "a\nb\nStart Time : 10:00:00\nEnd Time : Friday , 01.03.2019 10:00:05\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ExtractDuration(path)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestExtractDuration_MissingFile(t *testing.T) {
	_, err := ExtractDuration(filepath.Join(t.TempDir(), "missing.log"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFormat)
}

func TestExtractDurationWith_CustomHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.log")
	content := "begin 08:00:00\nfinish 08:00:30\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ExtractDurationWith(path, HeaderFormat{StartLine: 1, EndLine: 2, TokenIndex: 1})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, got, 1e-9)
}

func TestParseBody_WellFormed(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:05", rows(7, Standard.Width()))

	body, err := ParseBody(context.Background(), path, DefaultStartLine, Standard, WithStrictWidth(true))
	require.NoError(t, err)

	assert.Equal(t, 7, body.Accepted)
	assert.Zero(t, body.Discarded)
	for _, name := range Standard.Names(GroupFast) {
		assert.Len(t, body.Fast[name], 7, name)
	}
	for _, name := range Standard.Names(GroupSlow) {
		assert.Len(t, body.Slow[name], 7, name)
	}

	// index i of every channel comes from row i
	for i := 0; i < 7; i++ {
		base := float64(i * 100)
		assert.Equal(t, base+1, body.Fast[ActPos][i])
		assert.Equal(t, base+9, body.Fast[PosDiff][i])
		assert.Equal(t, base+11, body.Slow[XGantry][i])
		assert.Equal(t, base+19, body.Fast[PosDiffSlave][i])
	}
}

func TestParseBody_AtomicDiscard(t *testing.T) {
	lines := rows(5, Standard.Width())
	// only the y_gantry token is bad; no channel may see this row
	bad := strings.Fields(row(Standard.Width(), 900))
	bad[13] = "abc"
	lines = append(lines[:2], append([]string{strings.Join(bad, " ")}, lines[2:]...)...)

	path := writeLog(t, "10:00:00", "10:00:05", lines)

	body, err := ParseBody(context.Background(), path, DefaultStartLine, Standard)
	require.NoError(t, err)

	assert.Equal(t, 5, body.Accepted)
	assert.Equal(t, 1, body.Discarded)
	for _, name := range Standard.Names(GroupFast) {
		assert.Len(t, body.Fast[name], 5, name)
	}
	assert.NotContains(t, body.Fast[ActPos], 901.0)
	assert.Equal(t, []float64{11, 111, 211, 311, 411}, body.Slow[XGantry])
}

func TestParseBody_RejectsNonFinite(t *testing.T) {
	lines := rows(3, Standard.Width())
	lines = append(lines, "0 NaN 1 3 2 5 3 7 4 9 5 11 6 13 7 15 8 17 9 19")
	lines = append(lines, "0 1 1 +Inf 2 5 3 7 4 9 5 11 6 13 7 15 8 17 9 19")
	path := writeLog(t, "10:00:00", "10:00:05", lines)

	body, err := ParseBody(context.Background(), path, DefaultStartLine, Standard)
	require.NoError(t, err)
	assert.Equal(t, 3, body.Accepted)
	assert.Equal(t, 2, body.Discarded)
}

func TestParseBody_BlankAndShortRows(t *testing.T) {
	lines := rows(4, Standard.Width())
	lines = append(lines, "", "   ", "0 1 1 3")
	path := writeLog(t, "10:00:00", "10:00:05", lines)

	t.Run("lenient", func(t *testing.T) {
		body, err := ParseBody(context.Background(), path, DefaultStartLine, Standard)
		require.NoError(t, err)
		assert.Equal(t, 4, body.Accepted)
		assert.Equal(t, 3, body.Discarded)
		assert.Zero(t, body.WidthMismatched)
	})

	t.Run("strict", func(t *testing.T) {
		body, err := ParseBody(context.Background(), path, DefaultStartLine, Standard, WithStrictWidth(true))
		require.NoError(t, err)
		assert.Equal(t, 4, body.Accepted)
		assert.Equal(t, 3, body.Discarded)
		assert.Equal(t, 1, body.WidthMismatched)
		assert.Equal(t, 4, body.MismatchWidth)
	})
}

func TestParseBody_OversizedRowDiscarded(t *testing.T) {
	lines := rows(3, Standard.Width())
	lines = append(lines[:1], append([]string{strings.Repeat("9", 2<<20)}, lines[1:]...)...)
	path := writeLog(t, "10:00:00", "10:00:05", lines)

	for _, strict := range []bool{false, true} {
		body, err := ParseBody(context.Background(), path, DefaultStartLine, Standard, WithStrictWidth(strict))
		require.NoError(t, err)
		assert.Equal(t, 3, body.Accepted)
		assert.Equal(t, 1, body.Discarded)
		assert.Zero(t, body.WidthMismatched)
		assert.Equal(t, []float64{1, 101, 201}, body.Fast[ActPos])
	}
}

func TestParseBody_EmptyBody(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:05", nil)

	body, err := ParseBody(context.Background(), path, DefaultStartLine, Mirror)
	require.NoError(t, err)
	assert.Zero(t, body.Accepted)
	assert.Equal(t, []float64{}, body.Fast[ActPos])
	assert.Equal(t, []float64{}, body.Slow[PosDiffSlave])
}

func TestParseBody_Cancelled(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:05", rows(3, Standard.Width()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseBody(ctx, path, DefaultStartLine, Standard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesizeTimeAxis(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		n        int
		want     []float64
	}{
		{"five points", 10, 5, []float64{0, 2.5, 5, 7.5, 10}},
		{"zero points", 10, 0, []float64{}},
		{"negative count", 10, -3, []float64{}},
		{"one point", 10, 1, []float64{0}},
		{"two points", 3, 2, []float64{0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SynthesizeTimeAxis(tt.duration, tt.n)
			require.Len(t, got, len(tt.want))
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
		})
	}
}

func TestApplyGantryCutoff(t *testing.T) {
	slow := ChannelGroup{
		XGantry: make([]float64, 103),
		YGantry: make([]float64, 103),
	}
	for i := range slow[XGantry] {
		slow[XGantry][i] = float64(i)
	}

	got := ApplyGantryCutoff(slow, 103)

	assert.Len(t, got[XGantry], 20)
	assert.Len(t, got[YGantry], 20)
	assert.Equal(t, 19.0, got[XGantry][19])
	// the input is untouched
	assert.Len(t, slow[XGantry], 103)

	t.Run("short channels are kept", func(t *testing.T) {
		got := ApplyGantryCutoff(ChannelGroup{XGantry: {1, 2}}, 100)
		assert.Equal(t, []float64{1, 2}, got[XGantry])
	})

	t.Run("empty fast group", func(t *testing.T) {
		got := ApplyGantryCutoff(ChannelGroup{XGantry: {1, 2}}, 0)
		assert.Empty(t, got[XGantry])
	})
}

func TestIngest_EndToEnd(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:10", rows(10, Standard.Width()))

	result, err := Ingest(context.Background(), path, Options{StrictWidth: true})
	require.NoError(t, err)

	assert.Equal(t, "standard", result.Layout.Name)
	assert.InDelta(t, 10.0, result.Duration, 1e-9)
	assert.Equal(t, 10, result.Stats.FastLen)
	assert.Len(t, result.Fast[ActPos], 10)

	axis := result.Fast.Time()
	require.Len(t, axis, 10)
	assert.InDelta(t, 0.0, axis[0], 1e-9)
	assert.InDelta(t, 10.0/9.0, axis[1], 1e-9)
	assert.InDelta(t, 10.0, axis[9], 1e-9)

	assert.Len(t, result.Slow.Time(), 10)
	assert.Zero(t, result.Stats.SlowTruncated)
}

func TestIngest_GantryCutoff(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:20", rows(103, Standard.Width()))

	result, err := Ingest(context.Background(), path, Options{GantryCutoff: true})
	require.NoError(t, err)

	assert.Equal(t, 103, result.Stats.FastLen)
	assert.Equal(t, 20, result.Stats.SlowLen)
	assert.Equal(t, 83, result.Stats.SlowTruncated)
	assert.Len(t, result.Slow[XGantry], 20)
	assert.Len(t, result.Slow[YGantry], 20)

	slowAxis := result.Slow.Time()
	require.Len(t, slowAxis, 20)
	assert.InDelta(t, 20.0, slowAxis[19], 1e-9)
	assert.InDelta(t, 20.0, result.Fast.Time()[102], 1e-9)
	assert.InDelta(t, 103.0/20.0, result.Stats.Ratio(), 1e-9)
}

func TestIngest_MirrorLayout(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:05", rows(10, Mirror.Width()))

	result, err := Ingest(context.Background(), path, Options{Layout: Mirror, GantryCutoff: true, StrictWidth: true})
	require.NoError(t, err)

	assert.Len(t, result.Fast[ActPos], 10)
	assert.NotContains(t, result.Fast, ActPosSlave)
	assert.Len(t, result.Slow[SetVeloSlave], 2)
	assert.Len(t, result.Slow[PosDiffSlave], 2)

	values, axis, ok := result.Lookup(PosDiffSlave)
	require.True(t, ok)
	assert.Equal(t, []float64{23, 123}, values)
	assert.Len(t, axis, 2)
}

func TestIngest_LayoutMismatch(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:05", rows(6, Standard.Width()))

	_, err := Ingest(context.Background(), path, Options{Layout: Mirror, StrictWidth: true})
	require.Error(t, err)

	var lme *LayoutMismatchError
	require.True(t, errors.As(err, &lme))
	assert.Equal(t, "mirror", lme.Layout)
	assert.Equal(t, 24, lme.Want)
	assert.Equal(t, 20, lme.Got)
	assert.Equal(t, 6, lme.Rows)
	assert.Contains(t, err.Error(), "--strict-width=false")
}

func TestIngest_LenientMismatchYieldsEmpty(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:05", rows(6, Standard.Width()))

	result, err := Ingest(context.Background(), path, Options{Layout: Mirror})
	require.NoError(t, err)
	assert.Zero(t, result.Stats.RowsAccepted)
	assert.Equal(t, 6, result.Stats.RowsDiscarded)
	assert.Empty(t, result.Fast.Time())
}

func TestIngest_EmptyBody(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:05", nil)

	result, err := Ingest(context.Background(), path, Options{StrictWidth: true, GantryCutoff: true})
	require.NoError(t, err)
	assert.Empty(t, result.Fast[ActPos])
	assert.Empty(t, result.Fast.Time())
	assert.Empty(t, result.Slow.Time())
}

func TestIngest_InvalidLayout(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:05", rows(2, 20))

	bad := Layout{Name: "bad", Channels: []Channel{{GroupFast, "a", 1}, {GroupFast, "b", 1}}}
	_, err := Ingest(context.Background(), path, Options{Layout: bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already used")
}

func TestIngest_DebugSummary(t *testing.T) {
	path := writeLog(t, "10:00:00", "10:00:05", rows(10, Standard.Width()))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Ingest(context.Background(), path, Options{GantryCutoff: true, Logger: logger})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "measurement time")
	assert.Contains(t, out, "channel=act_pos count=10")
	assert.Contains(t, out, "channel=x_gantry count=2")
	assert.Contains(t, out, "ratio=5")
}
