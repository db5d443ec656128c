package render

import (
	"fmt"

	"golang.org/x/image/colornames"

	"github.com/ccollicutt/ncplot/pkg/ingest"
)

// Axis labels for the x axis.
const (
	TimeLabel  = "Time (s)"
	IndexLabel = "Index, (Integer)"
)

// ChartOptions selects units and optional charts for StandardCharts.
type ChartOptions struct {
	NCUnit     string
	GantryUnit string

	// ByIndex plots samples against their index instead of time.
	ByIndex bool

	// IncludeSlave adds the slave axis charts.
	IncludeSlave bool

	// HighROI and LowROI add zoomed position charts.
	HighROI *ROI
	LowROI  *ROI
}

// StandardCharts builds the fixed chart set for an ingested log. Channels
// the layout does not declare are left out of their chart; a chart is
// still produced when all of its series are empty.
func StandardCharts(r *ingest.Result, opts ChartOptions) []Chart {
	b := chartBuilder{result: r, opts: opts}

	posLabel := fmt.Sprintf("Position (%s)", opts.NCUnit)
	veloLabel := fmt.Sprintf("Velocity (%s/s)", opts.NCUnit)
	diffLabel := fmt.Sprintf("Position Difference (%s)", opts.NCUnit)

	charts := []Chart{
		b.chart("Actual Position and Set Position", posLabel, KindDouble,
			b.series(ingest.ActPos, "Actual Position"),
			b.series(ingest.SetPos, "Set Position")),
		b.chart("Actual Velocity and Set Velocity", veloLabel, KindDouble,
			b.series(ingest.ActVelo, "Actual Velocity"),
			b.series(ingest.SetVelo, "Set Velocity")),
		b.chart("Position Difference", diffLabel, KindSingle,
			b.series(ingest.PosDiff, "Position Difference")),
		b.chart("X Gantry Difference", fmt.Sprintf("X Gantry Difference (%s)", opts.GantryUnit), KindSingle,
			b.series(ingest.XGantry, "X Gantry Difference")),
		b.chart("Y Gantry Difference", fmt.Sprintf("Y Gantry Difference (%s)", opts.GantryUnit), KindSingle,
			b.series(ingest.YGantry, "Y Gantry Difference")),
	}

	act := b.series(ingest.ActPos, "Actual Position")
	if act != nil {
		act.YLabel = fmt.Sprintf("Actual Position (%s)", opts.NCUnit)
		act.Color = colornames.Red
	}
	diff := b.series(ingest.PosDiff, "Position Difference")
	if diff != nil {
		diff.YLabel = diffLabel
		diff.Color = colornames.Blue
	}
	charts = append(charts, b.chart("Actual Position and Position Difference", "", KindOverlay, act, diff))

	for _, roi := range []struct {
		suffix string
		roi    *ROI
	}{
		{"Positive Limits", opts.HighROI},
		{"Negative Limits", opts.LowROI},
	} {
		if roi.roi == nil {
			continue
		}
		c := b.chart("Actual Position and Set Position - "+roi.suffix, posLabel, KindDouble,
			b.series(ingest.ActPos, "Actual Position"),
			b.series(ingest.SetPos, "Set Position"))
		zoom := *roi.roi
		c.ROI = &zoom
		charts = append(charts, c)
	}

	if opts.IncludeSlave {
		charts = append(charts,
			b.chart("Slave Actual Position and Set Position", posLabel, KindDouble,
				b.series(ingest.ActPosSlave, "Slave Actual Position"),
				b.series(ingest.SetPosSlave, "Slave Set Position")),
			b.chart("Slave Actual Velocity and Set Velocity", veloLabel, KindDouble,
				b.series(ingest.ActVeloSlave, "Slave Actual Velocity"),
				b.series(ingest.SetVeloSlave, "Slave Set Velocity")),
			b.chart("Slave Position Difference", diffLabel, KindSingle,
				b.series(ingest.PosDiffSlave, "Slave Position Difference")),
		)
	}

	return charts
}

type chartBuilder struct {
	result *ingest.Result
	opts   ChartOptions
}

// series returns the named channel against its own group's axis, or nil
// when the layout has no such channel.
func (b chartBuilder) series(channel, label string) *Series {
	if _, ok := b.result.Layout.Lookup(channel); !ok {
		return nil
	}

	values, t, _ := b.result.Lookup(channel)
	s := &Series{Label: label, Y: values}
	if b.opts.ByIndex {
		s.X = indexAxis(len(values))
	} else {
		s.X = t
	}
	return s
}

func (b chartBuilder) chart(title, yLabel string, kind Kind, series ...*Series) Chart {
	c := Chart{
		Title:  title,
		XLabel: TimeLabel,
		YLabel: yLabel,
		Kind:   kind,
	}
	if b.opts.ByIndex {
		c.XLabel = IndexLabel
	}
	for _, s := range series {
		if s != nil {
			c.Series = append(c.Series, *s)
		}
	}
	if kind == KindOverlay && len(c.Series) < 2 {
		// an overlay needs both panels; fall back to a plain chart
		c.Kind = KindSingle
		for _, s := range c.Series {
			c.YLabel = s.YLabel
		}
	}
	return c
}

func indexAxis(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}
