package render

import (
	"fmt"
	"image/color"
	"math"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default page size in inches (A4 landscape).
const (
	DefaultWidth  = 11.69
	DefaultHeight = 8.27
)

var palette = []color.Color{
	colornames.Steelblue,
	colornames.Darkorange,
	colornames.Forestgreen,
	colornames.Crimson,
}

func pageSize(width, height float64) (vg.Length, vg.Length) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return vg.Length(width) * vg.Inch, vg.Length(height) * vg.Inch
}

// drawChart draws c onto dc.
func drawChart(c Chart, dc draw.Canvas) error {
	if c.Kind == KindOverlay && len(c.Series) > 1 {
		return drawOverlay(c, dc)
	}

	p := newPlot(c.Title, c.XLabel, c.YLabel)
	p.Legend.Top = true
	for i, s := range c.Series {
		if err := addLine(p, s, palette[i%len(palette)], true); err != nil {
			return fmt.Errorf("chart %q: %w", c.Title, err)
		}
	}

	if c.ROI != nil {
		p.X.Min, p.X.Max = c.ROI.X.Min, c.ROI.X.Max
		p.Y.Min, p.Y.Max = c.ROI.Y.Min, c.ROI.Y.Max
	}

	p.Draw(dc)
	return nil
}

// drawOverlay stacks one panel per series with aligned x axes. The title
// goes on the top panel and the x label on the bottom one.
func drawOverlay(c Chart, dc draw.Canvas) error {
	plots := make([][]*plot.Plot, len(c.Series))
	xMin, xMax := math.Inf(1), math.Inf(-1)

	for i, s := range c.Series {
		p := newPlot("", "", s.YLabel)
		if i == 0 {
			p.Title.Text = c.Title
		}
		if i == len(c.Series)-1 {
			p.X.Label.Text = c.XLabel
		}

		col := palette[i%len(palette)]
		if s.Color != nil {
			col = s.Color
		}
		p.Y.Label.TextStyle.Color = col
		p.Y.Tick.Label.Color = col

		if err := addLine(p, s, col, false); err != nil {
			return fmt.Errorf("chart %q: %w", c.Title, err)
		}
		xMin = math.Min(xMin, p.X.Min)
		xMax = math.Max(xMax, p.X.Max)
		plots[i] = []*plot.Plot{p}
	}

	if xMin <= xMax {
		for _, row := range plots {
			row[0].X.Min, row[0].X.Max = xMin, xMax
		}
	}

	tiles := draw.Tiles{
		Rows: len(plots),
		Cols: 1,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i, row := range plots {
		row[0].Draw(canvases[i][0])
	}
	return nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.BackgroundColor = colornames.White
	p.Add(plotter.NewGrid())
	return p
}

// addLine adds s to p. Empty series add nothing, leaving empty axes.
func addLine(p *plot.Plot, s Series, col color.Color, legend bool) error {
	n := s.Len()
	if n == 0 {
		return nil
	}

	pts := make(plotter.XYs, n)
	for i := range pts {
		pts[i].X = s.X[i]
		pts[i].Y = s.Y[i]
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("series %q: %w", s.Label, err)
	}
	line.Color = col
	if s.Color != nil {
		line.Color = s.Color
	}

	p.Add(line)
	if legend && s.Label != "" {
		p.Legend.Add(s.Label, line)
	}
	return nil
}
