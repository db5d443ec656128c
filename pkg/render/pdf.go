package render

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

// CoverTimeFormat is the layout of the generation time on the cover page.
const CoverTimeFormat = "2006-01-02 15:04:05"

// PDFRenderer writes a report to Path: a cover page naming the source log
// and the generation time, then one chart per page.
type PDFRenderer struct {
	Path string

	// Title is printed above the source name on the cover. Optional.
	Title string

	// Source is the log file the charts were made from.
	Source string

	// Width and Height are the page size in inches.
	Width  float64
	Height float64

	// Now returns the generation time. Nil means time.Now.
	Now func() time.Time
}

// Render implements Renderer.
func (r *PDFRenderer) Render(ctx context.Context, charts []Chart) error {
	w, h := pageSize(r.Width, r.Height)
	doc := vgpdf.New(w, h)

	r.drawCover(draw.New(doc))

	for _, c := range charts {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc.NextPage()
		if err := drawChart(c, draw.New(doc)); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(r.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(r.Path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", r.Path, err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", r.Path, err)
	}
	return f.Close()
}

func (r *PDFRenderer) drawCover(dc draw.Canvas) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	lines := []struct {
		text string
		size vg.Length
	}{
		{r.Title, 28},
		{filepath.Base(r.Source), 24},
		{now().Format(CoverTimeFormat), 20},
	}

	center := dc.Center()
	y := center.Y + vg.Points(30)
	for _, l := range lines {
		if l.text == "" || l.text == "." {
			continue
		}
		sty := text.Style{
			Color:   color.Black,
			Font:    font.From(plot.DefaultFont, vg.Points(float64(l.size))),
			Handler: plot.DefaultTextHandler,
			XAlign:  draw.XCenter,
			YAlign:  draw.YCenter,
		}
		dc.FillText(sty, vg.Point{X: center.X, Y: y}, l.text)
		y -= vg.Points(float64(l.size) * 1.8)
	}
}
