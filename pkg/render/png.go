package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PNGRenderer writes one PNG per chart into Dir, named by position and
// title, e.g. 01-actual-position-and-set-position.png.
type PNGRenderer struct {
	Dir string

	// Width and Height are the image size in inches.
	Width  float64
	Height float64

	// Files lists the images written by the last Render.
	Files []string
}

// FileName returns the image name for the i-th chart.
func (r *PNGRenderer) FileName(i int, c Chart) string {
	return fmt.Sprintf("%02d-%s.png", i+1, c.Slug())
}

// Render implements Renderer.
func (r *PNGRenderer) Render(ctx context.Context, charts []Chart) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	w, h := pageSize(r.Width, r.Height)
	r.Files = r.Files[:0]

	for i, c := range charts {
		if err := ctx.Err(); err != nil {
			return err
		}

		img := vgimg.New(w, h)
		if err := drawChart(c, draw.New(img)); err != nil {
			return err
		}

		path := filepath.Join(r.Dir, r.FileName(i, c))
		if err := writePNG(path, img); err != nil {
			return err
		}
		r.Files = append(r.Files, path)
	}

	return nil
}

func writePNG(path string, img *vgimg.Canvas) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
