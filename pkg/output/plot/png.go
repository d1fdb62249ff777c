package plot

import (
	"fmt"
	"os"
	"path/filepath"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PNGRenderer rewrites an image of the window on every redraw. The file is
// replaced atomically so viewers never see a half-written image.
type PNGRenderer struct {
	path          string
	width, height vg.Length
}

func NewPNGRenderer(path string) *PNGRenderer {
	return &PNGRenderer{path: path, width: 8 * vg.Inch, height: 4 * vg.Inch}
}

func (r *PNGRenderer) Render(f Frame) error {
	p := gplot.New()
	p.Title.Text = "HX711 " + f.Window()
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Weight (g)"
	p.Add(plotter.NewGrid())

	for i, s := range f.Series {
		xys := make(plotter.XYs, len(s))
		for j, v := range s {
			xys[j].X = float64(j)
			xys[j].Y = v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("series %s: %w", f.Labels[i], err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(f.Labels[i], line)
	}

	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".hx711-*.png")
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := wt.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace png: %w", err)
	}
	return nil
}

func (r *PNGRenderer) Close() error { return nil }
