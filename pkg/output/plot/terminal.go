package plot

import (
	"fmt"
	"io"
	"sync"

	"github.com/guptarohit/asciigraph"
)

const clearScreen = "\033[H\033[2J"

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Blue,
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Magenta,
	asciigraph.Cyan,
}

// TerminalRenderer redraws the window as an ANSI chart in place.
type TerminalRenderer struct {
	w      io.Writer
	height int

	closeOnce sync.Once
}

func NewTerminalRenderer(w io.Writer, height int) *TerminalRenderer {
	return &TerminalRenderer{w: w, height: height}
}

func (t *TerminalRenderer) Render(f Frame) error {
	if len(f.Series) == 0 || len(f.Series[0]) == 0 {
		return nil
	}
	colors := make([]asciigraph.AnsiColor, len(f.Series))
	for i := range colors {
		colors[i] = seriesColors[i%len(seriesColors)]
	}
	opts := []asciigraph.Option{
		asciigraph.Precision(2),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(f.Labels...),
		asciigraph.Caption(fmt.Sprintf("Weight (g) | Time %s", f.Window())),
	}
	if t.height > 0 {
		opts = append(opts, asciigraph.Height(t.height))
	}
	graph := asciigraph.PlotMany(f.Series, opts...)
	_, err := fmt.Fprintf(t.w, "%s%s\n", clearScreen, graph)
	return err
}

// Close leaves the cursor on a fresh line below the last chart.
func (t *TerminalRenderer) Close() error {
	var err error
	t.closeOnce.Do(func() {
		_, err = io.WriteString(t.w, "\n")
	})
	return err
}
