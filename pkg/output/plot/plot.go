// Package plot keeps a rolling window of weights per channel and redraws it
// after every batch.
package plot

import (
	"fmt"
	"time"

	"github.com/ericogr/hx711-monitor/pkg/sensor"
)

const (
	DefaultHistory = 100

	clockLayout = "15:04:05"
)

// Frame is the window handed to a renderer: one series per channel, x being
// the position in the window.
type Frame struct {
	Labels []string
	Series [][]float64
	Times  []time.Time
}

// Window describes the time span covered by the frame, e.g. "14:41:54 - 14:43:33".
func (f Frame) Window() string {
	if len(f.Times) == 0 {
		return ""
	}
	first, last := f.Times[0], f.Times[len(f.Times)-1]
	return first.Format(clockLayout) + " - " + last.Format(clockLayout)
}

// Renderer draws a frame. Bounds are fitted to the data on every call.
type Renderer interface {
	Render(Frame) error
	Close() error
}

type PlotOutput struct {
	renderer Renderer
	labels   []string
	weights  []*History[float64]
	times    *History[time.Time]
}

// New creates a plot output for channels series of capacity samples each.
func New(channels, capacity int, r Renderer) (*PlotOutput, error) {
	if channels < 1 {
		return nil, fmt.Errorf("plot needs at least one channel, got %d", channels)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("history must be >= 1, got %d", capacity)
	}
	p := &PlotOutput{
		renderer: r,
		labels:   make([]string, channels),
		weights:  make([]*History[float64], channels),
		times:    NewHistory[time.Time](capacity),
	}
	for i := range p.weights {
		p.labels[i] = fmt.Sprintf("Module %d", i+1)
		p.weights[i] = NewHistory[float64](capacity)
	}
	return p, nil
}

// Publish appends the batch to the window and redraws every series.
func (p *PlotOutput) Publish(b sensor.Batch) error {
	if len(b.Readings) != len(p.weights) {
		return fmt.Errorf("batch has %d readings, plot has %d channels", len(b.Readings), len(p.weights))
	}
	for _, r := range b.Readings {
		if r.Channel < 1 || r.Channel > len(p.weights) {
			return fmt.Errorf("reading for unknown module %d", r.Channel)
		}
	}
	for _, r := range b.Readings {
		p.weights[r.Channel-1].Append(r.Weight)
	}
	p.times.Append(b.Timestamp)
	return p.renderer.Render(p.Frame())
}

// Frame snapshots the current window.
func (p *PlotOutput) Frame() Frame {
	f := Frame{
		Labels: append([]string(nil), p.labels...),
		Series: make([][]float64, len(p.weights)),
		Times:  p.times.Values(),
	}
	for i, h := range p.weights {
		f.Series[i] = h.Values()
	}
	return f
}

func (p *PlotOutput) Close() error { return p.renderer.Close() }
