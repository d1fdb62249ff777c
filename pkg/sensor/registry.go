package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ericogr/hx711-monitor/pkg/config"
)

// BuildOptions tune how channels are initialised. The zero value reads
// MSB-first bytes and bits and zeroes each channel from a single sample.
type BuildOptions struct {
	Format      config.ReadFormat
	TareSamples int
}

// Registry owns the calibrated channels and the pins behind them for the
// lifetime of a run.
type Registry struct {
	channels []Channel
	opener   Opener
	now      func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// Build opens, formats and zeroes one channel per config, in order. On any
// failure every pin claimed so far is released and a *DriverInitError is
// returned.
func Build(ctx context.Context, chs []config.ChannelConfig, referenceUnit float64, open Opener, opts BuildOptions) (*Registry, error) {
	if opts.Format.ByteOrder == "" {
		opts.Format.ByteOrder = config.OrderMSB
	}
	if opts.Format.BitOrder == "" {
		opts.Format.BitOrder = config.OrderMSB
	}
	if opts.TareSamples <= 0 {
		opts.TareSamples = 1
	}

	channels := make([]Channel, 0, len(chs))
	dataPins := make(map[int]bool, len(chs))
	fail := func(idx int, cc config.ChannelConfig, err error) (*Registry, error) {
		_ = open.Close()
		return nil, &DriverInitError{Channel: idx, Config: cc, Err: err}
	}

	for i, cc := range chs {
		idx := i + 1
		if dataPins[cc.DataPin] {
			return fail(idx, cc, fmt.Errorf("data pin %d: %w", cc.DataPin, ErrPinInUse))
		}
		dataPins[cc.DataPin] = true

		drv, err := open.Open(cc)
		if err != nil {
			return fail(idx, cc, err)
		}
		if err := drv.SetReadingFormat(opts.Format); err != nil {
			return fail(idx, cc, err)
		}
		offset, err := tare(ctx, drv, opts.TareSamples)
		if err != nil {
			return fail(idx, cc, fmt.Errorf("autoset offset: %w", err))
		}
		channels = append(channels, Channel{
			Index:         idx,
			Config:        cc,
			Offset:        offset,
			ReferenceUnit: referenceUnit,
			Driver:        drv,
		})
	}
	return &Registry{channels: channels, opener: open, now: time.Now}, nil
}

// tare averages n raw samples taken with no load on the cell.
func tare(ctx context.Context, drv Driver, n int) (float64, error) {
	var sum float64
	for i := 0; i < n; i++ {
		raw, err := drv.ReadRaw(ctx)
		if err != nil {
			return 0, err
		}
		sum += float64(raw)
	}
	return sum / float64(n), nil
}

func (r *Registry) Len() int { return len(r.channels) }

// Channels returns a copy of the channels in configuration order.
func (r *Registry) Channels() []Channel {
	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// Poll runs one sampling cycle over the registry's channels.
func (r *Registry) Poll(ctx context.Context) (Batch, error) {
	return Poll(ctx, r.channels, r.now())
}

// Close releases every pin held by the registry. Only the first call does
// any work; later calls return the same result.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.opener.Close()
	})
	return r.closeErr
}
