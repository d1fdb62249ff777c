package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/ericogr/hx711-monitor/pkg/config"
)

// NewOpener picks the pin backend for the configured sensor type.
func NewOpener(cfg config.Config) (Opener, error) {
	switch cfg.SensorType {
	case config.SensorReal:
		o, err := NewGPIOOpener(cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	case config.SensorSimulation:
		return NewFakeOpener(time.Now().UnixNano()), nil
	}
	return nil, fmt.Errorf("unknown sensor type %q", cfg.SensorType)
}

// BuildFromConfig builds the registry for every configured channel with the
// shared reference unit, read format and tare settings.
func BuildFromConfig(ctx context.Context, cfg config.Config, open Opener) (*Registry, error) {
	return Build(ctx, cfg.Channels, cfg.ReferenceUnit, open, BuildOptions{
		Format:      cfg.ReadFormat,
		TareSamples: cfg.TareSamples,
	})
}
