package sensor

import (
	"context"
	"time"

	"github.com/ericogr/hx711-monitor/pkg/config"
)

// Reading is one calibrated sample. Channel is 1-based and follows the
// configuration order.
type Reading struct {
	Channel   int       `json:"channel"`
	Raw       int32     `json:"raw"`
	Weight    float64   `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
}

// Batch holds one reading per configured channel, in configuration order.
type Batch struct {
	Timestamp time.Time `json:"timestamp"`
	Readings  []Reading `json:"readings"`
}

// Driver talks to one amplifier. Calibration is owned by the caller and
// passed to RawToWeight on every conversion.
type Driver interface {
	SetReadingFormat(f config.ReadFormat) error
	ReadRaw(ctx context.Context) (int32, error)
	RawToWeight(raw int32, offset, referenceUnit float64) float64
}

// Opener claims the pins of a channel and returns its driver. Close releases
// every pin claimed through Open.
type Opener interface {
	Open(ch config.ChannelConfig) (Driver, error)
	Close() error
}

// Channel is a calibrated driver. It is never modified after Build.
type Channel struct {
	Index         int
	Config        config.ChannelConfig
	Offset        float64
	ReferenceUnit float64
	Driver        Driver
}

// Weight converts raw using this channel's own calibration.
func (c Channel) Weight(raw int32) float64 {
	return c.Driver.RawToWeight(raw, c.Offset, c.ReferenceUnit)
}

// rawToWeight is the HX711 conversion shared by the drivers in this package.
func rawToWeight(raw int32, offset, referenceUnit float64) float64 {
	return (float64(raw) - offset) / referenceUnit
}
