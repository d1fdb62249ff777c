package sensor

import (
	"errors"
	"fmt"

	"github.com/ericogr/hx711-monitor/pkg/config"
)

var (
	ErrPinInUse      = errors.New("pin already in use")
	ErrUnknownPin    = errors.New("unknown pin")
	ErrNotReady      = errors.New("hx711 not ready")
	ErrInvalidFormat = errors.New("invalid reading format")
	ErrInvalidGain   = errors.New("invalid gain")
	ErrClosed        = errors.New("opener closed")
)

// DriverInitError reports a channel that could not be claimed or zeroed at
// startup.
type DriverInitError struct {
	Channel int
	Config  config.ChannelConfig
	Err     error
}

func (e *DriverInitError) Error() string {
	return fmt.Sprintf("init module %d (data=%d clock=%d): %v", e.Channel, e.Config.DataPin, e.Config.ClockPin, e.Err)
}

func (e *DriverInitError) Unwrap() error { return e.Err }

// ReadError reports a failed raw acquisition during a sampling cycle.
type ReadError struct {
	Channel int
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read module %d: %v", e.Channel, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
