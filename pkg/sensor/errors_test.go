package sensor

import (
	"errors"
	"testing"

	"github.com/ericogr/hx711-monitor/pkg/config"
)

func TestErrorsAreStableStrings(t *testing.T) {
	cases := map[string]error{
		"pin already in use":     ErrPinInUse,
		"unknown pin":            ErrUnknownPin,
		"hx711 not ready":        ErrNotReady,
		"invalid reading format": ErrInvalidFormat,
		"invalid gain":           ErrInvalidGain,
		"opener closed":          ErrClosed,
	}
	for want, e := range cases {
		if e == nil || e.Error() != want {
			t.Fatalf("error %q mismatch: got %#v", want, e)
		}
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	initErr := &DriverInitError{Channel: 2, Config: config.ChannelConfig{DataPin: 26, ClockPin: 6}, Err: ErrPinInUse}
	if got, want := initErr.Error(), "init module 2 (data=26 clock=6): pin already in use"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if !errors.Is(initErr, ErrPinInUse) {
		t.Fatalf("DriverInitError does not unwrap")
	}

	readErr := &ReadError{Channel: 3, Err: ErrNotReady}
	if got, want := readErr.Error(), "read module 3: hx711 not ready"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if !errors.Is(readErr, ErrNotReady) {
		t.Fatalf("ReadError does not unwrap")
	}
}
