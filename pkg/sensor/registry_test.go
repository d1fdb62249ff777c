package sensor

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ericogr/hx711-monitor/pkg/config"
)

var fourModules = []config.ChannelConfig{
	{DataPin: 5, ClockPin: 6},
	{DataPin: 26, ClockPin: 6},
	{DataPin: 20, ClockPin: 6},
	{DataPin: 16, ClockPin: 6},
}

func TestBuildZeroesEachChannel(t *testing.T) {
	f := NewFakeOpener(1)
	f.Script(5, 100)
	f.Script(26, 200)
	f.Script(20, 300)
	f.Script(16, 400)

	reg, err := Build(context.Background(), fourModules, 114, f, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if reg.Len() != 4 {
		t.Fatalf("len: got %d want 4", reg.Len())
	}
	for i, ch := range reg.Channels() {
		if ch.Index != i+1 || ch.Config != fourModules[i] {
			t.Fatalf("channel %d out of order: %+v", i, ch)
		}
		if want := float64(100 * (i + 1)); ch.Offset != want {
			t.Fatalf("channel %d offset: got %v want %v", i+1, ch.Offset, want)
		}
		if ch.ReferenceUnit != 114 {
			t.Fatalf("channel %d reference unit: got %v", i+1, ch.ReferenceUnit)
		}
		if d := ch.Driver.(*FakeDriver); d.format.ByteOrder != config.OrderMSB || d.format.BitOrder != config.OrderMSB {
			t.Fatalf("channel %d format: %+v", i+1, d.format)
		}
	}
}

func TestBuildAveragesTareSamples(t *testing.T) {
	f := NewFakeOpener(1)
	f.Script(5, 10, 20, 30, 40)
	reg, err := Build(context.Background(), fourModules[:1], 1, f, BuildOptions{TareSamples: 4})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := reg.Channels()[0].Offset; got != 25 {
		t.Fatalf("offset: got %v want 25", got)
	}
}

func TestBuildFailureReleasesClaimedPins(t *testing.T) {
	f := NewFakeOpener(1)
	busy := errors.New("device or resource busy")
	f.FailOpen(20, busy)

	reg, err := Build(context.Background(), fourModules, 114, f, BuildOptions{})
	if reg != nil {
		t.Fatalf("partial registry returned")
	}
	var initErr *DriverInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("got %T %v want *DriverInitError", err, err)
	}
	if initErr.Channel != 3 || !errors.Is(err, busy) {
		t.Fatalf("unexpected init error: %v", err)
	}
	if claimed := f.Claimed(); len(claimed) != 0 {
		t.Fatalf("pins still claimed: %v", claimed)
	}
	if want := map[int]int{5: 1, 6: 1, 26: 1}; !reflect.DeepEqual(f.Releases(), want) {
		t.Fatalf("releases: got %v want %v", f.Releases(), want)
	}
}

func TestBuildRejectsSharedDataPin(t *testing.T) {
	f := NewFakeOpener(1)
	chs := []config.ChannelConfig{{DataPin: 5, ClockPin: 6}, {DataPin: 5, ClockPin: 7}}
	_, err := Build(context.Background(), chs, 114, f, BuildOptions{})
	var initErr *DriverInitError
	if !errors.As(err, &initErr) || initErr.Channel != 2 || !errors.Is(err, ErrPinInUse) {
		t.Fatalf("got %v want DriverInitError for module 2 wrapping ErrPinInUse", err)
	}
	if len(f.Claimed()) != 0 {
		t.Fatalf("pins still claimed: %v", f.Claimed())
	}
}

func TestBuildTareFailure(t *testing.T) {
	f := NewFakeOpener(1)
	f.FailRead(26, ErrNotReady)
	_, err := Build(context.Background(), fourModules, 114, f, BuildOptions{})
	var initErr *DriverInitError
	if !errors.As(err, &initErr) || initErr.Channel != 2 || !errors.Is(err, ErrNotReady) {
		t.Fatalf("got %v want DriverInitError for module 2 wrapping ErrNotReady", err)
	}
}

func TestBuildRejectsBadFormat(t *testing.T) {
	f := NewFakeOpener(1)
	_, err := Build(context.Background(), fourModules, 114, f, BuildOptions{Format: config.ReadFormat{ByteOrder: "BE", BitOrder: config.OrderMSB}})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("got %v want ErrInvalidFormat", err)
	}
}

func TestRegistryCloseIsIdempotent(t *testing.T) {
	f := NewFakeOpener(1)
	reg, err := Build(context.Background(), fourModules, 114, f, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := reg.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
	want := map[int]int{5: 1, 6: 1, 16: 1, 20: 1, 26: 1}
	if got := f.Releases(); !reflect.DeepEqual(got, want) {
		t.Fatalf("releases: got %v want %v", got, want)
	}
}

func TestBuildFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TareSamples = 2
	f := NewFakeOpener(1)
	f.Script(5, 1, 3)
	reg, err := BuildFromConfig(context.Background(), cfg, f)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != len(cfg.Channels) || reg.Channels()[0].Offset != 2 {
		t.Fatalf("unexpected registry: len=%d offset=%v", reg.Len(), reg.Channels()[0].Offset)
	}
}

func TestNewOpenerSimulation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SensorType = config.SensorSimulation
	o, err := NewOpener(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := o.(*FakeOpener); !ok {
		t.Fatalf("got %T want *FakeOpener", o)
	}
	cfg.SensorType = "ads1115"
	if _, err := NewOpener(cfg); err == nil {
		t.Fatalf("expected error for unknown sensor type")
	}
}
