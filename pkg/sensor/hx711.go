package sensor

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ericogr/hx711-monitor/pkg/config"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	hx711DataBits = 24
	readyPoll     = time.Millisecond
)

// GPIOOpener claims BCM pins through periph.io and hands out HX711 drivers.
// Clock pins may be shared between channels; data pins may not.
type GPIOOpener struct {
	byName       func(name string) gpio.PinIO
	gainPulses   int
	readyTimeout time.Duration

	mu      sync.Mutex
	pins    map[int]gpio.PinIO
	roles   map[int]string
	closed  bool
	release error
}

func NewGPIOOpener(cfg config.Config) (*GPIOOpener, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	return newGPIOOpener(gpioreg.ByName, cfg.Gain, cfg.ReadyTimeout())
}

func newGPIOOpener(byName func(string) gpio.PinIO, gain int, readyTimeout time.Duration) (*GPIOOpener, error) {
	pulses, err := gainPulses(gain)
	if err != nil {
		return nil, err
	}
	if readyTimeout <= 0 {
		readyTimeout = time.Second
	}
	return &GPIOOpener{
		byName:       byName,
		gainPulses:   pulses,
		readyTimeout: readyTimeout,
		pins:         make(map[int]gpio.PinIO),
		roles:        make(map[int]string),
	}, nil
}

func (o *GPIOOpener) Open(ch config.ChannelConfig) (Driver, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, ErrClosed
	}
	if role, ok := o.roles[ch.DataPin]; ok {
		return nil, fmt.Errorf("data pin %d (held as %s): %w", ch.DataPin, role, ErrPinInUse)
	}
	if role, ok := o.roles[ch.ClockPin]; ok && role != "clock" {
		return nil, fmt.Errorf("clock pin %d (held as %s): %w", ch.ClockPin, role, ErrPinInUse)
	}

	data := o.byName(strconv.Itoa(ch.DataPin))
	if data == nil {
		return nil, fmt.Errorf("data pin %d: %w", ch.DataPin, ErrUnknownPin)
	}
	clock, shared := o.pins[ch.ClockPin]
	if !shared {
		clock = o.byName(strconv.Itoa(ch.ClockPin))
		if clock == nil {
			return nil, fmt.Errorf("clock pin %d: %w", ch.ClockPin, ErrUnknownPin)
		}
	}

	if err := data.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("data pin %d input: %w", ch.DataPin, err)
	}
	o.pins[ch.DataPin] = data
	o.roles[ch.DataPin] = "data"

	if !shared {
		if err := clock.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("clock pin %d output: %w", ch.ClockPin, err)
		}
		o.pins[ch.ClockPin] = clock
		o.roles[ch.ClockPin] = "clock"
	}

	return &HX711{
		data:         data,
		clock:        clock,
		gainPulses:   o.gainPulses,
		readyTimeout: o.readyTimeout,
		format:       config.ReadFormat{ByteOrder: config.OrderMSB, BitOrder: config.OrderMSB},
	}, nil
}

// Close drives clock lines low and halts every claimed pin once, in pin order.
func (o *GPIOOpener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return o.release
	}
	o.closed = true

	nums := make([]int, 0, len(o.pins))
	for n := range o.pins {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var errs []error
	for _, n := range nums {
		p := o.pins[n]
		if o.roles[n] == "clock" {
			if err := p.Out(gpio.Low); err != nil {
				errs = append(errs, fmt.Errorf("pin %d low: %w", n, err))
			}
		}
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("pin %d halt: %w", n, err))
		}
	}
	o.pins = map[int]gpio.PinIO{}
	o.roles = map[int]string{}
	o.release = errors.Join(errs...)
	return o.release
}

// HX711 bit-bangs one amplifier: wait for DOUT low, shift 24 bits out on the
// clock, then add 1 to 3 pulses that select the gain of the next conversion.
type HX711 struct {
	data         gpio.PinIO
	clock        gpio.PinIO
	gainPulses   int
	readyTimeout time.Duration
	format       config.ReadFormat
}

func (h *HX711) SetReadingFormat(f config.ReadFormat) error {
	if !validOrder(f.ByteOrder) || !validOrder(f.BitOrder) {
		return fmt.Errorf("%w: byte=%q bit=%q", ErrInvalidFormat, f.ByteOrder, f.BitOrder)
	}
	h.format = f
	return nil
}

func (h *HX711) ReadRaw(ctx context.Context) (int32, error) {
	if err := h.waitReady(ctx); err != nil {
		return 0, err
	}
	var buf [3]byte
	for i := range buf {
		b, err := h.shiftIn()
		if err != nil {
			return 0, err
		}
		buf[i] = b
	}
	for i := 0; i < h.gainPulses; i++ {
		if err := h.pulse(); err != nil {
			return 0, err
		}
	}
	return decodeRaw(buf, h.format), nil
}

func (h *HX711) RawToWeight(raw int32, offset, referenceUnit float64) float64 {
	return rawToWeight(raw, offset, referenceUnit)
}

func (h *HX711) waitReady(ctx context.Context) error {
	deadline := time.Now().Add(h.readyTimeout)
	for h.data.Read() != gpio.Low {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %v", ErrNotReady, h.readyTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPoll):
		}
	}
	return nil
}

func (h *HX711) shiftIn() (byte, error) {
	var b byte
	for i := 0; i < 8; i++ {
		if err := h.clock.Out(gpio.High); err != nil {
			return 0, fmt.Errorf("clock high: %w", err)
		}
		b <<= 1
		if h.data.Read() == gpio.High {
			b |= 1
		}
		if err := h.clock.Out(gpio.Low); err != nil {
			return 0, fmt.Errorf("clock low: %w", err)
		}
	}
	return b, nil
}

func (h *HX711) pulse() error {
	if err := h.clock.Out(gpio.High); err != nil {
		return fmt.Errorf("clock high: %w", err)
	}
	if err := h.clock.Out(gpio.Low); err != nil {
		return fmt.Errorf("clock low: %w", err)
	}
	return nil
}

// decodeRaw orders the three bytes as shifted in (MSB bits first, MSB byte
// first) according to f and sign-extends the 24-bit two's complement value.
func decodeRaw(buf [3]byte, f config.ReadFormat) int32 {
	if f.BitOrder == config.OrderLSB {
		for i := range buf {
			buf[i] = bits.Reverse8(buf[i])
		}
	}
	if f.ByteOrder == config.OrderLSB {
		buf[0], buf[2] = buf[2], buf[0]
	}
	v := int32(buf[0])<<16 | int32(buf[1])<<8 | int32(buf[2])
	if v&(1<<(hx711DataBits-1)) != 0 {
		v -= 1 << hx711DataBits
	}
	return v
}

// gainPulses maps a gain to the extra clock pulses after the data bits:
// channel A at 128 takes 1, channel B at 32 takes 2, channel A at 64 takes 3.
func gainPulses(gain int) (int, error) {
	switch gain {
	case 128:
		return 1, nil
	case 32:
		return 2, nil
	case 64:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidGain, gain)
}

func validOrder(s string) bool {
	return s == config.OrderMSB || s == config.OrderLSB
}
