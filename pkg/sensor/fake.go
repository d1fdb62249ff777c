package sensor

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/ericogr/hx711-monitor/pkg/config"
)

// FakeOpener hands out simulated drivers and keeps track of which pins were
// claimed and how many times each was released.
type FakeOpener struct {
	mu       sync.Mutex
	rng      *rand.Rand
	scripts  map[int][]int32
	openErr  map[int]error
	readErr  map[int]error
	claimed  map[int]bool
	releases map[int]int
	opened   []config.ChannelConfig
}

func NewFakeOpener(seed int64) *FakeOpener {
	return &FakeOpener{
		rng:      rand.New(rand.NewSource(seed)),
		scripts:  map[int][]int32{},
		openErr:  map[int]error{},
		readErr:  map[int]error{},
		claimed:  map[int]bool{},
		releases: map[int]int{},
	}
}

// Script queues raw samples for the driver on dataPin. The last sample keeps
// repeating once the queue is drained.
func (f *FakeOpener) Script(dataPin int, raws ...int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[dataPin] = append(f.scripts[dataPin], raws...)
}

// FailOpen makes opening any channel that uses pin fail with err.
func (f *FakeOpener) FailOpen(pin int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr[pin] = err
}

// FailRead makes every read on dataPin fail with err.
func (f *FakeOpener) FailRead(dataPin int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr[dataPin] = err
}

func (f *FakeOpener) Open(ch config.ChannelConfig) (Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pin := range []int{ch.DataPin, ch.ClockPin} {
		if err, ok := f.openErr[pin]; ok {
			return nil, fmt.Errorf("pin %d: %w", pin, err)
		}
	}
	f.claimed[ch.DataPin] = true
	f.claimed[ch.ClockPin] = true
	f.opened = append(f.opened, ch)
	base := int32(8000 + 100*ch.DataPin)
	return &FakeDriver{opener: f, dataPin: ch.DataPin, base: base}, nil
}

// Close releases every claimed pin and counts the release.
func (f *FakeOpener) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pin := range f.claimed {
		f.releases[pin]++
	}
	f.claimed = map[int]bool{}
	return nil
}

// Releases reports how many times each pin was released.
func (f *FakeOpener) Releases() map[int]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]int, len(f.releases))
	for k, v := range f.releases {
		out[k] = v
	}
	return out
}

// Claimed lists the pins currently held, sorted.
func (f *FakeOpener) Claimed() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.claimed))
	for pin := range f.claimed {
		out = append(out, pin)
	}
	sort.Ints(out)
	return out
}

func (f *FakeOpener) next(dataPin int, base int32) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.readErr[dataPin]; ok {
		return 0, err
	}
	if q := f.scripts[dataPin]; len(q) > 0 {
		raw := q[0]
		if len(q) > 1 {
			f.scripts[dataPin] = q[1:]
		}
		return raw, nil
	}
	// simulate a cell carrying up to ~20 g at the default reference unit
	return base + int32(f.rng.Intn(2280)), nil
}

// FakeDriver produces scripted or random raw samples for one channel.
type FakeDriver struct {
	opener  *FakeOpener
	dataPin int
	base    int32
	format  config.ReadFormat
	reads   int
}

func (d *FakeDriver) SetReadingFormat(f config.ReadFormat) error {
	if !validOrder(f.ByteOrder) || !validOrder(f.BitOrder) {
		return fmt.Errorf("%w: byte=%q bit=%q", ErrInvalidFormat, f.ByteOrder, f.BitOrder)
	}
	d.format = f
	return nil
}

func (d *FakeDriver) ReadRaw(ctx context.Context) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.reads++
	return d.opener.next(d.dataPin, d.base)
}

func (d *FakeDriver) RawToWeight(raw int32, offset, referenceUnit float64) float64 {
	return rawToWeight(raw, offset, referenceUnit)
}

// Reads counts the ReadRaw calls made with a live context.
func (d *FakeDriver) Reads() int { return d.reads }
