// Package scheduler drives the poll, publish, sleep loop until the context
// is cancelled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ericogr/hx711-monitor/pkg/output"
	"github.com/ericogr/hx711-monitor/pkg/sensor"
)

type State int32

const (
	StateInit State = iota
	StateRunning
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateShutdown:
		return "shutdown"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Registry is the set of channels polled each tick. Close releases its pins.
type Registry interface {
	Poll(ctx context.Context) (sensor.Batch, error)
	Close() error
}

type Scheduler struct {
	registry Registry
	out      output.Output
	interval time.Duration
	logger   *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	state atomic.Int32
	ticks atomic.Int64
}

func New(reg Registry, out output.Output, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		registry: reg,
		out:      out,
		interval: interval,
		logger:   logger,
		sleep:    sleepContext,
	}
}

func (s *Scheduler) State() State { return State(s.state.Load()) }

// Ticks is the number of batches published so far.
func (s *Scheduler) Ticks() int64 { return s.ticks.Load() }

// Run polls and publishes, then sleeps the full interval regardless of how
// long the tick took, so the period is interval plus work time. A tick is
// never interrupted: cancellation is only observed between ticks. On
// cancellation the registry and output are released and Run returns nil; a
// failed tick releases them too and returns the error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.state.Store(int32(StateRunning))
	tickCtx := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			return s.shutdown()
		}
		if err := s.tick(tickCtx); err != nil {
			s.logger.Error("sampling cycle failed", "tick", s.Ticks()+1, "error", err)
			if rerr := s.release(); rerr != nil {
				s.logger.Warn("release failed", "error", rerr)
			}
			return err
		}
		if err := s.sleep(ctx, s.interval); err != nil {
			return s.shutdown()
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) error {
	batch, err := s.registry.Poll(ctx)
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	if err := s.out.Publish(batch); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	n := s.ticks.Add(1)
	s.logger.Debug("tick", "n", n, "modules", len(batch.Readings))
	return nil
}

func (s *Scheduler) shutdown() error {
	s.logger.Info("Cleaning up GPIO and exiting...", "ticks", s.Ticks())
	if err := s.release(); err != nil {
		s.logger.Warn("release failed", "error", err)
	}
	return nil
}

func (s *Scheduler) release() error {
	defer s.state.Store(int32(StateShutdown))
	return errors.Join(s.registry.Close(), s.out.Close())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
