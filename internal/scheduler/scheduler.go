package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/angeloszaimis/go-metrics/internal/ewma"
	"github.com/angeloszaimis/go-metrics/internal/processor"
)

// Scheduler ticks a processor's metrics at the cadence their moving averages
// were built for.
type Scheduler struct {
	processor *processor.Processor
	logger    *slog.Logger
	clock     clock.Clock
	interval  time.Duration

	mutex   sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}

	ticks atomic.Uint64
}

// New creates a scheduler for p. A nil clk uses the wall clock.
func New(p *processor.Processor, logger *slog.Logger, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}

	return &Scheduler{
		processor: p,
		logger:    logger,
		clock:     clk,
		interval:  ewma.Interval,
	}
}

// Start launches the tick loop. It runs until ctx is done or Stop is called.
// Starting an already running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.stopped = make(chan struct{})

	// Created here so a mock clock advanced right after Start already sees it.
	ticker := s.clock.Ticker(s.interval)

	go s.run(ctx, ticker, s.stopped)
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.mutex.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-stopped
}

// Ticks returns how many tick tasks have run on the worker.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

func (s *Scheduler) run(ctx context.Context, ticker *clock.Ticker, stopped chan<- struct{}) {
	defer close(stopped)
	defer ticker.Stop()

	s.logger.Info("Scheduler started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return

		case <-ticker.C:
			s.processor.Execute(s.tick)
		}
	}
}

func (s *Scheduler) tick() {
	processor.TickAll(s.processor)

	if removed := processor.Sweep(s.processor); removed > 0 {
		s.logger.Debug("Swept released counters", slog.Int("removed", removed))
	}

	s.ticks.Add(1)
}
