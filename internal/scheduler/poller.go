package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CycleFunc runs one poll cycle.
type CycleFunc interface {
	RunCycle(ctx context.Context) (CycleStats, error)
}

// Poller drives the cycle runner on a fixed wall-clock interval. One eager
// cycle runs at startup (the rising edge) so interactive debugging does not
// wait a full interval.
//
// Two cycles never run concurrently: cycles execute synchronously on the
// loop goroutine, and an explicit single-flight guard protects against
// external RunNow callers. A tick arriving while a cycle is still executing
// is skipped, never interleaved, so diff comparisons against stored watcher
// records cannot overlap.
type Poller struct {
	runner   CycleFunc
	interval time.Duration
	logger   *slog.Logger

	mu sync.Mutex // held for the duration of one cycle
}

// NewPoller creates a Poller.
func NewPoller(runner CycleFunc, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run loops until the context is cancelled. Cancellation between cycles is
// safe: each watcher's store write is the unit of atomicity, so an abandoned
// cycle corrupts nothing.
func (p *Poller) Run(ctx context.Context) error {
	// Rising edge.
	p.RunNow(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "poller stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			p.RunNow(ctx)
		}
	}
}

// RunNow executes a single cycle immediately, unless one is already in
// flight, in which case the request is skipped.
func (p *Poller) RunNow(ctx context.Context) {
	if !p.mu.TryLock() {
		p.logger.WarnContext(ctx, "cycle still running, skipping trigger")
		return
	}
	defer p.mu.Unlock()

	started := time.Now()
	if _, err := p.runner.RunCycle(ctx); err != nil {
		p.logger.ErrorContext(ctx, "poll cycle failed",
			"error", err,
			"duration", time.Since(started),
		)
		return
	}

	if elapsed := time.Since(started); elapsed > p.interval {
		p.logger.WarnContext(ctx, "poll cycle overran interval",
			"duration", elapsed,
			"interval", p.interval,
		)
	}
}
