// Package scheduler implements the poll cycle controller: one complete pass
// over all registered watchers on a fixed interval, with per-watcher failure
// isolation and a liveness heartbeat at cycle end.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jacobstr/crusher/internal/notifications"
	"github.com/jacobstr/crusher/internal/types"
)

// WatcherConcurrencyLimit bounds how many watchers are processed in parallel
// within one cycle. Watchers share no mutable state beyond their own record,
// so parallelism is safe; the limit keeps upstream pressure bounded.
const WatcherConcurrencyLimit = 4

// WatcherLister is the read side of the watcher store the cycle needs.
type WatcherLister interface {
	List(ctx context.Context) ([]types.Watcher, error)
}

// Searcher computes the ranked result set for one watcher.
type Searcher interface {
	SearchWatcher(ctx context.Context, w types.Watcher) ([]types.Result, error)
}

// ResultApplier persists a freshly computed result set and applies the
// notification policy. This is the watcher service's single write path.
type ResultApplier interface {
	ApplyResults(ctx context.Context, watcherID string, results []types.Result) (*types.Watcher, notifications.Decision, error)
}

// CycleStats summarizes one completed poll cycle.
type CycleStats struct {
	Watchers int
	Failed   int
	Notified int
}

// CycleRunner executes one poll cycle over all watchers.
type CycleRunner struct {
	watchers  WatcherLister
	search    Searcher
	applier   ResultApplier
	heartbeat types.Heartbeat
	logger    *slog.Logger
}

// CycleRunnerConfig holds the construction parameters for a CycleRunner.
type CycleRunnerConfig struct {
	Watchers  WatcherLister
	Search    Searcher
	Applier   ResultApplier
	Heartbeat types.Heartbeat
	Logger    *slog.Logger
}

// NewCycleRunner creates a CycleRunner.
func NewCycleRunner(cfg CycleRunnerConfig) *CycleRunner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CycleRunner{
		watchers:  cfg.Watchers,
		search:    cfg.Search,
		applier:   cfg.Applier,
		heartbeat: cfg.Heartbeat,
		logger:    logger,
	}
}

// RunCycle fetches the watcher list once (a stale snapshot for the cycle's
// duration — watchers added mid-cycle are picked up next time) and processes
// each watcher: search, then persist-and-notify through the applier. One
// watcher's failure is logged and never stops the others. The heartbeat is
// recorded at cycle end even when individual watchers failed, since its
// absence is the sole crash-detection signal.
func (c *CycleRunner) RunCycle(ctx context.Context) (CycleStats, error) {
	watchers, err := c.watchers.List(ctx)
	if err != nil {
		// Without a watcher list there is no work, but the process is
		// alive; beat and report.
		c.beat(ctx)
		return CycleStats{}, err
	}

	c.logger.InfoContext(ctx, "running watcher loop", "watchers", len(watchers))

	var (
		mu    sync.Mutex
		stats = CycleStats{Watchers: len(watchers)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(WatcherConcurrencyLimit)
	for _, w := range watchers {
		g.Go(func() error {
			notified, err := c.runWatcher(gctx, w)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
			} else if notified {
				stats.Notified++
			}
			return nil
		})
	}
	_ = g.Wait()

	c.beat(ctx)

	c.logger.InfoContext(ctx, "poll cycle complete",
		"watchers", stats.Watchers,
		"failed", stats.Failed,
		"notified", stats.Notified,
	)
	return stats, nil
}

// runWatcher processes a single watcher end to end. All work for one watcher,
// including the persisted write-back, completes here before the watcher
// counts as done.
func (c *CycleRunner) runWatcher(ctx context.Context, w types.Watcher) (bool, error) {
	results, err := c.search.SearchWatcher(ctx, w)
	if err != nil {
		c.logger.ErrorContext(ctx, "watcher search failed",
			"watcher_id", w.ID,
			"tag", w.CampgroundTag,
			"error", err,
		)
		return false, err
	}

	_, decision, err := c.applier.ApplyResults(ctx, w.ID, results)
	if err != nil {
		// The in-memory results are lost for this cycle; they will be
		// recomputed next cycle.
		c.logger.ErrorContext(ctx, "failed to persist watcher results",
			"watcher_id", w.ID,
			"error", err,
		)
		return false, err
	}
	return decision.Notify, nil
}

func (c *CycleRunner) beat(ctx context.Context) {
	if c.heartbeat == nil {
		return
	}
	if err := c.heartbeat.Beat(ctx); err != nil {
		c.logger.ErrorContext(ctx, "failed to record heartbeat", "error", err)
	}
}
