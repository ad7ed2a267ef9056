package availability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jacobstr/crusher/internal/types"
)

// CampgroundConcurrencyLimit bounds concurrent upstream fetch pipelines for
// one watcher, to avoid hammering the provider when a tag resolves to many
// campgrounds.
const CampgroundConcurrencyLimit = 4

// Service runs the per-watcher availability search: resolve the watcher's
// tag to campgrounds, fetch/merge/score each campground independently, and
// return the aggregate ranked result list.
type Service struct {
	source    types.AvailabilitySource
	directory types.CampgroundDirectory
	alerts    types.AlertSink
	logger    *slog.Logger
}

// ServiceConfig holds the construction parameters for a Service.
type ServiceConfig struct {
	Source    types.AvailabilitySource
	Directory types.CampgroundDirectory
	// Alerts optionally receives operational alerts on upstream fetch
	// failures. May be nil.
	Alerts types.AlertSink
	Logger *slog.Logger
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:    cfg.Source,
		directory: cfg.Directory,
		alerts:    cfg.Alerts,
		logger:    logger,
	}
}

// SearchWatcher computes the full ranked result set for one watcher.
//
// A tag resolving to zero campgrounds is valid and yields an empty result
// set. Campgrounds run independently: an upstream failure in one abandons
// that campground's contribution for this cycle (after an optional
// best-effort ops alert) without affecting the others. Only input errors
// (bad date, bad length) fail the whole run.
func (s *Service) SearchWatcher(ctx context.Context, w types.Watcher) ([]types.Result, error) {
	window, err := ResolveWindow(w.Start, w.Length)
	if err != nil {
		return nil, err
	}

	campgrounds, err := s.directory.ByTag(ctx, w.CampgroundTag)
	if err != nil {
		// Directory trouble degrades to an empty campground set for this
		// cycle, matching the "unknown tag is not an error" contract.
		s.logger.ErrorContext(ctx, "campground directory lookup failed, proceeding with none",
			"watcher_id", w.ID,
			"tag", w.CampgroundTag,
			"error", err,
		)
		campgrounds = nil
	}

	var (
		mu       sync.Mutex
		combined []types.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(CampgroundConcurrencyLimit)
	for _, cg := range campgrounds {
		g.Go(func() error {
			results, err := s.searchCampground(gctx, w, window, cg)
			if err != nil {
				// Abandon this campground's contribution only.
				s.logger.ErrorContext(gctx, "campground search failed",
					"watcher_id", w.ID,
					"campground_id", cg.ID,
					"error", err,
				)
				s.alertFetchFailure(gctx, w, cg, err)
				return nil
			}
			mu.Lock()
			combined = append(combined, results...)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only observes context cancellation.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "watcher search cancelled", err)
	}

	Rank(combined)
	return combined, nil
}

// searchCampground runs the fetch → merge → score pipeline for a single
// campground. One request is issued per distinct month the window touches,
// at most two; a failure on either request abandons the campground.
func (s *Service) searchCampground(ctx context.Context, w types.Watcher, window Window, cg types.Campground) ([]types.Result, error) {
	var payloads []*types.MonthAvailability
	for _, month := range window.Months() {
		payload, err := s.source.FetchMonth(ctx, cg.ID, month)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}

	merged := MergeSites(payloads)
	results := ScoreSites(merged, window, w.Start, cg)

	s.logger.DebugContext(ctx, "campground scored",
		"watcher_id", w.ID,
		"campground_id", cg.ID,
		"sites_seen", len(merged),
		"sites_matched", len(results),
	)
	return results, nil
}

// alertFetchFailure emits a best-effort operational alert about an upstream
// failure. Alerting trouble is swallowed by the sink.
func (s *Service) alertFetchFailure(ctx context.Context, w types.Watcher, cg types.Campground, err error) {
	if s.alerts == nil {
		return
	}
	s.alerts.Alert(ctx, fmt.Sprintf(
		"Campsite search failed for %s at %s: %v", w.UserID, cg.ShortName, err,
	))
}
