// Package watchers implements the watcher lifecycle service: registration,
// silencing, cancellation, and the single write path through which freshly
// computed results enter storage and the notification policy is applied.
package watchers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jacobstr/crusher/internal/availability"
	"github.com/jacobstr/crusher/internal/notifications"
	"github.com/jacobstr/crusher/internal/types"
)

// EventPublisher receives best-effort watcher lifecycle events. Publish
// implementations must swallow their own failures.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, w types.Watcher)
}

// Lifecycle event types emitted through the EventPublisher.
const (
	EventWatcherCreated   = "watcher.created"
	EventWatcherCancelled = "watcher.cancelled"
	EventWatcherSilenced  = "watcher.silenced"
)

// Service owns all mutations of watcher records. Both the in-process poll
// cycle and the HTTP results-ingestion endpoint funnel result writes through
// ApplyResults, keeping the update path single.
type Service struct {
	repo      types.WatcherRepository
	directory types.CampgroundDirectory
	notifier  types.Notifier
	events    EventPublisher
	validate  *validator.Validate
	clock     types.Clock
	logger    *slog.Logger
}

// ServiceConfig holds the construction parameters for a Service.
type ServiceConfig struct {
	Repo      types.WatcherRepository
	Directory types.CampgroundDirectory
	Notifier  types.Notifier
	// Events optionally receives lifecycle events. May be nil.
	Events EventPublisher
	Clock  types.Clock
	Logger *slog.Logger
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Service{
		repo:      cfg.Repo,
		directory: cfg.Directory,
		notifier:  cfg.Notifier,
		events:    cfg.Events,
		validate:  validator.New(),
		clock:     clock,
		logger:    logger,
	}
}

// CreateInput is the registration request for a new watcher.
type CreateInput struct {
	UserID        string `validate:"required"`
	CampgroundTag string `validate:"required"`
	Start         string `validate:"required"`
	Length        int    `validate:"required"`
}

// Create registers a new watcher. The start date and length are validated
// through the same window resolution the poll cycle uses, and the campground
// tag must resolve to at least one known campground.
func (s *Service) Create(ctx context.Context, input CreateInput) (*types.Watcher, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationBadRequest,
			"missing required watcher fields", err)
	}

	if _, err := availability.ResolveWindow(input.Start, input.Length); err != nil {
		return nil, err
	}

	matches, err := s.directory.ByTag(ctx, input.CampgroundTag)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		known, _ := s.directory.Tags(ctx)
		return nil, types.NewAppError(types.ErrCodeValidationUnknownTag,
			fmt.Sprintf("unknown camping area %q", input.CampgroundTag), nil,
		).WithDetails(map[string]any{"known_tags": known})
	}

	now := s.clock.Now()
	w := &types.Watcher{
		ID:            uuid.NewString(),
		UserID:        input.UserID,
		CampgroundTag: input.CampgroundTag,
		Start:         input.Start,
		Length:        input.Length,
		Silenced:      false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}

	s.publish(ctx, EventWatcherCreated, *w)
	return w, nil
}

// ApplyResults replaces a watcher's stored results with a freshly computed
// set and applies the notification policy. The store write is unconditional;
// the notification is emitted only when the policy decides the new set is a
// notify-worthy change. Delivery failures are logged, never propagated.
func (s *Service) ApplyResults(ctx context.Context, watcherID string, results []types.Result) (*types.Watcher, notifications.Decision, error) {
	w, err := s.repo.Get(ctx, watcherID)
	if err != nil {
		return nil, notifications.Decision{}, err
	}

	previous := w.Results
	w.Results = results
	w.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, w); err != nil {
		return nil, notifications.Decision{}, err
	}

	decision := notifications.Evaluate(previous, results, w.Silenced)
	if decision.Notify {
		if err := s.notifier.NotifyResults(ctx, w.UserID, results); err != nil {
			s.logger.ErrorContext(ctx, "result notification failed",
				"watcher_id", w.ID,
				"recipient", w.UserID,
				"error", err,
			)
		}
	}

	s.logger.InfoContext(ctx, "applied watcher results",
		"watcher_id", w.ID,
		"results", len(results),
		"notify", decision.Notify,
		"reason", decision.Reason,
	)
	return w, decision, nil
}

// SetSilenced toggles a watcher's silence flag. Silencing suppresses
// notifications without stopping polling or state updates.
func (s *Service) SetSilenced(ctx context.Context, watcherID string, silenced bool) (*types.Watcher, error) {
	w, err := s.repo.Get(ctx, watcherID)
	if err != nil {
		return nil, err
	}
	w.Silenced = silenced
	w.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}
	if silenced {
		s.publish(ctx, EventWatcherSilenced, *w)
	}
	return w, nil
}

// Cancel removes a watcher entirely.
func (s *Service) Cancel(ctx context.Context, watcherID string) error {
	w, err := s.repo.Get(ctx, watcherID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, watcherID); err != nil {
		return err
	}
	s.publish(ctx, EventWatcherCancelled, *w)
	return nil
}

// Get fetches one watcher by id.
func (s *Service) Get(ctx context.Context, watcherID string) (*types.Watcher, error) {
	return s.repo.Get(ctx, watcherID)
}

// List returns all watchers.
func (s *Service) List(ctx context.Context) ([]types.Watcher, error) {
	return s.repo.List(ctx)
}

func (s *Service) publish(ctx context.Context, eventType string, w types.Watcher) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, w)
}
