package types

import (
	"context"
	"time"
)

// WatcherRepository is the durable store of watcher records. The poll cycle
// borrows a copy of each record, mutates it in memory, and writes it back
// whole through Update; last write wins.
type WatcherRepository interface {
	List(ctx context.Context) ([]Watcher, error)
	Get(ctx context.Context, id string) (*Watcher, error)
	Create(ctx context.Context, w *Watcher) error
	Update(ctx context.Context, w *Watcher) error
	Delete(ctx context.Context, id string) error
}

// CampgroundDirectory resolves campground reference data. Lookups by an
// unknown tag return an empty slice, not an error.
type CampgroundDirectory interface {
	List(ctx context.Context) ([]Campground, error)
	ByTag(ctx context.Context, tag string) ([]Campground, error)
	Tags(ctx context.Context) ([]string, error)
}

// AvailabilitySource fetches one calendar month of raw availability data for
// a campground. monthStart must be the first instant of the month in UTC.
type AvailabilitySource interface {
	FetchMonth(ctx context.Context, campgroundID string, monthStart time.Time) (*MonthAvailability, error)
}

// Notifier is the outbound messaging sink for watcher results. Delivery is
// best-effort: failures are logged by callers and never abort a poll cycle.
type Notifier interface {
	NotifyResults(ctx context.Context, recipient string, results []Result) error
}

// AlertSink receives operational alerts (e.g., upstream fetch failures).
// Implementations must swallow their own delivery errors.
type AlertSink interface {
	Alert(ctx context.Context, text string)
}

// Heartbeat records a liveness signal once per completed poll cycle. Its
// absence is the system's sole crash-detection signal.
type Heartbeat interface {
	Beat(ctx context.Context) error
}
