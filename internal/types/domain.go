// Package types defines the domain records, error taxonomy, and shared
// interfaces for the crusher campsite-watching service.
package types

import (
	"time"
)

// Watcher is the core domain entity: a standing request to monitor one
// campground tag for availability over a date range.
//
// The Start field is a DD/MM/YY date string exactly as the user typed it.
// It is kept as a string because it round-trips into Slack messages and
// result payloads verbatim; the availability engine parses it per cycle.
type Watcher struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	// What to watch.
	CampgroundTag string `json:"campground" db:"campground_tag"`
	Start         string `json:"start" db:"start_date"`
	Length        int    `json:"length" db:"length_nights"`

	// Silenced suppresses outbound notifications without stopping the
	// underlying polling; results keep being recomputed and stored.
	Silenced bool `json:"silenced" db:"silenced"`

	// Results is the last computed result set, replaced wholesale every
	// poll cycle. Persisted as JSONB.
	Results []Result `json:"results" db:"results"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Campground is immutable reference data describing one reservable
// campground in the upstream provider.
type Campground struct {
	ID        string   `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	ShortName string   `json:"short_name" db:"short_name"`
	Tags      []string `json:"tags" db:"tags"`
	Timezone  string   `json:"tz" db:"timezone"`
}

// HasTag reports whether the campground carries the given tag.
func (c Campground) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Result is one candidate campsite match for a watcher. Results are
// ephemeral: recomputed every poll cycle and compared structurally against
// the previous set to decide whether a notification fires.
type Result struct {
	// Date is the watcher's requested start string, echoed verbatim.
	Date       string     `json:"date"`
	Campground Campground `json:"campground"`
	// Campsite is the human-facing site label (e.g., "043"), not the
	// upstream site id.
	Campsite string `json:"campsite"`
	// Fraction is the share of requested nights this site is available,
	// always in (0, 1] for a surviving result.
	Fraction float64 `json:"fraction"`
	URL      string  `json:"url"`
}

// ResultsEqual reports whether two result sets are structurally identical:
// same length, same order, and value equality over every field including
// nested campground identity. Any change in composition, ranking, or score
// makes the sets unequal.
func ResultsEqual(a, b []Result) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !resultEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func resultEqual(a, b Result) bool {
	if a.Date != b.Date || a.Campsite != b.Campsite || a.Fraction != b.Fraction || a.URL != b.URL {
		return false
	}
	if a.Campground.ID != b.Campground.ID ||
		a.Campground.Name != b.Campground.Name ||
		a.Campground.ShortName != b.Campground.ShortName ||
		a.Campground.Timezone != b.Campground.Timezone {
		return false
	}
	if len(a.Campground.Tags) != len(b.Campground.Tags) {
		return false
	}
	for i := range a.Campground.Tags {
		if a.Campground.Tags[i] != b.Campground.Tags[i] {
			return false
		}
	}
	return true
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }
