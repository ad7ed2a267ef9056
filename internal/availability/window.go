// Package availability implements the core availability engine: resolving a
// watcher's requested stay into a date window, fetching per-month payloads
// from the upstream provider, merging them into a per-site view, and scoring
// each site by the fraction of requested nights it is free.
package availability

import (
	"fmt"
	"time"

	"github.com/jacobstr/crusher/internal/types"
)

// startLayout is the user-facing date format for a watcher's start date,
// day/month/2-digit-year order.
const startLayout = "02/01/06"

// Window is a half-open date range [Start, End) covering a requested stay.
// End is Start plus the stay length in days; the night of End itself is not
// part of the stay.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow parses a watcher's start string and stay length into a
// Window. The start string must parse in exact DD/MM/YY field order AND
// re-format back to the original input. The round-trip guard rejects
// ISO-looking inputs such as "01/01/2019" where a 4-digit year fed to a
// 2-digit-year parse would otherwise be silently misread.
func ResolveWindow(start string, nights int) (Window, error) {
	if nights < 1 {
		return Window{}, types.NewAppError(
			types.ErrCodeValidationInvalidLength,
			fmt.Sprintf("stay length must be a positive number of nights, got %d", nights),
			nil,
		)
	}

	parsed, err := time.ParseInLocation(startLayout, start, time.UTC)
	if err != nil {
		return Window{}, types.NewAppError(
			types.ErrCodeValidationInvalidDate,
			fmt.Sprintf("could not parse %q as DD/MM/YY", start),
			err,
		)
	}
	if parsed.Format(startLayout) != start {
		return Window{}, types.NewAppError(
			types.ErrCodeValidationInvalidDate,
			fmt.Sprintf("date %q does not round-trip as DD/MM/YY", start),
			nil,
		)
	}

	return Window{
		Start: parsed,
		End:   parsed.AddDate(0, 0, nights),
	}, nil
}

// Nights returns the number of nights covered by the window.
func (w Window) Nights() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// Months returns the month-start instants whose calendar months the window
// touches: the start date's month and, only if different, the end date's
// month. A stay is assumed not to exceed one month, so this is at most two
// entries and the fetcher issues at most two upstream requests per
// campground.
func (w Window) Months() []time.Time {
	months := []time.Time{monthStart(w.Start)}
	if em := monthStart(w.End); !em.Equal(months[0]) {
		months = append(months, em)
	}
	return months
}

// Contains reports whether the given date falls inside the half-open window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
