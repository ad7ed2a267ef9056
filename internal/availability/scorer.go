package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/jacobstr/crusher/internal/types"
)

// campgroundAvailabilityURL is the deep link attached to every result,
// pointing a user at the upstream booking page for the campground.
const campgroundAvailabilityURL = "https://www.recreation.gov/camping/campgrounds/%s/availability"

// ScoreSites computes, for every merged site, the fraction of the window's
// nights marked available upstream. Sites with a zero fraction carry no
// signal and are dropped entirely; the rest become Results tagged with the
// originating campground.
//
// Dates outside the half-open window are ignored, as are entries whose date
// strings fail to parse — bad upstream data degrades to "no availability"
// rather than faulting the cycle. The returned slice is unordered; ranking
// happens once per watcher over the aggregate via Rank.
func ScoreSites(merged map[string]types.MergedSite, window Window, startDate string, campground types.Campground) []types.Result {
	totalNights := window.Nights()
	if totalNights <= 0 {
		return nil
	}

	var results []types.Result
	for _, site := range merged {
		matched := 0
		for date, status := range site.Availabilities {
			parsed, ok := parseAvailabilityDate(date)
			if !ok || !window.Contains(parsed) {
				continue
			}
			if types.IsAvailable(status) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, types.Result{
			Date:       startDate,
			Campground: campground,
			Campsite:   site.Site,
			Fraction:   float64(matched) / float64(totalNights),
			URL:        fmt.Sprintf(campgroundAvailabilityURL, campground.ID),
		})
	}
	return results
}

// Rank orders a watcher's aggregate result list by fraction descending, so
// the most-complete match is recommended first while partial matches still
// surface. The sort is stable: ties keep their discovery order.
func Rank(results []types.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Fraction > results[j].Fraction
	})
}

// availabilityDateLayouts are the upstream date formats we accept, in order
// of likelihood.
var availabilityDateLayouts = []string{
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	"2006-01-02",
}

func parseAvailabilityDate(s string) (time.Time, bool) {
	for _, layout := range availabilityDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
