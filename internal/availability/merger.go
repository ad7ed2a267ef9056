package availability

import (
	"github.com/jacobstr/crusher/internal/types"
)

// MergeSites combines the 1–2 per-month payloads fetched for one campground
// into a single mapping of site id to unioned availability.
//
// Payloads are folded in fetch order: a site's date entries accumulate across
// months, and when two payloads carry the same date for the same site the
// later payload's status wins. Fetched months are disjoint so overlaps should
// not occur in practice, but upstream data quality is unverified and the
// later-wins rule keeps the merge deterministic. No sites are pruned here;
// every site seen in any payload is carried to scoring.
func MergeSites(payloads []*types.MonthAvailability) map[string]types.MergedSite {
	merged := make(map[string]types.MergedSite)
	for _, payload := range payloads {
		if payload == nil {
			continue
		}
		for siteID, month := range payload.Campsites {
			entry, ok := merged[siteID]
			if !ok {
				entry = types.MergedSite{
					Site:           month.Site,
					Availabilities: make(map[string]string, len(month.Availabilities)),
				}
			}
			for date, status := range month.Availabilities {
				entry.Availabilities[date] = status
			}
			merged[siteID] = entry
		}
	}
	return merged
}
