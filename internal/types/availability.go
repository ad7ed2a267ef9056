package types

import (
	"encoding/json"
	"strings"
)

// StatusAvailable is the upstream status literal that counts as an open
// night. Comparison is case-insensitive; every other value — including
// statuses the upstream may add in the future — is treated as unavailable.
const StatusAvailable = "available"

// MonthAvailability is one raw per-month availability payload from the
// upstream provider, keyed by upstream site id. The shape is externally
// defined and loosely typed, so decoding is defensive: missing keys, null
// maps, and unexpected values become empty data rather than faults.
type MonthAvailability struct {
	Campsites map[string]CampsiteMonth `json:"campsites"`
}

// CampsiteMonth is one site's slice of a MonthAvailability payload.
type CampsiteMonth struct {
	// Site is the human-facing site label (e.g., "043").
	Site string `json:"site"`
	Loop string `json:"loop"`
	// Availabilities maps an ISO date string to an upstream status string.
	Availabilities map[string]string `json:"availabilities"`
}

// UnmarshalJSON decodes a campsite entry, tolerating a null or absent
// availabilities map.
func (c *CampsiteMonth) UnmarshalJSON(data []byte) error {
	type alias CampsiteMonth
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Availabilities == nil {
		a.Availabilities = map[string]string{}
	}
	*c = CampsiteMonth(a)
	return nil
}

// IsAvailable reports whether an upstream status string counts as available.
func IsAvailable(status string) bool {
	return strings.EqualFold(status, StatusAvailable)
}

// MergedSite is one site's availability unioned across all months fetched
// for a single campground run.
type MergedSite struct {
	Site           string
	Availabilities map[string]string
}
