package types

import "testing"

func upperPines() Campground {
	return Campground{
		ID:        "232447",
		Name:      "Upper Pines",
		ShortName: "UP",
		Tags:      []string{"yosemite", "valley"},
		Timezone:  "America/Los_Angeles",
	}
}

func sampleResult() Result {
	return Result{
		Date:       "14/07/26",
		Campground: upperPines(),
		Campsite:   "043",
		Fraction:   1.0,
		URL:        "https://www.recreation.gov/camping/campgrounds/232447/availability",
	}
}

func TestCampgroundHasTag(t *testing.T) {
	cg := upperPines()

	if !cg.HasTag("yosemite") {
		t.Error("expected HasTag(yosemite) to be true")
	}
	if !cg.HasTag("valley") {
		t.Error("expected HasTag(valley) to be true")
	}
	if cg.HasTag("olympic") {
		t.Error("expected HasTag(olympic) to be false")
	}
	if cg.HasTag("Yosemite") {
		t.Error("tag matching should be case-sensitive")
	}
}

func TestResultsEqual(t *testing.T) {
	base := []Result{sampleResult()}

	t.Run("identical sets", func(t *testing.T) {
		if !ResultsEqual(base, []Result{sampleResult()}) {
			t.Error("expected identical sets to be equal")
		}
	})

	t.Run("both empty", func(t *testing.T) {
		if !ResultsEqual(nil, []Result{}) {
			t.Error("nil and empty slices should be equal")
		}
	})

	t.Run("length differs", func(t *testing.T) {
		if ResultsEqual(base, append([]Result{sampleResult()}, sampleResult())) {
			t.Error("sets of different length should be unequal")
		}
	})

	t.Run("fraction differs", func(t *testing.T) {
		changed := sampleResult()
		changed.Fraction = 0.5
		if ResultsEqual(base, []Result{changed}) {
			t.Error("fraction change should make sets unequal")
		}
	})

	t.Run("campsite differs", func(t *testing.T) {
		changed := sampleResult()
		changed.Campsite = "101"
		if ResultsEqual(base, []Result{changed}) {
			t.Error("campsite change should make sets unequal")
		}
	})

	t.Run("campground identity differs", func(t *testing.T) {
		changed := sampleResult()
		changed.Campground.ID = "232450"
		if ResultsEqual(base, []Result{changed}) {
			t.Error("campground id change should make sets unequal")
		}
	})

	t.Run("campground tags differ", func(t *testing.T) {
		changed := sampleResult()
		changed.Campground.Tags = []string{"yosemite"}
		if ResultsEqual(base, []Result{changed}) {
			t.Error("tag list change should make sets unequal")
		}
	})

	t.Run("order matters", func(t *testing.T) {
		other := sampleResult()
		other.Campsite = "101"
		a := []Result{sampleResult(), other}
		b := []Result{other, sampleResult()}
		if ResultsEqual(a, b) {
			t.Error("reordered sets should be unequal")
		}
	})
}
