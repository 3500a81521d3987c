package gridfolio

import (
	"errors"
	"testing"
	"time"
)

func TestIntersectStrict(t *testing.T) {
	utc := time.UTC
	a := dailyGrid(t,
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 2, 1, 0, 0, 0, 0, utc))
	b := dailyGrid(t,
		time.Date(2020, 1, 15, 0, 0, 0, 0, utc),
		time.Date(2020, 2, 15, 0, 0, 0, 0, utc))

	got, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	want := dailyGrid(t,
		time.Date(2020, 1, 15, 0, 0, 0, 0, utc),
		time.Date(2020, 2, 1, 0, 0, 0, 0, utc))
	if !got.Equal(want) {
		t.Errorf("Intersect = %v, want %v", got.Stamps(), want.Stamps())
	}

	// Commutative.
	swapped, err := Intersect(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if !swapped.Equal(got) {
		t.Error("Intersect(b, a) != Intersect(a, b)")
	}
	// Idempotent.
	self, err := Intersect(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if !self.Equal(a) {
		t.Error("Intersect(a, a) != a")
	}
	single, err := Intersect(a)
	if err != nil {
		t.Fatal(err)
	}
	if !single.Equal(a) {
		t.Error("Intersect(a) != a")
	}
}

func TestIntersectEmptyOverlap(t *testing.T) {
	utc := time.UTC
	a := dailyGrid(t,
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 1, 10, 0, 0, 0, 0, utc))
	b := dailyGrid(t,
		time.Date(2020, 3, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 3, 10, 0, 0, 0, 0, utc))

	got, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("empty overlap must not be an error, got %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("got %v, want empty grid", got.Stamps())
	}
	if got.Freq() != Day {
		t.Errorf("empty grid keeps the frequency; got %s", got.Freq())
	}
}

func TestIntersectMismatch(t *testing.T) {
	utc := time.UTC
	daily := dailyGrid(t,
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 4, 1, 0, 0, 0, 0, utc))
	monthly, err := GridRange(
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 4, 1, 0, 0, 0, 0, utc),
		MonthStart)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Intersect(daily, monthly); !errors.Is(err, ErrIndexMismatch) {
		t.Errorf("frequency mismatch: error = %v, want ErrIndexMismatch", err)
	}

	berlinDaily := dailyGrid(t,
		mustTime(t, 2020, time.January, 1, 0, 0, berlin(t)),
		mustTime(t, 2020, time.April, 1, 0, 0, berlin(t)))
	if _, err := Intersect(daily, berlinDaily); !errors.Is(err, ErrIndexMismatch) {
		t.Errorf("timezone mismatch: error = %v, want ErrIndexMismatch", err)
	}

	gasDaily := dailyGrid(t,
		time.Date(2020, 1, 1, 6, 0, 0, 0, utc),
		time.Date(2020, 4, 1, 6, 0, 0, 0, utc))
	if _, err := Intersect(daily, gasDaily); !errors.Is(err, ErrIndexMismatch) {
		t.Errorf("start-of-day mismatch: error = %v, want ErrIndexMismatch", err)
	}
}

// With nothing to normalize, the flexible intersection gives the same result
// as the strict one, for every input.
func TestIntersectFlexReducesToStrict(t *testing.T) {
	utc := time.UTC
	a := dailyGrid(t,
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 2, 1, 0, 0, 0, 0, utc))
	b := dailyGrid(t,
		time.Date(2020, 1, 15, 0, 0, 0, 0, utc),
		time.Date(2020, 2, 15, 0, 0, 0, 0, utc))

	strict, err := Intersect(a, b)
	if err != nil {
		t.Fatal(err)
	}
	flex, err := IntersectFlex([]Grid{a, b}, false, false, false)
	if err != nil {
		t.Fatalf("IntersectFlex: %v", err)
	}
	if len(flex) != 2 {
		t.Fatalf("got %d grids, want 2", len(flex))
	}
	for i, g := range flex {
		if !g.Equal(strict) {
			t.Errorf("flex[%d] = %v, want strict result %v", i, g.Stamps(), strict.Stamps())
		}
	}
}

// Quarters from 2020-01-01, intersected with the fiscal year starting
// 2020-04-01: only the four quarters inside that fiscal year survive.
func TestIntersectFlexFrequencies(t *testing.T) {
	utc := time.UTC
	quarters, err := GridRange(
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2021, 7, 1, 0, 0, 0, 0, utc),
		QuarterStart(time.January))
	if err != nil {
		t.Fatal(err)
	}
	fiscal, err := GridRange(
		time.Date(2020, 4, 1, 0, 0, 0, 0, utc),
		time.Date(2021, 4, 1, 0, 0, 0, 0, utc),
		YearStart(time.April))
	if err != nil {
		t.Fatal(err)
	}

	// Without the toggle this is a mismatch.
	if _, err := IntersectFlex([]Grid{quarters, fiscal}, false, false, false); !errors.Is(err, ErrIndexMismatch) {
		t.Fatalf("error = %v, want ErrIndexMismatch", err)
	}

	got, err := IntersectFlex([]Grid{quarters, fiscal}, true, false, false)
	if err != nil {
		t.Fatalf("IntersectFlex: %v", err)
	}
	wantQuarters, err := GridRange(
		time.Date(2020, 4, 1, 0, 0, 0, 0, utc),
		time.Date(2021, 4, 1, 0, 0, 0, 0, utc),
		QuarterStart(time.January))
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].Equal(wantQuarters) {
		t.Errorf("quarters = %v, want %v", got[0].Stamps(), wantQuarters.Stamps())
	}
	if !got[1].Equal(fiscal) {
		t.Errorf("fiscal = %v, want %v", got[1].Stamps(), fiscal.Stamps())
	}
}

func TestIntersectFlexTimezones(t *testing.T) {
	utc := time.UTC
	loc := berlin(t)
	a := dailyGrid(t,
		mustTime(t, 2020, time.January, 1, 0, 0, loc),
		mustTime(t, 2020, time.February, 1, 0, 0, loc))
	b := dailyGrid(t,
		time.Date(2020, 1, 15, 0, 0, 0, 0, utc),
		time.Date(2020, 2, 15, 0, 0, 0, 0, utc))

	got, err := IntersectFlex([]Grid{a, b}, false, true, false)
	if err != nil {
		t.Fatalf("IntersectFlex: %v", err)
	}
	// Overlap on wall time: Jan 15th to 31st; each output in its own zone.
	if got[0].Len() != 17 || got[1].Len() != 17 {
		t.Fatalf("lengths = %d, %d, want 17, 17", got[0].Len(), got[1].Len())
	}
	if !got[0].First().Equal(mustTime(t, 2020, time.January, 15, 0, 0, loc)) {
		t.Errorf("first[0] = %s, want Berlin midnight", got[0].First())
	}
	if !got[1].First().Equal(time.Date(2020, 1, 15, 0, 0, 0, 0, utc)) {
		t.Errorf("first[1] = %s, want UTC midnight", got[1].First())
	}
}

func TestIntersectFlexStartOfDay(t *testing.T) {
	utc := time.UTC
	a := dailyGrid(t,
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 2, 1, 0, 0, 0, 0, utc))
	gas := dailyGrid(t,
		time.Date(2020, 1, 15, 6, 0, 0, 0, utc),
		time.Date(2020, 2, 15, 6, 0, 0, 0, utc))

	got, err := IntersectFlex([]Grid{a, gas}, false, false, true)
	if err != nil {
		t.Fatalf("IntersectFlex: %v", err)
	}
	if got[0].StartOfDay() != Midnight {
		t.Errorf("StartOfDay[0] = %s, want 00:00", got[0].StartOfDay())
	}
	if want, _ := NewStartOfDay(6, 0); got[1].StartOfDay() != want {
		t.Errorf("StartOfDay[1] = %s, want 06:00", got[1].StartOfDay())
	}
	if !got[1].First().Equal(time.Date(2020, 1, 15, 6, 0, 0, 0, utc)) {
		t.Errorf("first[1] = %s, want 06:00 on Jan 15th", got[1].First())
	}

	// Sub-daily grids with differing start-of-day cannot be reconciled.
	hourly, err := GridRange(
		time.Date(2020, 1, 15, 6, 0, 0, 0, utc),
		time.Date(2020, 1, 16, 6, 0, 0, 0, utc),
		Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := IntersectFlex([]Grid{a, hourly}, true, false, true); !errors.Is(err, ErrIndexMismatch) {
		t.Errorf("sub-daily start-of-day: error = %v, want ErrIndexMismatch", err)
	}
}
