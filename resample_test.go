package gridfolio

import (
	"math"
	"testing"
	"time"
)

func mustSeries(t *testing.T, g Grid, kind Kind, values []float64) Series {
	t.Helper()
	s, err := NewSeries(g, kind, values)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	return s
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// Resampling to the series' own frequency is a no-op.
func TestResampleNoop(t *testing.T) {
	g, err := GridRange(
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		MonthStart)
	if err != nil {
		t.Fatal(err)
	}
	s := mustSeries(t, g, KindEnergy, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	got, err := Summable(s, MonthStart)
	if err != nil {
		t.Fatalf("Summable: %v", err)
	}
	if !got.Equal(s) {
		t.Errorf("Summable(s, own freq) changed the series")
	}
	// Quarter anchors three months apart are the same frequency.
	got, err = Summable(s, QuarterStart(time.January))
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 4 {
		t.Errorf("quarterly Len = %d, want 4", got.Len())
	}
}

func TestResampleEmpty(t *testing.T) {
	s := mustSeries(t, EmptyGrid(Hour, time.UTC, Midnight), KindEnergy, nil)
	got, err := Summable(s, MonthStart)
	if err != nil {
		t.Fatalf("Summable on empty series: %v", err)
	}
	if got.Len() != 0 || got.Grid().Freq() != MonthStart {
		t.Errorf("got %d values at %s, want empty at MS", got.Len(), got.Grid().Freq())
	}
}

// One MWh per hour over a Berlin month sums to the month's true number of
// hours: 743 in March (spring-forward), 745 in October (fall-back). This
// crosses the daily boundary, exercising the two-stage path.
func TestDownsampleSummableDST(t *testing.T) {
	loc := berlin(t)
	for _, tt := range []struct {
		month time.Month
		want  float64
	}{
		{time.March, 743},
		{time.October, 745},
	} {
		g, err := GridRange(
			mustTime(t, 2020, tt.month, 1, 0, 0, loc),
			mustTime(t, 2020, tt.month+1, 1, 0, 0, loc),
			Hour)
		if err != nil {
			t.Fatal(err)
		}
		s := mustSeries(t, g, KindEnergy, ones(g.Len()))
		got, err := Summable(s, MonthStart)
		if err != nil {
			t.Fatalf("Summable: %v", err)
		}
		if got.Len() != 1 {
			t.Fatalf("Len = %d, want 1", got.Len())
		}
		if got.Value(0) != tt.want {
			t.Errorf("%s sum = %v, want %v", tt.month, got.Value(0), tt.want)
		}
	}
}

// Partial target periods at either end are dropped, not padded.
func TestDownsampleTrimsPartialPeriods(t *testing.T) {
	utc := time.UTC
	g := dailyGrid(t,
		time.Date(2020, 1, 15, 0, 0, 0, 0, utc),
		time.Date(2020, 3, 21, 0, 0, 0, 0, utc))
	s := mustSeries(t, g, KindEnergy, ones(g.Len()))

	got, err := Summable(s, MonthStart)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (February only)", got.Len())
	}
	if !got.Grid().First().Equal(time.Date(2020, 2, 1, 0, 0, 0, 0, utc)) {
		t.Errorf("First = %s, want 2020-02-01", got.Grid().First())
	}
	if got.Value(0) != 29 {
		t.Errorf("February sum = %v, want 29", got.Value(0))
	}
}

// Upsampling then downsampling over the same boundary recovers the original
// aggregate.
func TestUpsampleDownsampleRoundtrip(t *testing.T) {
	loc := berlin(t)
	g, err := GridRange(
		mustTime(t, 2020, time.January, 1, 0, 0, loc),
		mustTime(t, 2021, time.January, 1, 0, 0, loc),
		MonthStart)
	if err != nil {
		t.Fatal(err)
	}
	s := mustSeries(t, g, KindEnergy, []float64{100, 90, 80, 50, 40, 30, 30, 35, 50, 70, 90, 110})

	up, err := Summable(s, Day)
	if err != nil {
		t.Fatalf("upsample: %v", err)
	}
	down, err := Summable(up, MonthStart)
	if err != nil {
		t.Fatalf("downsample: %v", err)
	}
	if !down.EqualApprox(s, 1e-9) {
		t.Errorf("roundtrip = %v, want %v", down.Values(), s.Values())
	}

	// The same holds for averageable series.
	w := mustSeries(t, g, KindPower, []float64{200, 220, 300, 150, 175, 150, 200, 220, 300, 150, 175, 150})
	upW, err := Averageable(w, Day)
	if err != nil {
		t.Fatal(err)
	}
	downW, err := Averageable(upW, MonthStart)
	if err != nil {
		t.Fatal(err)
	}
	if !downW.EqualApprox(w, 1e-9) {
		t.Errorf("averageable roundtrip = %v, want %v", downW.Values(), w.Values())
	}
}

// Broadcasting an averageable value keeps it constant over the contained
// periods, including for the final source period.
func TestUpsampleAverageableBroadcast(t *testing.T) {
	utc := time.UTC
	g, err := GridRange(
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2022, 1, 1, 0, 0, 0, 0, utc),
		YearStart(time.January))
	if err != nil {
		t.Fatal(err)
	}
	s := mustSeries(t, g, KindPower, []float64{100, 200})

	got, err := Averageable(s, MonthStart)
	if err != nil {
		t.Fatalf("Averageable: %v", err)
	}
	if got.Len() != 24 {
		t.Fatalf("Len = %d, want 24", got.Len())
	}
	for i := 0; i < 12; i++ {
		if got.Value(i) != 100 {
			t.Fatalf("value[%d] = %v, want 100", i, got.Value(i))
		}
	}
	for i := 12; i < 24; i++ {
		if got.Value(i) != 200 {
			t.Fatalf("value[%d] = %v, want 200", i, got.Value(i))
		}
	}
}

// Downsampling the energy equals downsampling the power and multiplying by
// the new period's duration.
func TestSummableAverageableConsistency(t *testing.T) {
	loc := berlin(t)
	g := dailyGrid(t,
		mustTime(t, 2020, time.March, 1, 0, 0, loc),
		mustTime(t, 2020, time.June, 1, 0, 0, loc))
	vals := make([]float64, g.Len())
	for i := range vals {
		vals[i] = 100 + float64(i%7)*10
	}
	w := mustSeries(t, g, KindPower, vals)
	q, err := w.MulDuration()
	if err != nil {
		t.Fatal(err)
	}

	qDown, err := Summable(q, MonthStart)
	if err != nil {
		t.Fatal(err)
	}
	wDown, err := Averageable(w, MonthStart)
	if err != nil {
		t.Fatal(err)
	}
	wTimesDur, err := wDown.MulDuration()
	if err != nil {
		t.Fatal(err)
	}
	if !qDown.EqualApprox(wTimesDur, 1e-6) {
		t.Errorf("sum(q) = %v, avg(w)*dur = %v", qDown.Values(), wTimesDur.Values())
	}
}

// A year of monthly power values, averaged into the fiscal year starting
// April: one duration-weighted value, recoverable by re-expanding to months
// and averaging again.
func TestAverageableFiscalYear(t *testing.T) {
	utc := time.UTC
	g, err := GridRange(
		time.Date(2024, 4, 1, 0, 0, 0, 0, utc),
		time.Date(2025, 4, 1, 0, 0, 0, 0, utc),
		MonthStart)
	if err != nil {
		t.Fatal(err)
	}
	vals := []float64{200, 220, 300, 150, 175, 150, 200, 220, 300, 150, 175, 150}
	w := mustSeries(t, g, KindPower, vals)

	fiscal := YearStart(time.April)
	down, err := Averageable(w, fiscal)
	if err != nil {
		t.Fatalf("Averageable: %v", err)
	}
	if down.Len() != 1 {
		t.Fatalf("Len = %d, want 1", down.Len())
	}

	// The duration-weighted mean, computed directly.
	hours, err := g.durationHours()
	if err != nil {
		t.Fatal(err)
	}
	var sumVH, sumH float64
	for i, v := range vals {
		sumVH += v * hours[i]
		sumH += hours[i]
	}
	if want := sumVH / sumH; math.Abs(down.Value(0)-want) > 1e-9 {
		t.Errorf("fiscal average = %v, want %v", down.Value(0), want)
	}

	// Re-expanding and averaging again recovers the same aggregate.
	months, err := Averageable(down, MonthStart)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Averageable(months, fiscal)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(again.Value(0)-down.Value(0)) > 1e-9 {
		t.Errorf("re-aggregate = %v, want %v", again.Value(0), down.Value(0))
	}
}

func TestSummableFrame(t *testing.T) {
	utc := time.UTC
	g := dailyGrid(t,
		time.Date(2020, 2, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 3, 1, 0, 0, 0, 0, utc))
	f := NewFrame(g)
	if err := f.AddColumn("q", mustSeries(t, g, KindEnergy, ones(g.Len()))); err != nil {
		t.Fatal(err)
	}
	if err := f.AddColumn("r", mustSeries(t, g, KindRevenue, ones(g.Len()))); err != nil {
		t.Fatal(err)
	}

	got, err := SummableFrame(f, MonthStart)
	if err != nil {
		t.Fatalf("SummableFrame: %v", err)
	}
	for _, name := range got.Columns() {
		col, _ := got.Column(name)
		if col.Len() != 1 || col.Value(0) != 29 {
			t.Errorf("column %q = %v, want [29]", name, col.Values())
		}
	}
}
