package gridfolio

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// Grid is an ordered, gap-free sequence of period-start timestamps sharing
// one frequency, one timezone and one start-of-day. It is the index of a
// Series. A nil location means the grid is timezone-agnostic: stamps are
// wall times without a calendar attached.
//
// Grids are immutable value objects; every derived grid (trimmed, resampled,
// intersected, year-mapped) is freshly constructed.
type Grid struct {
	stamps []time.Time
	freq   Frequency
	loc    *time.Location // nil = timezone-agnostic
	sod    StartOfDay
}

// NewGrid validates the timestamps against the given frequency and returns
// the grid. The timezone is taken from the first stamp, and so is the
// start-of-day (the time-of-day of the first element is assumed to be the
// start time of the daily-and-longer delivery periods).
func NewGrid(freq Frequency, stamps ...time.Time) (Grid, error) {
	if len(stamps) == 0 {
		return Grid{}, fmt.Errorf("need at least one timestamp; use EmptyGrid for an empty grid")
	}
	loc := stamps[0].Location()
	sod := startOfDayOf(stamps[0])

	if ok, err := IsBoundary(stamps[0], freq, sod); err != nil {
		return Grid{}, err
	} else if !ok {
		return Grid{}, fmt.Errorf("timestamp %s is not a period start of frequency %s (start-of-day %s)",
			stamps[0], freq, sod)
	}

	out := make([]time.Time, len(stamps))
	out[0] = stamps[0]
	for i := 1; i < len(stamps); i++ {
		want, err := Right(out[i-1], freq)
		if err != nil {
			return Grid{}, err
		}
		if !stamps[i].Equal(want) {
			return Grid{}, fmt.Errorf("timestamps have irregular spacing for frequency %s: after %s want %s, got %s",
				freq, out[i-1], want, stamps[i])
		}
		out[i] = stamps[i]
	}
	return Grid{stamps: out, freq: freq, loc: loc, sod: sod}, nil
}

// InferGrid detects the frequency from the spacing of the timestamps and
// validates the whole sequence against it. Quarter- and year-start anchors
// are derived from the first timestamp, snapping e.g. an April-starting
// quarter grid to the canonical January-group anchor.
func InferGrid(stamps ...time.Time) (Grid, error) {
	if len(stamps) < 2 {
		return Grid{}, fmt.Errorf("need at least two timestamps to infer a frequency; got %d", len(stamps))
	}
	freq, err := FreqFromSpacing(stamps[1].Sub(stamps[0]))
	if err != nil {
		return Grid{}, err
	}
	switch freq.unit {
	case quarterly:
		freq = QuarterStart(stamps[0].Month())
	case yearly:
		freq = YearStart(stamps[0].Month())
	}
	return NewGrid(freq, stamps...)
}

// EmptyGrid returns the empty grid with the given properties. Empty grids
// are valid values: empty intersections and resamples produce them.
func EmptyGrid(freq Frequency, loc *time.Location, sod StartOfDay) Grid {
	return Grid{freq: freq, loc: loc, sod: sod}
}

// GridRange generates the grid of all period starts of the given frequency
// from start (inclusive, must be a period start) to end (exclusive). Timezone
// and start-of-day are taken from start.
func GridRange(start, end time.Time, freq Frequency) (Grid, error) {
	sod := startOfDayOf(start)
	if ok, err := IsBoundary(start, freq, sod); err != nil {
		return Grid{}, err
	} else if !ok {
		return Grid{}, fmt.Errorf("start %s is not a period start of frequency %s", start, freq)
	}
	var stamps []time.Time
	for ts := start; ts.Before(end); {
		stamps = append(stamps, ts)
		next, err := Right(ts, freq)
		if err != nil {
			return Grid{}, err
		}
		ts = next
	}
	if len(stamps) == 0 {
		return EmptyGrid(freq, start.Location(), sod), nil
	}
	return Grid{stamps: stamps, freq: freq, loc: start.Location(), sod: sod}, nil
}

func (g Grid) Len() int                 { return len(g.stamps) }
func (g Grid) IsEmpty() bool            { return len(g.stamps) == 0 }
func (g Grid) Freq() Frequency          { return g.freq }
func (g Grid) Location() *time.Location { return g.loc }
func (g Grid) StartOfDay() StartOfDay   { return g.sod }
func (g Grid) Stamp(i int) time.Time    { return g.stamps[i] }
func (g Grid) First() time.Time         { return g.stamps[0] }
func (g Grid) Last() time.Time          { return g.stamps[len(g.stamps)-1] }

// Stamps returns a copy of the period-start timestamps.
func (g Grid) Stamps() []time.Time { return slices.Clone(g.stamps) }

// All iterates over the period starts in order.
func (g Grid) All() iter.Seq2[int, time.Time] {
	return func(yield func(int, time.Time) bool) {
		for i, ts := range g.stamps {
			if !yield(i, ts) {
				return
			}
		}
	}
}

// locString names the timezone for error messages; agnostic grids have none.
func (g Grid) locString() string {
	if g.loc == nil {
		return "<none>"
	}
	return g.loc.String()
}

// Equal reports whether two grids have the same frequency, timezone,
// start-of-day and timestamps.
func (g Grid) Equal(h Grid) bool {
	if g.freq != h.freq || g.locString() != h.locString() || g.sod != h.sod || len(g.stamps) != len(h.stamps) {
		return false
	}
	for i := range g.stamps {
		if !g.stamps[i].Equal(h.stamps[i]) {
			return false
		}
	}
	return true
}

// index returns the position of ts in the grid, or -1.
func (g Grid) index(ts time.Time) int {
	i, found := slices.BinarySearchFunc(g.stamps, ts, func(a, b time.Time) int {
		return a.Compare(b)
	})
	if !found {
		return -1
	}
	return i
}

// Contains reports whether ts is a period start of this grid.
func (g Grid) Contains(ts time.Time) bool { return g.index(ts) >= 0 }

// RightEnd returns the right bound of the final period, i.e. the exclusive
// end of the grid's span.
func (g Grid) RightEnd() (time.Time, error) {
	if g.IsEmpty() {
		return time.Time{}, fmt.Errorf("empty grid has no right bound")
	}
	return Right(g.Last(), g.freq)
}

// Rights returns the right-bound timestamp of every period.
func (g Grid) Rights() ([]time.Time, error) {
	out := make([]time.Time, len(g.stamps))
	for i, ts := range g.stamps {
		r, err := Right(ts, g.freq)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Durations returns the length of every period, in hours.
func (g Grid) Durations() ([]Quantity, error) {
	out := make([]Quantity, len(g.stamps))
	for i, ts := range g.stamps {
		d, err := Duration(ts, g.freq)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// durationHours is the resampling engine's float view of Durations.
func (g Grid) durationHours() ([]float64, error) {
	out := make([]float64, len(g.stamps))
	for i, ts := range g.stamps {
		d, err := Duration(ts, g.freq)
		if err != nil {
			return nil, err
		}
		out[i] = d.BaseFloat()
	}
	return out, nil
}

// Trim returns the subset of the grid that covers only full periods of the
// given (longer) frequency: partial leading and trailing periods are
// dropped. The grid keeps its own frequency.
func (g Grid) Trim(freq Frequency) (Grid, error) {
	if g.IsEmpty() {
		return g, nil
	}
	lo, err := Ceil(g.First(), freq, 0, g.sod)
	if err != nil {
		return Grid{}, err
	}
	rightEnd, err := g.RightEnd()
	if err != nil {
		return Grid{}, err
	}
	hi, err := Floor(rightEnd, freq, 0, g.sod)
	if err != nil {
		return Grid{}, err
	}
	var stamps []time.Time
	for _, ts := range g.stamps {
		r, err := Right(ts, g.freq)
		if err != nil {
			return Grid{}, err
		}
		if !ts.Before(lo) && !r.After(hi) {
			stamps = append(stamps, ts)
		}
	}
	if len(stamps) == 0 {
		return EmptyGrid(g.freq, g.loc, g.sod), nil
	}
	return Grid{stamps: stamps, freq: g.freq, loc: g.loc, sod: g.sod}, nil
}

// WithStartOfDay replaces the time-of-day of every stamp, keeping the
// calendar day. Only valid for daily-and-longer frequencies.
func (g Grid) WithStartOfDay(sod StartOfDay) (Grid, error) {
	if g.freq.vsDay() == Shorter {
		return Grid{}, fmt.Errorf("can only set the start-of-day of a grid with daily or longer frequency; got %s", g.freq)
	}
	if g.IsEmpty() {
		return EmptyGrid(g.freq, g.loc, sod), nil
	}
	stamps := make([]time.Time, len(g.stamps))
	for i, ts := range g.stamps {
		y, m, d := ts.Date()
		nt, err := makeLocal(y, m, d, sod.hour, sod.minute, ts.Location())
		if err != nil {
			return Grid{}, err
		}
		stamps[i] = nt
	}
	return Grid{stamps: stamps, freq: g.freq, loc: g.loc, sod: sod}, nil
}

// Dislocated strips the timezone, keeping the wall time of every stamp. The
// result is timezone-agnostic.
func (g Grid) Dislocated() Grid {
	if g.loc == nil {
		return g
	}
	stamps := make([]time.Time, len(g.stamps))
	for i, ts := range g.stamps {
		y, m, d := ts.Date()
		stamps[i] = time.Date(y, m, d, ts.Hour(), ts.Minute(), 0, 0, time.UTC)
	}
	return Grid{stamps: stamps, freq: g.freq, loc: nil, sod: g.sod}
}
