package gridfolio

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/us"
)

// Mapping is a correspondence between two grids: for every period start of
// the target grid, the period start of the source grid whose value should be
// used. Applying a mapping is a pure reshuffle; no values are recalculated.
type Mapping struct {
	target Grid
	source []time.Time
}

func (m Mapping) Target() Grid           { return m.target }
func (m Mapping) Source(i int) time.Time { return m.source[i] }

// holidayCalendar builds the holiday calendar for a region code. An empty
// region means no holiday reasoning at all.
func holidayCalendar(region string) (*cal.Calendar, error) {
	if region == "" {
		return nil, nil
	}
	c := &cal.Calendar{}
	switch strings.ToUpper(region) {
	case "DE":
		c.AddHoliday(de.Holidays...)
	case "NL":
		c.AddHoliday(nl.Holidays...)
	case "US", "USA":
		c.AddHoliday(us.Holidays...)
	default:
		return nil, fmt.Errorf("unsupported holiday region %q; want DE, NL or US", region)
	}
	return c, nil
}

// dayTraits characterizes one day of a daily grid for the matching passes.
type dayTraits struct {
	ts      time.Time
	month   time.Month
	year    int
	day     int
	weekday int // ISO: Monday 1 .. Sunday 7
	holiday string
	dstDay  bool // day duration deviates from 24h
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// characterize describes every day of a daily grid by the fields the
// matching passes compare on.
func characterize(g Grid, hols *cal.Calendar) ([]*dayTraits, error) {
	if g.freq != Day {
		return nil, fmt.Errorf("can only characterize a grid with daily frequency; got %s", g.freq)
	}
	out := make([]*dayTraits, g.Len())
	for i, ts := range g.stamps {
		d, err := Duration(ts, Day)
		if err != nil {
			return nil, err
		}
		t := &dayTraits{
			ts:      ts,
			year:    ts.Year(),
			month:   ts.Month(),
			day:     ts.Day(),
			weekday: isoWeekday(ts),
			dstDay:  g.loc != nil && math.Abs(d.BaseFloat()-24) > 0.1,
		}
		if hols != nil {
			if actual, _, h := hols.IsHoliday(ts); actual && h != nil {
				t.holiday = h.Name
			}
		}
		out[i] = t
	}
	return out, nil
}

// MapGrid maps a source grid onto a target grid of the same frequency and
// timezone, picking for every target period the best-matching source period.
// Values always come from the same calendar month. For daily and shorter
// frequencies, DST-changeover days map to DST-changeover days and weekdays
// map to same-type weekdays, preferring same-named holidays and minimizing
// repetition. For monthly and longer frequencies only the calendar month is
// matched, which disregards weekday and holiday composition; an advisory is
// logged because the result is approximate.
func MapGrid(source, target Grid, region string) (Mapping, error) {
	if source.locString() != target.locString() {
		return Mapping{}, fmt.Errorf("%w: grids must have same timezone, got %s and %s", ErrIndexMismatch, source.locString(), target.locString())
	}
	if source.freq != target.freq {
		return Mapping{}, fmt.Errorf("%w: grids must have same frequency, got %s and %s", ErrIndexMismatch, source.freq, target.freq)
	}

	switch {
	case source.freq.vsDay() == Longer:
		log.Printf("mapping %s data onto year ignores weekday and holiday composition; result is approximate", source.freq)
		return mapMonthly(source, target)
	case source.freq == Day:
		return mapDaily(source, target, region)
	default:
		return mapSubDaily(source, target, region)
	}
}

// mapMonthly matches target months to source months of the same calendar
// month. A year-month present in both grids maps onto itself; remaining
// months pick the least-used source year.
func mapMonthly(source, target Grid) (Mapping, error) {
	used := make([]int, source.Len())

	pick := func(tm time.Time, sameYear bool) int {
		best := -1
		for i, ts := range source.stamps {
			if ts.Month() != tm.Month() {
				continue
			}
			if sameYear && ts.Year() != tm.Year() {
				continue
			}
			if best < 0 || used[i] < used[best] || (used[i] == used[best] && ts.Year() < source.Stamp(best).Year()) {
				best = i
			}
		}
		return best
	}

	out := make([]time.Time, target.Len())
	found := make([]bool, target.Len())
	for pass := 0; pass < 2; pass++ {
		for i, tm := range target.stamps {
			if found[i] {
				continue
			}
			if j := pick(tm, pass == 0); j >= 0 {
				out[i] = source.Stamp(j)
				found[i] = true
				used[j]++
			}
		}
	}
	if err := checkMapped(target, found); err != nil {
		return Mapping{}, err
	}
	return Mapping{target: target, source: out}, nil
}

// mapDaily first maps months, then matches the days inside each month pair.
func mapDaily(source, target Grid, region string) (Mapping, error) {
	hols, err := holidayCalendar(region)
	if err != nil {
		return Mapping{}, err
	}
	sourceM, err := ResampleGrid(source, MonthStart)
	if err != nil {
		return Mapping{}, err
	}
	targetM, err := ResampleGrid(target, MonthStart)
	if err != nil {
		return Mapping{}, err
	}
	monthMap, err := mapMonthly(sourceM, targetM)
	if err != nil {
		return Mapping{}, err
	}

	out := make([]time.Time, target.Len())
	found := make([]bool, target.Len())
	for mi, tm := range targetM.stamps {
		sm := monthMap.source[mi]
		tDays, tIdx, err := daysOfMonth(target, tm)
		if err != nil {
			return Mapping{}, err
		}
		sDays, _, err := daysOfMonth(source, sm)
		if err != nil {
			return Mapping{}, err
		}
		tTraits, err := characterizeStamps(target, tDays, hols)
		if err != nil {
			return Mapping{}, err
		}
		sTraits, err := characterizeStamps(source, sDays, hols)
		if err != nil {
			return Mapping{}, err
		}
		matches := matchDays(tTraits, sTraits)
		for di, si := range matches {
			if si >= 0 {
				out[tIdx[di]] = sTraits[si].ts
				found[tIdx[di]] = true
			}
		}
	}
	if err := checkMapped(target, found); err != nil {
		return Mapping{}, err
	}
	return Mapping{target: target, source: out}, nil
}

// mapSubDaily maps on the day level and carries each stamp's offset within
// its day over to the mapped day.
func mapSubDaily(source, target Grid, region string) (Mapping, error) {
	sourceD, err := ResampleGrid(source, Day)
	if err != nil {
		return Mapping{}, err
	}
	targetD, err := ResampleGrid(target, Day)
	if err != nil {
		return Mapping{}, err
	}
	dayMap, err := mapDaily(sourceD, targetD, region)
	if err != nil {
		return Mapping{}, err
	}

	out := make([]time.Time, target.Len())
	for i, ts := range target.stamps {
		day, err := Floor(ts, Day, 0, target.sod)
		if err != nil {
			return Mapping{}, err
		}
		j := targetD.index(day)
		if j < 0 {
			return Mapping{}, fmt.Errorf("%w: %s falls outside a full day of the target grid", ErrUnmappableYear, ts)
		}
		out[i] = dayMap.source[j].Add(ts.Sub(day))
	}
	return Mapping{target: target, source: out}, nil
}

// daysOfMonth returns the stamps of g that fall inside the month starting at
// monthStart, plus their positions in g.
func daysOfMonth(g Grid, monthStart time.Time) ([]time.Time, []int, error) {
	end, err := Right(monthStart, MonthStart)
	if err != nil {
		return nil, nil, err
	}
	var stamps []time.Time
	var idx []int
	for i, ts := range g.stamps {
		if !ts.Before(monthStart) && ts.Before(end) {
			stamps = append(stamps, ts)
			idx = append(idx, i)
		}
	}
	return stamps, idx, nil
}

func characterizeStamps(g Grid, stamps []time.Time, hols *cal.Calendar) ([]*dayTraits, error) {
	if len(stamps) == 0 {
		return nil, nil
	}
	sub := Grid{stamps: stamps, freq: g.freq, loc: g.loc, sod: g.sod}
	return characterize(sub, hols)
}

// matchDays runs the matching passes over one month: DST-changeover days
// first, then non-holiday weekdays by weekday type, then same-named
// holidays, then any holiday or Sunday as a fallback. The result holds, per
// target day, the index of its source day or -1. Repetition is minimized by
// preferring the least-used candidate, tie-broken by nearest day-of-month.
func matchDays(target, source []*dayTraits) []int {
	matches := make([]int, len(target))
	for i := range matches {
		matches[i] = -1
	}
	used := make([]int, len(source))

	pick := func(ti int, ok func(*dayTraits) bool) {
		best := -1
		bestDist := 0
		for i, s := range source {
			if !ok(s) {
				continue
			}
			dist := target[ti].day - s.day
			if dist < 0 {
				dist = -dist
			}
			if best < 0 || used[i] < used[best] ||
				(used[i] == used[best] && dist < bestDist) {
				best, bestDist = i, dist
			}
		}
		if best >= 0 {
			matches[ti] = best
			used[best]++
		}
	}

	// DST-changeover days.
	for i, t := range target {
		if t.dstDay {
			pick(i, func(s *dayTraits) bool { return s.dstDay })
		}
	}
	// Non-holiday weekdays.
	for i, t := range target {
		if !t.dstDay && t.holiday == "" {
			wd := t.weekday
			pick(i, func(s *dayTraits) bool { return !s.dstDay && s.holiday == "" && s.weekday == wd })
		}
	}
	// Same-named holidays.
	for i, t := range target {
		if !t.dstDay && t.holiday != "" {
			name := t.holiday
			pick(i, func(s *dayTraits) bool { return !s.dstDay && s.holiday == name })
		}
	}
	// Holidays still unmatched: any other holiday, or a Sunday.
	for i, t := range target {
		if !t.dstDay && t.holiday != "" && matches[i] < 0 {
			pick(i, func(s *dayTraits) bool { return !s.dstDay && (s.holiday != "" || s.weekday == 7) })
		}
	}
	return matches
}

func checkMapped(target Grid, found []bool) error {
	var missing []string
	for i, ok := range found {
		if !ok {
			missing = append(missing, target.Stamp(i).Format("2006-01-02"))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no correspondence found for %s", ErrUnmappableYear, strings.Join(missing, ", "))
	}
	return nil
}

// GridWithYear builds a grid spanning the same months as g but starting in
// targetYear. A source grid spanning several years keeps its span; the given
// year is used for the first timestamp. A boundary on Feb 29 has no
// counterpart in a non-leap target year and yields ErrUnmappableYear rather
// than silently sliding to Mar 1.
func GridWithYear(g Grid, targetYear int) (Grid, error) {
	if g.IsEmpty() {
		return g, nil
	}
	end, err := g.RightEnd()
	if err != nil {
		return Grid{}, err
	}
	start := g.First()
	loc := start.Location()

	tStart, err := localDateInYear(start, targetYear, loc)
	if err != nil {
		return Grid{}, err
	}
	tEnd, err := localDateInYear(end, targetYear+end.Year()-start.Year(), loc)
	if err != nil {
		return Grid{}, err
	}
	return GridRange(tStart, tEnd, g.freq)
}

// localDateInYear rebuilds ref with its year replaced by year. Field overflow
// (Feb 29 in a non-leap year) is rejected instead of normalized.
func localDateInYear(ref time.Time, year int, loc *time.Location) (time.Time, error) {
	t, err := makeLocal(year, ref.Month(), ref.Day(), ref.Hour(), ref.Minute(), loc)
	if err != nil {
		return time.Time{}, err
	}
	if t.Month() != ref.Month() || t.Day() != ref.Day() {
		return time.Time{}, fmt.Errorf("%w: %s has no counterpart in %d", ErrUnmappableYear,
			ref.Format("Jan 2"), year)
	}
	return t, nil
}

// MapSeriesToGrid reshuffles the values of s onto the target grid according
// to the day-matching rules.
func MapSeriesToGrid(s Series, target Grid, region string) (Series, error) {
	m, err := MapGrid(s.grid, target, region)
	if err != nil {
		return Series{}, err
	}
	vals := make([]float64, target.Len())
	for i := range vals {
		v, ok := s.At(m.source[i])
		if !ok {
			return Series{}, fmt.Errorf("%w: mapped period %s not present in source series", ErrUnmappableYear, m.source[i])
		}
		vals[i] = v
	}
	return Series{grid: target, kind: s.kind, values: vals}, nil
}

// MapSeriesToYear reshuffles the values of s onto the same months of a
// different year.
func MapSeriesToYear(s Series, targetYear int, region string) (Series, error) {
	target, err := GridWithYear(s.grid, targetYear)
	if err != nil {
		return Series{}, err
	}
	return MapSeriesToGrid(s, target, region)
}

// MapFrameToYear applies MapSeriesToYear column-wise.
func MapFrameToYear(f *Frame, targetYear int, region string) (*Frame, error) {
	return f.Apply(func(s Series) (Series, error) { return MapSeriesToYear(s, targetYear, region) })
}
