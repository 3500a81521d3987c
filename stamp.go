package gridfolio

import (
	"fmt"
	"time"
)

// StartOfDay is the wall-clock time at which daily-and-longer delivery
// periods begin. The default (zero value) is midnight; gas-market conventions
// use e.g. 06:00. It must coincide with a full quarter-hour.
type StartOfDay struct {
	hour, minute int
}

// Midnight is the default start-of-day.
var Midnight = StartOfDay{}

// NewStartOfDay returns the start-of-day at the given wall-clock time.
func NewStartOfDay(hour, minute int) (StartOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return StartOfDay{}, fmt.Errorf("start-of-day %02d:%02d out of range", hour, minute)
	}
	if minute%15 != 0 {
		return StartOfDay{}, fmt.Errorf("start-of-day %02d:%02d must coincide with a full quarterhour", hour, minute)
	}
	return StartOfDay{hour, minute}, nil
}

func (s StartOfDay) String() string { return fmt.Sprintf("%02d:%02d", s.hour, s.minute) }

// Offset returns the start-of-day as an offset from (a 24h day's) midnight.
func (s StartOfDay) Offset() time.Duration {
	return time.Duration(s.hour)*time.Hour + time.Duration(s.minute)*time.Minute
}

// startOfDayOf reads the start-of-day implied by a period-start timestamp.
func startOfDayOf(t time.Time) StartOfDay {
	return StartOfDay{t.Hour(), t.Minute()}
}

// makeLocal builds the instant with the given wall-clock fields in loc.
// Overflowing fields (day 32, month 13) are normalized first. A wall time
// that falls in a DST gap is ErrNonexistentTime; one that occurs twice (DST
// fold) is ErrAmbiguousTime. Never silently picks a branch.
func makeLocal(year int, month time.Month, day, hour, minute int, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	want := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	wy, wm, wd := want.Date()
	wh, wmin := want.Hour(), want.Minute()

	t := time.Date(wy, wm, wd, wh, wmin, 0, 0, loc)
	if gy, gm, gd := t.Date(); gy != wy || gm != wm || gd != wd || t.Hour() != wh || t.Minute() != wmin {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d %02d:%02d in %s",
			ErrNonexistentTime, wy, wm, wd, wh, wmin, loc)
	}
	if sameWall(t.Add(time.Hour), t) || sameWall(t.Add(-time.Hour), t) {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d %02d:%02d occurs twice in %s",
			ErrAmbiguousTime, wy, wm, wd, wh, wmin, loc)
	}
	return t, nil
}

func sameWall(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd && a.Hour() == b.Hour() && a.Minute() == b.Minute()
}

// addPeriods moves a period-start timestamp by n periods of frequency f,
// preserving the wall-clock time of day for calendar frequencies. n may be
// negative.
func addPeriods(ts time.Time, f Frequency, n int) (time.Time, error) {
	if n == 0 {
		return ts, nil
	}
	if d, ok := f.fixed(); ok {
		return ts.Add(time.Duration(n) * d), nil
	}
	y, m, d := ts.Date()
	hh, mm := ts.Hour(), ts.Minute()
	switch f.unit {
	case daily:
		return makeLocal(y, m, d+n, hh, mm, ts.Location())
	case monthly:
		return makeLocal(y, m+time.Month(n), d, hh, mm, ts.Location())
	case quarterly:
		return makeLocal(y, m+time.Month(3*n), d, hh, mm, ts.Location())
	case yearly:
		return makeLocal(y+n, m, d, hh, mm, ts.Location())
	default:
		panic(fmt.Sprintf("unknown frequency %d", f.unit))
	}
}

// Right returns the right-bound (exclusive end) of the delivery period
// starting at ts. ts must be a period start. For calendar frequencies the
// wall-clock time of day is preserved across DST transitions, so a day
// containing a spring-forward transition is 23 hours long.
func Right(ts time.Time, f Frequency) (time.Time, error) {
	return addPeriods(ts, f, 1)
}

// Duration returns the length, in hours, of the delivery period starting at
// ts. Fixed-duration frequencies take a shortcut without calendar lookups;
// it agrees with the general calculation.
func Duration(ts time.Time, f Frequency) (Quantity, error) {
	switch f.unit {
	case quarterHourly:
		return hoursQty(0.25), nil
	case hourly:
		return hoursQty(1), nil
	}
	right, err := Right(ts, f)
	if err != nil {
		return Quantity{}, err
	}
	return hoursQty(right.Sub(ts).Hours()), nil
}

// Floor returns the (latest) period start of frequency f on or before ts.
// future shifts the result by whole periods: 1 gives the start of the period
// after the one containing ts, -1 the one before, etc. sod is used for
// daily-and-longer frequencies only.
//
// If ts is exactly a period start, Floor and Ceil both return ts.
func Floor(ts time.Time, f Frequency, future int, sod StartOfDay) (time.Time, error) {
	if d, ok := f.fixed(); ok {
		return ts.Truncate(d).Add(time.Duration(future) * d), nil
	}

	// Floor to the start of the calendar day, honoring the start-of-day.
	y, m, d := ts.Date()
	t, err := makeLocal(y, m, d, sod.hour, sod.minute, ts.Location())
	if err != nil {
		return time.Time{}, err
	}
	if t.After(ts) {
		if t, err = makeLocal(y, m, d-1, sod.hour, sod.minute, ts.Location()); err != nil {
			return time.Time{}, err
		}
	}

	switch f.unit {
	case daily:
		// done
	case monthly:
		t, err = makeLocal(t.Year(), t.Month(), 1, sod.hour, sod.minute, ts.Location())
	case quarterly:
		yy, mm := floorToGroupMonth(t.Year(), t.Month(), f.anchor)
		t, err = makeLocal(yy, mm, 1, sod.hour, sod.minute, ts.Location())
	case yearly:
		yy := t.Year()
		if t.Month() < f.anchor {
			yy--
		}
		t, err = makeLocal(yy, f.anchor, 1, sod.hour, sod.minute, ts.Location())
	default:
		panic(fmt.Sprintf("unknown frequency %d", f.unit))
	}
	if err != nil {
		return time.Time{}, err
	}
	return addPeriods(t, f, future)
}

// floorToGroupMonth returns the latest month on or before m in which a
// quarter anchored at ``anchor`` starts.
func floorToGroupMonth(y int, m time.Month, anchor time.Month) (int, time.Month) {
	delta := (int(m) - 1 - anchorGroup(anchor)) % 3
	if delta < 0 {
		delta += 3
	}
	mi := int(m) - delta
	if mi < 1 {
		mi += 12
		y--
	}
	return y, time.Month(mi)
}

// Ceil returns the (earliest) period start of frequency f on or after ts.
// It is Floor advanced by one period when ts is not already a period start.
func Ceil(ts time.Time, f Frequency, future int, sod StartOfDay) (time.Time, error) {
	fl, err := Floor(ts, f, 0, sod)
	if err != nil {
		return time.Time{}, err
	}
	if !fl.Equal(ts) {
		future++
	}
	return addPeriods(fl, f, future)
}

// IsBoundary reports whether ts is a valid period start of frequency f.
func IsBoundary(ts time.Time, f Frequency, sod StartOfDay) (bool, error) {
	fl, err := Floor(ts, f, 0, sod)
	if err != nil {
		return false, err
	}
	return fl.Equal(ts), nil
}
