package gridfolio

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the length of a delivery period. Only a fixed set is allowed:
// quarter-hour, hour, day, month-start, quarter-start and year-start, where
// the last two carry an anchor month. There is perfect containment between
// them: a short period always falls entirely within a single longer period.
type Frequency struct {
	unit   freqUnit
	anchor time.Month // quarter-start: group representative (Jan/Feb/Mar); year-start: any month
}

type freqUnit int

const (
	quarterHourly freqUnit = iota
	hourly
	daily
	monthly
	quarterly
	yearly
)

// The unanchored frequencies.
var (
	QuarterHour = Frequency{unit: quarterHourly}
	Hour        = Frequency{unit: hourly}
	Day         = Frequency{unit: daily}
	MonthStart  = Frequency{unit: monthly}
)

// QuarterStart returns the quarter-start frequency whose periods begin in the
// months of ``anchor``'s group. Anchor months three months apart describe the
// same period starts, so the anchor is normalized to January, February or March.
func QuarterStart(anchor time.Month) Frequency {
	return Frequency{unit: quarterly, anchor: (anchor-1)%3 + 1}
}

// YearStart returns the year-start frequency with periods beginning on the
// first of ``anchor``.
func YearStart(anchor time.Month) Frequency {
	return Frequency{unit: yearly, anchor: anchor}
}

// IsZero reports whether f is the zero value (not a valid frequency).
func (f Frequency) IsZero() bool { return f == Frequency{} }

// Anchor returns the anchor month of a quarter-start or year-start frequency,
// and 0 for the others.
func (f Frequency) Anchor() time.Month { return f.anchor }

// isCalendar reports whether the frequency is daily or longer, i.e. its
// periods have a calendar-dependent duration.
func (f Frequency) isCalendar() bool { return f.unit >= daily }

// fixed returns the period length of a fixed-duration frequency.
func (f Frequency) fixed() (time.Duration, bool) {
	switch f.unit {
	case quarterHourly:
		return 15 * time.Minute, true
	case hourly:
		return time.Hour, true
	default:
		return 0, false
	}
}

// anchorGroup returns 0, 1 or 2 for the {Jan,Apr,Jul,Oct}, {Feb,May,Aug,Nov}
// and {Mar,Jun,Sep,Dec} groups.
func anchorGroup(m time.Month) int { return int(m-1) % 3 }

// isStartMonth reports whether a period of frequency f may start in month m.
func (f Frequency) isStartMonth(m time.Month) bool {
	switch f.unit {
	case quarterly:
		return anchorGroup(m) == anchorGroup(f.anchor)
	case yearly:
		return m == f.anchor
	default:
		return true
	}
}

func (f Frequency) String() string {
	switch f.unit {
	case quarterHourly:
		return "15T"
	case hourly:
		return "H"
	case daily:
		return "D"
	case monthly:
		return "MS"
	case quarterly:
		if f.anchor == time.January {
			return "QS"
		}
		return "QS-" + monthAbbr(f.anchor)
	case yearly:
		if f.anchor == time.January {
			return "AS"
		}
		return "AS-" + monthAbbr(f.anchor)
	default:
		panic(fmt.Sprintf("unknown frequency %d", f.unit))
	}
}

// Name returns the singular noun for the frequency's period.
func (f Frequency) Name() string {
	switch f.unit {
	case quarterHourly:
		return "quarterhour"
	case hourly:
		return "hour"
	case daily:
		return "day"
	case monthly:
		return "month"
	case quarterly:
		return "quarter"
	case yearly:
		return "year"
	default:
		panic(fmt.Sprintf("unknown frequency %d", f.unit))
	}
}

func monthAbbr(m time.Month) string {
	return strings.ToUpper(m.String()[:3])
}

var monthByAbbr = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// ParseFrequency parses a frequency token. It accepts the canonical tokens
// ("15T", "H", "D", "MS", "QS", "QS-APR", "AS", "AS-APR", ...) and a few
// spelled-out synonyms, case-insensitively. Repeat counts are not allowed:
// "2D" is an error, there is no two-day delivery period.
func ParseFrequency(s string) (Frequency, error) {
	token := strings.ToUpper(strings.TrimSpace(s))

	// Anchored tokens first.
	for prefix, mk := range map[string]func(time.Month) Frequency{
		"QS-": QuarterStart, "AS-": YearStart, "YS-": YearStart,
	} {
		if rest, ok := strings.CutPrefix(token, prefix); ok {
			m, ok := monthByAbbr[rest]
			if !ok {
				return Frequency{}, fmt.Errorf("%w: %q has unknown anchor month %q", ErrInvalidFrequency, s, rest)
			}
			return mk(m), nil
		}
	}

	switch token {
	case "15T", "15MIN", "QUARTERHOUR", "QUARTER-HOUR":
		return QuarterHour, nil
	case "H", "1H", "HOUR", "HOURLY":
		return Hour, nil
	case "D", "1D", "DAY", "DAILY":
		return Day, nil
	case "MS", "MONTH", "MONTHLY":
		return MonthStart, nil
	case "QS", "QUARTER", "QUARTERLY":
		return QuarterStart(time.January), nil
	case "AS", "YS", "YEAR", "YEARLY":
		return YearStart(time.January), nil
	}
	return Frequency{}, fmt.Errorf("%w: %q is not one of the allowed frequencies (15T, H, D, MS, QS, AS)", ErrInvalidFrequency, s)
}

// MustFrequency is like ParseFrequency but panics on error.
func MustFrequency(s string) Frequency {
	f, err := ParseFrequency(s)
	if err != nil {
		panic(err.Error())
	}
	return f
}

// Sampling is the result of comparing two frequencies: the direction in which
// a series at the first frequency must be resampled to reach the second.
type Sampling int

const (
	Shorter Sampling = -1 // first frequency spans less time; downsample to reach second
	Equal   Sampling = 0
	Longer  Sampling = 1 // first frequency spans more time; upsample to reach second
)

// Timestamps from which period lengths are measured when comparing
// frequencies. The backup is used when the first is inconclusive.
var (
	standardCommonTS = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	backupCommonTS   = time.Date(2020, time.February, 3, 4, 5, 6, 0, time.UTC)
)

// Compare reports whether frequency a spans less, the same, or more time than
// frequency b. Two anchored frequencies are only comparable if their anchors
// are mutually convertible: quarter anchors must fall in the same
// {Jan,Apr,Jul,Oct} / {Feb,May,Aug,Nov} / {Mar,Jun,Sep,Dec} group, and two
// year-start frequencies must have the same anchor. Everything else is
// ErrIncompatibleFrequency: there is no 1:1, 1:n or n:1 period mapping.
func Compare(a, b Frequency) (Sampling, error) {
	if a.unit == b.unit {
		switch a.unit {
		case quarterly, yearly:
			if a.anchor != b.anchor {
				return 0, fmt.Errorf("%w: no 1:1, 1:n, or n:1 mapping between %s and %s", ErrIncompatibleFrequency, a, b)
			}
		}
		return Equal, nil
	}
	// Quarter against year: the quarter grid must contain every year start.
	if a.unit == quarterly && b.unit == yearly || a.unit == yearly && b.unit == quarterly {
		q, y := a, b
		if a.unit == yearly {
			q, y = b, a
		}
		if anchorGroup(q.anchor) != anchorGroup(y.anchor) {
			return 0, fmt.Errorf("%w: no 1:1, 1:n, or n:1 mapping between %s and %s", ErrIncompatibleFrequency, a, b)
		}
	}
	return compareAt(a, b, standardCommonTS), nil
}

func compareAt(a, b Frequency, common time.Time) Sampling {
	ta, tb := a.jump(common), b.jump(common)
	switch {
	case ta.Before(tb):
		return Shorter
	case ta.After(tb):
		return Longer
	case common.Equal(standardCommonTS):
		return compareAt(a, b, backupCommonTS)
	default:
		return Equal
	}
}

// vsDay compares f against the daily frequency. Day carries no anchor, so the
// comparison never fails.
func (f Frequency) vsDay() Sampling {
	s, _ := Compare(f, Day)
	return s
}

// jump adds one period to t using naive calendar arithmetic, without regard
// for timezone transitions. Used for ranking frequencies by span; Right is
// the timezone-correct period-end calculation.
func (f Frequency) jump(t time.Time) time.Time {
	switch f.unit {
	case quarterHourly:
		return t.Add(15 * time.Minute)
	case hourly:
		return t.Add(time.Hour)
	case daily:
		return t.AddDate(0, 0, 1)
	case monthly:
		return t.AddDate(0, 1, 0)
	case quarterly:
		return t.AddDate(0, 3, 0)
	case yearly:
		return t.AddDate(1, 0, 0)
	default:
		panic(fmt.Sprintf("unknown frequency %d", f.unit))
	}
}

// Shortest returns the frequency spanning the least time. Ranking is done by
// measuring elapsed time from a fixed timestamp, which is well-ordered even
// for anchor combinations that Compare refuses, so Shortest never fails.
func Shortest(freqs ...Frequency) Frequency {
	return pickBySpan(true, freqs)
}

// Longest returns the frequency spanning the most time. Like Shortest, it
// never fails.
func Longest(freqs ...Frequency) Frequency {
	return pickBySpan(false, freqs)
}

func pickBySpan(shortest bool, freqs []Frequency) Frequency {
	if len(freqs) == 0 {
		panic("no frequencies to compare")
	}
	best := freqs[0]
	bestEnd := best.jump(standardCommonTS)
	for _, f := range freqs[1:] {
		end := f.jump(standardCommonTS)
		if shortest && end.Before(bestEnd) || !shortest && end.After(bestEnd) {
			best, bestEnd = f, end
		}
	}
	return best
}

// FreqFromSpacing guesses the frequency from the spacing between two
// consecutive period starts. The calendar frequencies have variable spacing
// (a DST day has 23 or 25 hours, months have 28 to 31 days), hence the
// ranges. Anchored frequencies are returned with the January anchor; grid
// standardization derives the actual anchor from the timestamps.
func FreqFromSpacing(d time.Duration) (Frequency, error) {
	day := 24 * time.Hour
	switch {
	case d == 15*time.Minute:
		return QuarterHour, nil
	case d == time.Hour:
		return Hour, nil
	case d >= 23*time.Hour && d <= 25*time.Hour:
		return Day, nil
	case d >= 27*day && d <= 32*day:
		return MonthStart, nil
	case d >= 89*day && d <= 93*day:
		return QuarterStart(time.January), nil
	case d >= 364*day && d <= 367*day:
		return YearStart(time.January), nil
	default:
		return Frequency{}, fmt.Errorf("%w: spacing %s does not fit any of the allowed frequencies", ErrInvalidFrequency, d)
	}
}
