package gridfolio

import (
	"fmt"
	"time"
)

// Intersect intersects several grids strictly: they must share frequency,
// timezone and start-of-day, otherwise ErrIndexMismatch names the offending
// attribute. The result is the contiguous grid of the common frequency
// spanning the overlapping period starts; an empty overlap yields an empty
// grid, not an error.
//
// The overlap is computed as a timestamp-set intersection, never by interval
// arithmetic: calendar grids are non-uniform in absolute duration even while
// uniform in period count.
//
// Strict intersection would hand every input the same grid back, so the
// per-input results are deliberately collapsed into the one shared grid.
// Use IntersectFlex for a per-input result when attributes may differ.
func Intersect(gs ...Grid) (Grid, error) {
	if len(gs) == 0 {
		return Grid{}, fmt.Errorf("must specify at least one grid")
	}
	if len(gs) == 1 {
		return gs[0], nil
	}

	for _, g := range gs[1:] {
		if g.freq != gs[0].freq {
			return Grid{}, fmt.Errorf("%w: grids must have equal frequencies; got %s and %s", ErrIndexMismatch, gs[0].freq, g.freq)
		}
		if g.locString() != gs[0].locString() {
			return Grid{}, fmt.Errorf("%w: grids must have equal timezones; got %s and %s", ErrIndexMismatch, gs[0].locString(), g.locString())
		}
	}

	for _, g := range gs {
		if g.IsEmpty() {
			return EmptyGrid(gs[0].freq, gs[0].loc, gs[0].sod), nil
		}
	}

	// Start-of-day can only be read off non-empty grids.
	for _, g := range gs[1:] {
		if g.sod != gs[0].sod {
			return Grid{}, fmt.Errorf("%w: grids must have equal start-of-day; got %s and %s", ErrIndexMismatch, gs[0].sod, g.sod)
		}
	}

	common := commonStamps(gs)
	if len(common) == 0 {
		return EmptyGrid(gs[0].freq, gs[0].loc, gs[0].sod), nil
	}

	// Re-derive a contiguous grid over the overlap.
	end, err := Right(common[len(common)-1], gs[0].freq)
	if err != nil {
		return Grid{}, err
	}
	return GridRange(common[0], end, gs[0].freq)
}

// commonStamps returns, in order, the stamps of gs[0] present in every grid.
func commonStamps(gs []Grid) []time.Time {
	var out []time.Time
	for _, ts := range gs[0].stamps {
		inAll := true
		for _, g := range gs[1:] {
			if !g.Contains(ts) {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, ts)
		}
	}
	return out
}

// IntersectFlex intersects several grids, with the option of normalizing
// away chosen dimensions of mismatch before intersecting:
//
//   - IgnoreFreq: grids of different frequency are trimmed to full periods of
//     their longest common frequency first; the overlapping periods are then
//     re-expanded at each grid's own frequency (the right bound of the last
//     overlapping long period is appended before re-expansion so no boundary
//     data is lost).
//   - IgnoreTZ: the intersection is computed on wall-clock time.
//   - IgnoreStartOfDay: grids are normalized to midnight before intersecting;
//     each output grid gets its own start-of-day restored.
//
// Any non-toggled mismatch is ErrIndexMismatch. The result is one grid per
// input, in input order, each retaining that input's own frequency, timezone
// and start-of-day except where explicitly toggled away.
func IntersectFlex(gs []Grid, ignoreFreq, ignoreTZ, ignoreSOD bool) ([]Grid, error) {
	if len(gs) == 0 {
		return nil, fmt.Errorf("must specify at least one grid")
	}
	if len(gs) == 1 {
		return []Grid{gs[0]}, nil
	}

	distinctFreq, distinctTZ, distinctSOD := false, false, false
	for _, g := range gs[1:] {
		distinctFreq = distinctFreq || g.freq != gs[0].freq
		distinctTZ = distinctTZ || g.locString() != gs[0].locString()
		distinctSOD = distinctSOD || g.sod != gs[0].sod
	}

	if distinctFreq && !ignoreFreq {
		return nil, fmt.Errorf("%w: grids must have equal frequencies; got %s", ErrIndexMismatch, freqList(gs))
	}
	if distinctTZ && !ignoreTZ {
		return nil, fmt.Errorf("%w: grids must have equal timezones; got %s and %s", ErrIndexMismatch, gs[0].locString(), otherLoc(gs))
	}
	if distinctSOD && !ignoreSOD {
		return nil, fmt.Errorf("%w: grids must have equal start-of-day; got %s and %s", ErrIndexMismatch, gs[0].sod, otherSOD(gs))
	}
	if distinctSOD {
		for _, g := range gs {
			if g.freq.vsDay() == Shorter {
				return nil, fmt.Errorf("%w: downsample all grids to daily-or-longer, or trim them to the same start-of-day, before intersecting", ErrIndexMismatch)
			}
		}
	}

	for _, g := range gs {
		if g.IsEmpty() {
			return emptiesLike(gs), nil
		}
	}

	work := make([]Grid, len(gs))
	copy(work, gs)

	longest := gs[0].freq
	if ignoreFreq && distinctFreq {
		freqs := make([]Frequency, len(gs))
		for i, g := range gs {
			freqs[i] = g.freq
		}
		longest = Longest(freqs...)
		for i, g := range work {
			if g.freq != longest {
				trimmed, err := g.Trim(longest)
				if err != nil {
					return nil, err
				}
				work[i] = trimmed
			}
		}
	}
	if ignoreTZ && distinctTZ {
		for i := range work {
			work[i] = work[i].Dislocated()
		}
	}
	if ignoreSOD && distinctSOD {
		for i := range work {
			normalized, err := work[i].WithStartOfDay(Midnight)
			if err != nil {
				return nil, err
			}
			work[i] = normalized
		}
	}

	// Timestamp-set intersection on the normalized grids. The stamps of
	// different-frequency grids only coincide on the longest frequency's
	// period starts, which is exactly the overlap wanted.
	var common []time.Time
	for _, ts := range work[0].stamps {
		inAll := true
		for _, g := range work[1:] {
			if !g.Contains(ts) {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, ts)
		}
	}
	if len(common) == 0 {
		return emptiesLike(gs), nil
	}

	start := common[0]
	end, err := Right(common[len(common)-1], longest)
	if err != nil {
		return nil, err
	}

	out := make([]Grid, len(gs))
	for i, g := range gs {
		lo, hi := start, end
		if ignoreTZ && distinctTZ {
			// start/end are wall times; re-express them in this grid's zone.
			if lo, err = relocate(lo, g.loc); err != nil {
				return nil, err
			}
			if hi, err = relocate(hi, g.loc); err != nil {
				return nil, err
			}
		}
		if ignoreSOD && distinctSOD {
			// Restore this grid's own start-of-day.
			if lo, err = atStartOfDay(lo, g.sod); err != nil {
				return nil, err
			}
			if hi, err = atStartOfDay(hi, g.sod); err != nil {
				return nil, err
			}
		}
		if out[i], err = GridRange(lo, hi, g.freq); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func relocate(ts time.Time, loc *time.Location) (time.Time, error) {
	y, m, d := ts.Date()
	return makeLocal(y, m, d, ts.Hour(), ts.Minute(), loc)
}

func atStartOfDay(ts time.Time, sod StartOfDay) (time.Time, error) {
	y, m, d := ts.Date()
	return makeLocal(y, m, d, sod.hour, sod.minute, ts.Location())
}

func emptiesLike(gs []Grid) []Grid {
	out := make([]Grid, len(gs))
	for i, g := range gs {
		out[i] = EmptyGrid(g.freq, g.loc, g.sod)
	}
	return out
}

func freqList(gs []Grid) string {
	s := ""
	for i, g := range gs {
		if i > 0 {
			s += ", "
		}
		s += g.freq.String()
	}
	return s
}

func otherLoc(gs []Grid) string {
	for _, g := range gs[1:] {
		if g.locString() != gs[0].locString() {
			return g.locString()
		}
	}
	return gs[0].locString()
}

func otherSOD(gs []Grid) StartOfDay {
	for _, g := range gs[1:] {
		if g.sod != gs[0].sod {
			return g.sod
		}
	}
	return gs[0].sod
}
