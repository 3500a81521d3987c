package gridfolio

import (
	"fmt"
	"time"
)

// Summable resamples a series whose values add up over sub-periods (energy,
// revenue) to the target frequency. Downsampling first trims the series to
// full target periods, then sums per target period; upsampling distributes
// each value over the contained periods in proportion to their duration.
//
// The function states the aggregation semantic; it does not second-guess the
// series' kind. An equal source and target frequency is a no-op.
func Summable(s Series, target Frequency) (Series, error) {
	g, vals, err := resampleSummable(s.grid, s.values, target)
	if err != nil {
		return Series{}, err
	}
	return Series{grid: g, kind: s.kind, values: vals}, nil
}

// Averageable resamples a series whose aggregate is the duration-weighted
// mean of sub-period values (power, price) to the target frequency.
// Downsampling yields duration-weighted averages per target period;
// upsampling broadcasts each value to every contained period.
func Averageable(s Series, target Frequency) (Series, error) {
	g, vals, err := resampleAverageable(s.grid, s.values, target)
	if err != nil {
		return Series{}, err
	}
	return Series{grid: g, kind: s.kind, values: vals}, nil
}

// SummableFrame applies Summable column-wise.
func SummableFrame(f *Frame, target Frequency) (*Frame, error) {
	return f.Apply(func(s Series) (Series, error) { return Summable(s, target) })
}

// AverageableFrame applies Averageable column-wise.
func AverageableFrame(f *Frame, target Frequency) (*Frame, error) {
	return f.Apply(func(s Series) (Series, error) { return Averageable(s, target) })
}

// ResampleGrid returns the grid the resampled series will live on, without
// touching values. Useful for pre-sizing and for callers that only need the
// target index.
func ResampleGrid(g Grid, target Frequency) (Grid, error) {
	out, _, err := resampleSummable(g, make([]float64, g.Len()), target)
	return out, err
}

func resampleSummable(g Grid, vals []float64, target Frequency) (Grid, []float64, error) {
	if g.IsEmpty() {
		return EmptyGrid(target, g.loc, g.sod), nil, nil
	}
	cmp, err := Compare(target, g.freq)
	if err != nil {
		return Grid{}, nil, err
	}
	switch cmp {
	case Equal:
		out := make([]float64, len(vals))
		copy(out, vals)
		return g, out, nil
	case Longer:
		return downsampleSummable(g, vals, target)
	case Shorter:
		// Upsample via the averageable proxy: a rate distributes over
		// sub-periods by broadcasting, and multiplying back by the new
		// durations splits the amount proportionally.
		proxy, err := divDurations(g, vals)
		if err != nil {
			return Grid{}, nil, err
		}
		og, ovals, err := upsampleAverageable(g, proxy, target)
		if err != nil {
			return Grid{}, nil, err
		}
		ovals, err = mulDurations(og, ovals)
		if err != nil {
			return Grid{}, nil, err
		}
		return og, ovals, nil
	}
	panic("unreachable")
}

func resampleAverageable(g Grid, vals []float64, target Frequency) (Grid, []float64, error) {
	if g.IsEmpty() {
		return EmptyGrid(target, g.loc, g.sod), nil, nil
	}
	cmp, err := Compare(target, g.freq)
	if err != nil {
		return Grid{}, nil, err
	}
	switch cmp {
	case Equal:
		out := make([]float64, len(vals))
		copy(out, vals)
		return g, out, nil
	case Longer:
		// Downsample via the summable proxy: weight by duration, sum per
		// target period, divide by the target period's duration.
		proxy, err := mulDurations(g, vals)
		if err != nil {
			return Grid{}, nil, err
		}
		og, ovals, err := downsampleSummable(g, proxy, target)
		if err != nil {
			return Grid{}, nil, err
		}
		ovals, err = divDurations(og, ovals)
		if err != nil {
			return Grid{}, nil, err
		}
		return og, ovals, nil
	case Shorter:
		return upsampleAverageable(g, vals, target)
	}
	panic("unreachable")
}

// downsampleSummable groups the series by target period and sums. Only full
// target periods are kept: partial leading and trailing periods are dropped.
// When the source is sub-daily and the target longer than daily, it runs in
// two stages via the daily frequency, because grouping sub-daily stamps
// directly into months or longer would lose the start-of-day offset.
func downsampleSummable(g Grid, vals []float64, target Frequency) (Grid, []float64, error) {
	if g.freq.vsDay() == Shorter && target.vsDay() == Longer {
		dg, dvals, err := downsampleSummable(g, vals, Day)
		if err != nil {
			return Grid{}, nil, err
		}
		if dg.IsEmpty() {
			return EmptyGrid(target, g.loc, g.sod), nil, nil
		}
		return downsampleSummable(dg, dvals, target)
	}

	trimmed, err := g.Trim(target)
	if err != nil {
		return Grid{}, nil, err
	}
	if trimmed.IsEmpty() {
		return EmptyGrid(target, g.loc, g.sod), nil, nil
	}
	offset := g.index(trimmed.First())

	var (
		buckets []time.Time
		sums    []float64
	)
	for i, ts := range trimmed.stamps {
		b, err := Floor(ts, target, 0, g.sod)
		if err != nil {
			return Grid{}, nil, err
		}
		if len(buckets) == 0 || !b.Equal(buckets[len(buckets)-1]) {
			buckets = append(buckets, b)
			sums = append(sums, 0)
		}
		sums[len(sums)-1] += vals[offset+i]
	}
	og, err := NewGrid(target, buckets...)
	if err != nil {
		return Grid{}, nil, err
	}
	return og, sums, nil
}

// upsampleAverageable broadcasts each value to every contained target
// period. When source and target are both longer than daily, it upsamples to
// daily first and then downsamples from daily to the target, so that the
// intermediate stamps carry the start-of-day through the conversion.
func upsampleAverageable(g Grid, vals []float64, target Frequency) (Grid, []float64, error) {
	if g.freq.vsDay() == Longer && target.vsDay() == Longer {
		dg, dvals, err := upsampleAverageable(g, vals, Day)
		if err != nil {
			return Grid{}, nil, err
		}
		return resampleAverageable(dg, dvals, target)
	}

	end, err := g.RightEnd()
	if err != nil {
		return Grid{}, nil, err
	}
	og, err := GridRange(g.First(), end, target)
	if err != nil {
		return Grid{}, nil, err
	}

	ovals := make([]float64, og.Len())
	si := 0
	right, err := Right(g.Stamp(0), g.freq)
	if err != nil {
		return Grid{}, nil, err
	}
	for i, ts := range og.stamps {
		for !ts.Before(right) {
			si++
			if si >= g.Len() {
				return Grid{}, nil, fmt.Errorf("period start %s falls outside the source grid", ts)
			}
			if right, err = Right(g.Stamp(si), g.freq); err != nil {
				return Grid{}, nil, err
			}
		}
		ovals[i] = vals[si]
	}
	return og, ovals, nil
}

func mulDurations(g Grid, vals []float64) ([]float64, error) {
	hours, err := g.durationHours()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v * hours[i]
	}
	return out, nil
}

func divDurations(g Grid, vals []float64) ([]float64, error) {
	hours, err := g.durationHours()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v / hours[i]
	}
	return out, nil
}
