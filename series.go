package gridfolio

import (
	"fmt"
	"iter"
	"math"
	"strings"
	"time"
)

// Series is a timeseries: one value per period of a grid, tagged with the
// physical dimension the values carry. Values are stored in the base unit of
// their kind (MW, MWh, currency/MWh, currency) so arithmetic never needs a
// unit lookup.
//
// A Series owns its grid and values; transformations return new Series.
type Series struct {
	grid   Grid
	kind   Kind
	values []float64
}

// NewSeries pairs values with g. One value per period is required.
func NewSeries(g Grid, kind Kind, values []float64) (Series, error) {
	if len(values) != g.Len() {
		return Series{}, fmt.Errorf("grid has %d periods but %d values given", g.Len(), len(values))
	}
	vals := make([]float64, len(values))
	copy(vals, values)
	return Series{grid: g, kind: kind, values: vals}, nil
}

// ConstSeries broadcasts a single value over every period of g.
func ConstSeries(g Grid, kind Kind, value float64) Series {
	vals := make([]float64, g.Len())
	for i := range vals {
		vals[i] = value
	}
	return Series{grid: g, kind: kind, values: vals}
}

func (s Series) Grid() Grid { return s.grid }
func (s Series) Kind() Kind { return s.kind }
func (s Series) Len() int   { return len(s.values) }

// Value returns the value of the i-th period.
func (s Series) Value(i int) float64 { return s.values[i] }

// Values returns a copy of the values, first to last.
func (s Series) Values() []float64 {
	vals := make([]float64, len(s.values))
	copy(vals, s.values)
	return vals
}

// At returns the value at period start ts.
func (s Series) At(ts time.Time) (float64, bool) {
	i := s.grid.index(ts)
	if i < 0 {
		return 0, false
	}
	return s.values[i], true
}

// All iterates over (period start, value) pairs in order.
func (s Series) All() iter.Seq2[time.Time, float64] {
	return func(yield func(time.Time, float64) bool) {
		for i, v := range s.values {
			if !yield(s.grid.Stamp(i), v) {
				return
			}
		}
	}
}

// Quantities iterates over the values as quantities in the base unit of the
// series kind, resolved against reg.
func (s Series) Quantities(reg *Registry) iter.Seq2[time.Time, Quantity] {
	base := reg.Base(s.kind)
	return func(yield func(time.Time, Quantity) bool) {
		for i, v := range s.values {
			if !yield(s.grid.Stamp(i), Q(v, base)) {
				return
			}
		}
	}
}

// Equal reports exact equality of grid, kind and values.
func (s Series) Equal(o Series) bool {
	if s.kind != o.kind || !s.grid.Equal(o.grid) {
		return false
	}
	for i, v := range s.values {
		if v != o.values[i] {
			return false
		}
	}
	return true
}

// EqualApprox is Equal with a per-value absolute tolerance, for comparing
// results of duration-weighted arithmetic.
func (s Series) EqualApprox(o Series, tol float64) bool {
	if s.kind != o.kind || !s.grid.Equal(o.grid) {
		return false
	}
	for i, v := range s.values {
		if math.Abs(v-o.values[i]) > tol {
			return false
		}
	}
	return true
}

// Scale returns s with every value multiplied by factor. The kind is kept.
func (s Series) Scale(factor float64) Series {
	out := s.clone()
	for i := range out.values {
		out.values[i] *= factor
	}
	return out
}

// MulDuration multiplies each value by its period's duration in hours,
// converting a rate into an amount (power into energy, price stays price
// times hours which has no named kind and is rejected).
func (s Series) MulDuration() (Series, error) {
	kind, ok := mulKind(s.kind, KindDuration)
	if !ok {
		return Series{}, fmt.Errorf("%w: cannot multiply a %s series by duration", ErrAmbiguousDimension, s.kind)
	}
	hours, err := s.grid.durationHours()
	if err != nil {
		return Series{}, err
	}
	out := s.clone()
	out.kind = kind
	for i := range out.values {
		out.values[i] *= hours[i]
	}
	return out, nil
}

// DivDuration divides each value by its period's duration in hours,
// converting an amount into a rate.
func (s Series) DivDuration() (Series, error) {
	kind, ok := divKind(s.kind, KindDuration)
	if !ok {
		return Series{}, fmt.Errorf("%w: cannot divide a %s series by duration", ErrAmbiguousDimension, s.kind)
	}
	hours, err := s.grid.durationHours()
	if err != nil {
		return Series{}, err
	}
	out := s.clone()
	out.kind = kind
	for i := range out.values {
		out.values[i] /= hours[i]
	}
	return out, nil
}

// Mul multiplies two series value by value. Grids must be identical; the
// result kind follows the dimension algebra (power times duration is energy,
// energy times price is revenue).
func (s Series) Mul(o Series) (Series, error) {
	if !s.grid.Equal(o.grid) {
		return Series{}, fmt.Errorf("%w: series grids differ", ErrIndexMismatch)
	}
	kind, ok := mulKind(s.kind, o.kind)
	if !ok {
		return Series{}, fmt.Errorf("%w: cannot multiply %s by %s", ErrAmbiguousDimension, s.kind, o.kind)
	}
	out := s.clone()
	out.kind = kind
	for i := range out.values {
		out.values[i] *= o.values[i]
	}
	return out, nil
}

// Div divides two series value by value. Grids must be identical.
func (s Series) Div(o Series) (Series, error) {
	if !s.grid.Equal(o.grid) {
		return Series{}, fmt.Errorf("%w: series grids differ", ErrIndexMismatch)
	}
	kind, ok := divKind(s.kind, o.kind)
	if !ok {
		return Series{}, fmt.Errorf("%w: cannot divide %s by %s", ErrAmbiguousDimension, s.kind, o.kind)
	}
	out := s.clone()
	out.kind = kind
	for i := range out.values {
		out.values[i] /= o.values[i]
	}
	return out, nil
}

// Reindex returns s restricted to grid g, which must hold a subset of s's
// period starts at the same frequency.
func (s Series) Reindex(g Grid) (Series, error) {
	vals := make([]float64, g.Len())
	for i := 0; i < g.Len(); i++ {
		v, ok := s.At(g.Stamp(i))
		if !ok {
			return Series{}, fmt.Errorf("%w: period %s not present in series", ErrIndexMismatch, g.Stamp(i))
		}
		vals[i] = v
	}
	return Series{grid: g, kind: s.kind, values: vals}, nil
}

func (s Series) clone() Series {
	vals := make([]float64, len(s.values))
	copy(vals, s.values)
	return Series{grid: s.grid, kind: s.kind, values: vals}
}

func (s Series) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s series, %d periods of %s", s.kind, s.Len(), s.grid.freq)
	if s.Len() > 0 {
		fmt.Fprintf(&b, " from %s", s.grid.First().Format("2006-01-02 15:04"))
	}
	return b.String()
}

// Frame is an ordered set of named series sharing one grid, the tabular
// counterpart of Series. Column order is insertion order.
type Frame struct {
	grid  Grid
	names []string
	cols  map[string]Series
}

// NewFrame creates an empty frame on g.
func NewFrame(g Grid) *Frame {
	return &Frame{grid: g, cols: make(map[string]Series)}
}

// AddColumn appends a named column. The series must live on the frame's grid
// and the name must be new.
func (f *Frame) AddColumn(name string, s Series) error {
	if !s.grid.Equal(f.grid) {
		return fmt.Errorf("%w: column %q is on a different grid", ErrIndexMismatch, name)
	}
	if _, dup := f.cols[name]; dup {
		return fmt.Errorf("duplicate column %q", name)
	}
	f.names = append(f.names, name)
	f.cols[name] = s
	return nil
}

func (f *Frame) Grid() Grid        { return f.grid }
func (f *Frame) Columns() []string { return append([]string(nil), f.names...) }

// Column returns the named column.
func (f *Frame) Column(name string) (Series, bool) {
	s, ok := f.cols[name]
	return s, ok
}

// Apply builds a new frame by transforming every column. All columns must
// map onto the same grid.
func (f *Frame) Apply(fn func(Series) (Series, error)) (*Frame, error) {
	var out *Frame
	for _, name := range f.names {
		s, err := fn(f.cols[name])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		if out == nil {
			out = NewFrame(s.grid)
		}
		if err := out.AddColumn(name, s); err != nil {
			return nil, err
		}
	}
	if out == nil {
		out = NewFrame(f.grid)
	}
	return out, nil
}
