package gridfolio

import (
	"fmt"
	"math"
	"sort"
)

// Input is the closed set of shapes accepted by dimension inference: a bare
// number, a unit-tagged quantity, a tagged timeseries, a named mapping, or a
// heterogeneous list of inputs.
type Input interface{ isInput() }

// Number is a bare, dimension-agnostic number.
type Number float64

// Named maps dimension abbreviations (w, q, p, r, nodim, agn) to inputs.
type Named map[string]Input

// List is a heterogeneous collection of inputs, classified one by one and
// combined by envelope union.
type List []Input

func (Number) isInput()   {}
func (Quantity) isInput() {}
func (Series) isInput()   {}
func (Named) isInput()    {}
func (List) isInput()     {}

// member is a single envelope slot: either a scalar or a series, never both.
type member struct {
	series *Series
	scalar float64
}

func scalarMember(v float64) *member { return &member{scalar: v} }
func seriesMember(s Series) *member  { return &member{series: &s} }
func (m *member) isScalar() bool     { return m.series == nil }

// Envelope disambiguates heterogeneous input before committing to a
// dimension. At most one member per slot; two envelopes combine only if
// their populated slots are disjoint.
//
// The zero Envelope is empty and valid.
type Envelope struct {
	w, q, p, r, nodim, agn *member
}

// slotKinds is the fixed slot order used for iteration and error messages.
var slotKinds = []Kind{KindPower, KindEnergy, KindPrice, KindRevenue, KindDimensionless, KindAgnostic}

func (e *Envelope) slot(k Kind) **member {
	switch k {
	case KindPower:
		return &e.w
	case KindEnergy:
		return &e.q
	case KindPrice:
		return &e.p
	case KindRevenue:
		return &e.r
	case KindDimensionless:
		return &e.nodim
	case KindAgnostic:
		return &e.agn
	}
	panic(fmt.Sprintf("kind %s has no envelope slot", k))
}

// Has reports whether the slot for k is populated.
func (e Envelope) Has(k Kind) bool { return *e.slot(k) != nil }

// Get returns the series in slot k. It is only meaningful after
// ToTimeseries, which turns every member into a series.
func (e Envelope) Get(k Kind) (Series, bool) {
	m := *e.slot(k)
	if m == nil || m.series == nil {
		return Series{}, false
	}
	return *m.series, true
}

// Kinds lists the populated slots in fixed order.
func (e Envelope) Kinds() []Kind {
	var out []Kind
	for _, k := range slotKinds {
		if e.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Union combines two envelopes. The populated slots must be disjoint; a
// collision means the same dimension was supplied twice.
func (e Envelope) Union(o Envelope) (Envelope, error) {
	out := e
	for _, k := range slotKinds {
		m := *o.slot(k)
		if m == nil {
			continue
		}
		dst := out.slot(k)
		if *dst != nil {
			return Envelope{}, fmt.Errorf("%w: %s (%q) supplied twice", ErrAmbiguousDimension, k, k.Abbr())
		}
		*dst = m
	}
	return out, nil
}

// Classify turns any accepted input shape into an envelope:
//
//   - a Number fills the dimension-agnostic slot;
//   - a Quantity fills the slot matching its unit's dimension;
//   - a Series fills the slot matching its kind;
//   - a Named mapping classifies each entry under the dimension its key
//     names, retagging agnostic values;
//   - a List classifies each element and unions the results.
func Classify(in Input) (Envelope, error) {
	switch v := in.(type) {
	case Number:
		var e Envelope
		e.agn = scalarMember(float64(v))
		return e, nil

	case Quantity:
		k := v.Kind()
		if !hasSlot(k) {
			return Envelope{}, fmt.Errorf("%w: unit %s has no recognized dimension", ErrAmbiguousDimension, v.Unit())
		}
		var e Envelope
		*e.slot(k) = scalarMember(v.BaseFloat())
		return e, nil

	case Series:
		if !hasSlot(v.Kind()) {
			return Envelope{}, fmt.Errorf("%w: series of kind %s has no recognized dimension", ErrAmbiguousDimension, v.Kind())
		}
		var e Envelope
		*e.slot(v.Kind()) = seriesMember(v)
		return e, nil

	case Named:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var e Envelope
		for _, key := range keys {
			k, err := KindFromAbbr(key)
			if err != nil {
				return Envelope{}, err
			}
			sub, err := Classify(v[key])
			if err != nil {
				return Envelope{}, fmt.Errorf("entry %q: %w", key, err)
			}
			retagged, err := retag(sub, k)
			if err != nil {
				return Envelope{}, fmt.Errorf("entry %q: %w", key, err)
			}
			if e, err = e.Union(retagged); err != nil {
				return Envelope{}, err
			}
		}
		return e, nil

	case List:
		var e Envelope
		for _, item := range v {
			sub, err := Classify(item)
			if err != nil {
				return Envelope{}, err
			}
			if e, err = e.Union(sub); err != nil {
				return Envelope{}, err
			}
		}
		return e, nil
	}
	panic(fmt.Sprintf("unhandled input shape %T", in))
}

func hasSlot(k Kind) bool {
	for _, s := range slotKinds {
		if s == k {
			return true
		}
	}
	return false
}

// retag moves a single-slot envelope into the slot a mapping key names. An
// agnostic member takes on the named dimension; a member that already has a
// dimension must match the key.
func retag(e Envelope, k Kind) (Envelope, error) {
	kinds := e.Kinds()
	if len(kinds) != 1 {
		return Envelope{}, fmt.Errorf("%w: value populates %d dimensions, want exactly one", ErrAmbiguousDimension, len(kinds))
	}
	have := kinds[0]
	m := *e.slot(have)
	if have == k {
		return e, nil
	}
	if have != KindAgnostic {
		return Envelope{}, fmt.Errorf("%w: key names %s but value has dimension %s", ErrAmbiguousDimension, k, have)
	}
	var out Envelope
	if m.isScalar() {
		*out.slot(k) = scalarMember(m.scalar)
		return out, nil
	}
	s := *m.series
	s.kind = k
	*out.slot(k) = seriesMember(s)
	return out, nil
}

// ToTimeseries materializes every populated slot as a series on the
// governing grid: the strict intersection of the grids of all series members
// plus ref, if given. Scalars are broadcast over that grid. With neither a
// series member nor a reference grid there is no grid to broadcast over, and
// an empty intersection leaves nothing to materialize; both are errors.
func (e Envelope) ToTimeseries(ref *Grid) (Envelope, error) {
	var grids []Grid
	for _, k := range slotKinds {
		if m := *e.slot(k); m != nil && !m.isScalar() {
			grids = append(grids, m.series.grid)
		}
	}
	if ref != nil {
		grids = append(grids, *ref)
	}
	if len(grids) == 0 {
		return Envelope{}, fmt.Errorf("%w: no timeseries and no reference grid to broadcast scalars over", ErrIndexMismatch)
	}
	governing, err := Intersect(grids...)
	if err != nil {
		return Envelope{}, err
	}
	if governing.IsEmpty() {
		return Envelope{}, fmt.Errorf("%w: grids have no overlap", ErrIndexMismatch)
	}

	var out Envelope
	for _, k := range slotKinds {
		m := *e.slot(k)
		if m == nil {
			continue
		}
		if m.isScalar() {
			*out.slot(k) = seriesMember(ConstSeries(governing, k, m.scalar))
			continue
		}
		s, err := m.series.Reindex(governing)
		if err != nil {
			return Envelope{}, err
		}
		*out.slot(k) = seriesMember(s)
	}
	return out, nil
}

// Resolve commits the envelope to a single working dimension: exactly one of
// power, energy, price or revenue populated yields that series; a lone
// dimensionless or agnostic member is a plain scale factor. Mixing
// dimension-aware and dimensionless members, or populating several
// dimensions, is ambiguous.
func (e Envelope) Resolve() (Kind, Series, error) {
	var dims, plain []Kind
	for _, k := range slotKinds {
		if !e.Has(k) {
			continue
		}
		if k == KindDimensionless || k == KindAgnostic {
			plain = append(plain, k)
		} else {
			dims = append(dims, k)
		}
	}
	switch {
	case len(dims) == 0 && len(plain) == 0:
		return 0, Series{}, fmt.Errorf("%w: no dimension supplied", ErrAmbiguousDimension)
	case len(dims) > 0 && len(plain) > 0:
		return 0, Series{}, fmt.Errorf("%w: cannot mix dimension-aware (%v) and dimensionless (%v) data", ErrAmbiguousDimension, dims, plain)
	case len(dims) > 1:
		return 0, Series{}, fmt.Errorf("%w: several dimensions supplied (%v); complete and pick one, or supply one", ErrAmbiguousDimension, dims)
	case len(plain) > 1:
		return 0, Series{}, fmt.Errorf("%w: both explicit-dimensionless and agnostic data supplied", ErrAmbiguousDimension)
	}
	var k Kind
	if len(dims) == 1 {
		k = dims[0]
	} else {
		k = plain[0]
	}
	m := *e.slot(k)
	if m.isScalar() {
		return 0, Series{}, fmt.Errorf("slot %s holds a bare scalar; call ToTimeseries first", k)
	}
	return k, *m.series, nil
}

// Tolerances for the dimension-identity checks in Complete.
const (
	completeRtol = 1e-5
	completeAtol = 1e-8
)

func withinTolerance(got, want float64) bool {
	return math.Abs(got-want) <= completeAtol+completeRtol*math.Abs(want)
}

// unknownValue reports a value that carries no information (NaN, or the
// infinity produced by dividing by a zero member).
func unknownValue(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// Complete derives the missing dimensional members from the populated ones:
// energy from power times duration (and the other way around), revenue from
// energy times price, energy from revenue over price, price from revenue
// over energy. All members must already be series on one grid, so call
// ToTimeseries first. Dimensionless or agnostic members make the intent
// ambiguous and are rejected.
//
// Supplied members are verified against each other: power and energy must
// agree with the duration identity, and revenue must agree with energy times
// price, both within tolerance, or the envelope is rejected with
// ErrInconsistentData. Periods where the price carries no information and the
// energy is zero are treated as zero revenue, and such degenerate periods
// are skipped by the revenue check.
func (e Envelope) Complete() (Envelope, error) {
	if e.Has(KindDimensionless) || e.Has(KindAgnostic) {
		return Envelope{}, fmt.Errorf("%w: cannot complete an envelope holding dimensionless data", ErrAmbiguousDimension)
	}
	for _, k := range []Kind{KindPower, KindEnergy, KindPrice, KindRevenue} {
		if m := *e.slot(k); m != nil && m.isScalar() {
			return Envelope{}, fmt.Errorf("slot %s holds a bare scalar; call ToTimeseries first", k)
		}
	}

	out := e

	// Supplied power and energy must agree before anything is derived.
	if w, wok := out.Get(KindPower); wok {
		if q, qok := out.Get(KindEnergy); qok {
			fromEnergy, err := q.DivDuration()
			if err != nil {
				return Envelope{}, err
			}
			if !w.grid.Equal(fromEnergy.grid) {
				return Envelope{}, fmt.Errorf("%w: w and q series are on different grids", ErrIndexMismatch)
			}
			for i, ts := range w.grid.All() {
				if !withinTolerance(w.values[i], fromEnergy.values[i]) {
					return Envelope{}, fmt.Errorf("%w: values for w and q are not consistent at %s: w = %v, q/duration = %v",
						ErrInconsistentData, ts, w.values[i], fromEnergy.values[i])
				}
			}
		}
	}

	var err error
	fill := func(k Kind, derive func() (Series, error)) {
		if err != nil || out.Has(k) {
			return
		}
		var s Series
		if s, err = derive(); err == nil {
			*out.slot(k) = seriesMember(s)
		}
	}

	if w, ok := out.Get(KindPower); ok {
		fill(KindEnergy, w.MulDuration)
	}
	if q, ok := out.Get(KindEnergy); ok {
		fill(KindPower, q.DivDuration)
	}
	if r, ok := out.Get(KindRevenue); ok {
		if p, pok := out.Get(KindPrice); pok {
			fill(KindEnergy, func() (Series, error) { return r.Div(p) })
			if q, qok := out.Get(KindEnergy); qok {
				fill(KindPower, q.DivDuration)
			}
		}
		if q, qok := out.Get(KindEnergy); qok {
			fill(KindPrice, func() (Series, error) { return r.Div(q) })
		}
	}
	if q, ok := out.Get(KindEnergy); ok {
		if p, pok := out.Get(KindPrice); pok {
			fill(KindRevenue, func() (Series, error) {
				r, err := q.Mul(p)
				if err != nil {
					return Series{}, err
				}
				// Zero energy at an uninformative price means zero revenue.
				for i := range r.values {
					if withinTolerance(q.values[i], 0) && unknownValue(p.values[i]) {
						r.values[i] = 0
					}
				}
				return r, nil
			})
		}
	}
	if err != nil {
		return Envelope{}, err
	}

	return out, out.checkRevenue()
}

// checkRevenue verifies revenue against energy times price where all three
// members are present. Degenerate periods, where one factor is zero and the
// other carries no information, prove nothing and are skipped.
func (e Envelope) checkRevenue() error {
	q, qok := e.Get(KindEnergy)
	p, pok := e.Get(KindPrice)
	r, rok := e.Get(KindRevenue)
	if !qok || !pok || !rok {
		return nil
	}
	if !r.grid.Equal(q.grid) || !r.grid.Equal(p.grid) {
		return fmt.Errorf("%w: q, p and r series are on different grids", ErrIndexMismatch)
	}
	for i, ts := range r.grid.All() {
		ignore := (withinTolerance(q.values[i], 0) && unknownValue(p.values[i])) ||
			(withinTolerance(p.values[i], 0) && unknownValue(q.values[i]))
		if ignore {
			continue
		}
		if !withinTolerance(r.values[i], p.values[i]*q.values[i]) {
			return fmt.Errorf("%w: values for r, p and q are not consistent at %s: r = %v, p*q = %v",
				ErrInconsistentData, ts, r.values[i], p.values[i]*q.values[i])
		}
	}
	return nil
}

// Frame lays the populated slots out as columns of one frame, in fixed slot
// order, named by their dimension abbreviations. All members must be series
// on one grid.
func (e Envelope) Frame() (*Frame, error) {
	var f *Frame
	for _, k := range slotKinds {
		m := *e.slot(k)
		if m == nil {
			continue
		}
		if m.isScalar() {
			return nil, fmt.Errorf("slot %s holds a bare scalar; call ToTimeseries first", k)
		}
		if f == nil {
			f = NewFrame(m.series.grid)
		}
		if err := f.AddColumn(k.Abbr(), *m.series); err != nil {
			return nil, err
		}
	}
	if f == nil {
		return nil, fmt.Errorf("%w: empty envelope", ErrAmbiguousDimension)
	}
	return f, nil
}
