package gridfolio

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	reg := DefaultRegistry()
	mw := reg.Base(KindPower)

	tests := []struct {
		name     string
		in       Input
		expected []Kind
		err      error
	}{
		{"bare number", Number(100), []Kind{KindAgnostic}, nil},
		{"power quantity", Q(120, mw), []Kind{KindPower}, nil},
		{"named number", Named{"w": Number(120)}, []Kind{KindPower}, nil},
		{"named pair", Named{"w": Number(120), "p": Number(45)}, []Kind{KindPower, KindPrice}, nil},
		{"unknown key", Named{"x": Number(1)}, nil, ErrUnknownKey},
		{"key contradicts unit", Named{"p": Q(120, mw)}, nil, ErrAmbiguousDimension},
		{"list", List{Q(120, mw), Named{"p": Number(45)}}, []Kind{KindPower, KindPrice}, nil},
		{"list collision", List{Q(120, mw), Named{"w": Number(100)}}, nil, ErrAmbiguousDimension},
		{"duration has no slot", Q(24, hourUnit), nil, ErrAmbiguousDimension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Classify(tt.in)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Classify error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			got := e.Kinds()
			if len(got) != len(tt.expected) {
				t.Fatalf("Kinds = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Kinds = %v, want %v", got, tt.expected)
				}
			}
		})
	}
}

func TestEnvelopeUnion(t *testing.T) {
	reg := DefaultRegistry()
	w, err := Classify(Q(120, reg.Base(KindPower)))
	if err != nil {
		t.Fatal(err)
	}
	q, err := Classify(Q(500, reg.Base(KindEnergy)))
	if err != nil {
		t.Fatal(err)
	}

	both, err := w.Union(q)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	if !both.Has(KindPower) || !both.Has(KindEnergy) {
		t.Errorf("union misses a slot: %v", both.Kinds())
	}

	// Commutative.
	swapped, err := q.Union(w)
	if err != nil {
		t.Fatal(err)
	}
	if len(swapped.Kinds()) != len(both.Kinds()) {
		t.Error("union is not commutative")
	}

	// Collision.
	w2, _ := Classify(Q(80, reg.Base(KindPower)))
	if _, err := w.Union(w2); !errors.Is(err, ErrAmbiguousDimension) {
		t.Errorf("collision error = %v, want ErrAmbiguousDimension", err)
	}
}

func TestToTimeseries(t *testing.T) {
	utc := time.UTC
	g := dailyGrid(t,
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 2, 1, 0, 0, 0, 0, utc))
	sub := dailyGrid(t,
		time.Date(2020, 1, 10, 0, 0, 0, 0, utc),
		time.Date(2020, 2, 10, 0, 0, 0, 0, utc))

	w := mustSeries(t, g, KindPower, ones(g.Len()))
	p := mustSeries(t, sub, KindPrice, ones(sub.Len()))
	e, err := Classify(List{w, p, Named{"nodim": Number(0.5)}})
	if err != nil {
		t.Fatal(err)
	}

	out, err := e.ToTimeseries(nil)
	if err != nil {
		t.Fatalf("ToTimeseries: %v", err)
	}
	wOut, ok := out.Get(KindPower)
	if !ok {
		t.Fatal("power slot lost")
	}
	if wOut.Len() != 22 { // Jan 10th through 31st
		t.Errorf("Len = %d, want 22", wOut.Len())
	}
	nOut, _ := out.Get(KindDimensionless)
	if nOut.Len() != 22 || nOut.Value(0) != 0.5 {
		t.Errorf("broadcast scalar = %v", nOut.Values())
	}

	// A scalar-only envelope needs a reference grid.
	scalarOnly, _ := Classify(Number(100))
	if _, err := scalarOnly.ToTimeseries(nil); err == nil {
		t.Error("scalar without reference grid: want error")
	}
	out, err = scalarOnly.ToTimeseries(&g)
	if err != nil {
		t.Fatalf("with reference grid: %v", err)
	}
	if s, _ := out.Get(KindAgnostic); s.Len() != g.Len() {
		t.Errorf("broadcast over reference grid: Len = %d, want %d", s.Len(), g.Len())
	}

	// Disjoint grids leave nothing to materialize over.
	far := dailyGrid(t,
		time.Date(2021, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2021, 2, 1, 0, 0, 0, 0, utc))
	disjoint, err := Classify(List{w, mustSeries(t, far, KindPrice, ones(far.Len()))})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := disjoint.ToTimeseries(nil); err == nil {
		t.Error("empty overlap during materialization: want error")
	}
}

func TestResolve(t *testing.T) {
	utc := time.UTC
	g := dailyGrid(t,
		time.Date(2020, 1, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 1, 11, 0, 0, 0, 0, utc))
	w := mustSeries(t, g, KindPower, ones(g.Len()))

	e, err := Classify(w)
	if err != nil {
		t.Fatal(err)
	}
	kind, s, err := e.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if kind != KindPower || s.Len() != g.Len() {
		t.Errorf("Resolve = %s, %d values", kind, s.Len())
	}

	// Dimension-aware mixed with dimensionless is ambiguous.
	mixed, err := Classify(List{w, Named{"nodim": mustSeries(t, g, KindDimensionless, ones(g.Len()))}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := mixed.Resolve(); !errors.Is(err, ErrAmbiguousDimension) {
		t.Errorf("mixed Resolve error = %v, want ErrAmbiguousDimension", err)
	}

	// A lone agnostic member resolves as a plain factor.
	agn, err := Classify(mustSeries(t, g, KindAgnostic, ones(g.Len())))
	if err != nil {
		t.Fatal(err)
	}
	kind, _, err = agn.Resolve()
	if err != nil {
		t.Fatalf("agnostic Resolve: %v", err)
	}
	if kind != KindAgnostic {
		t.Errorf("Resolve = %s, want agnostic", kind)
	}
}

func TestComplete(t *testing.T) {
	utc := time.UTC
	g := dailyGrid(t,
		time.Date(2020, 6, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 6, 4, 0, 0, 0, 0, utc))
	w := mustSeries(t, g, KindPower, []float64{100, 200, 300})
	p := mustSeries(t, g, KindPrice, []float64{40, 50, 60})

	e, err := Classify(List{w, p})
	if err != nil {
		t.Fatal(err)
	}
	full, err := e.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	q, ok := full.Get(KindEnergy)
	if !ok {
		t.Fatal("energy not derived")
	}
	if q.Value(0) != 2400 { // 100 MW over a 24h day
		t.Errorf("q[0] = %v, want 2400", q.Value(0))
	}
	r, ok := full.Get(KindRevenue)
	if !ok {
		t.Fatal("revenue not derived")
	}
	if r.Value(0) != 96000 { // 2400 MWh at 40/MWh
		t.Errorf("r[0] = %v, want 96000", r.Value(0))
	}

	// The reverse derivation: revenue and price give energy and power.
	e2, err := Classify(List{
		mustSeries(t, g, KindRevenue, []float64{96000, 240000, 432000}),
		p,
	})
	if err != nil {
		t.Fatal(err)
	}
	full2, err := e2.Complete()
	if err != nil {
		t.Fatal(err)
	}
	w2, ok := full2.Get(KindPower)
	if !ok {
		t.Fatal("power not derived")
	}
	if w2.Value(0) != 100 {
		t.Errorf("w[0] = %v, want 100", w2.Value(0))
	}
}

func TestCompleteInconsistent(t *testing.T) {
	utc := time.UTC
	g := dailyGrid(t,
		time.Date(2020, 6, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 6, 2, 0, 0, 0, 0, utc))

	// 100 MW over a 24h day is 2400 MWh, not 1 MWh.
	e, err := Classify(List{
		mustSeries(t, g, KindPower, []float64{100}),
		mustSeries(t, g, KindEnergy, []float64{1}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Complete(); !errors.Is(err, ErrInconsistentData) {
		t.Errorf("w/q mismatch: err = %v, want ErrInconsistentData", err)
	}

	// Revenue must match energy times price.
	e2, err := Classify(List{
		mustSeries(t, g, KindEnergy, []float64{10}),
		mustSeries(t, g, KindPrice, []float64{5}),
		mustSeries(t, g, KindRevenue, []float64{999}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e2.Complete(); !errors.Is(err, ErrInconsistentData) {
		t.Errorf("r/p/q mismatch: err = %v, want ErrInconsistentData", err)
	}

	// Consistent within tolerance passes.
	e3, err := Classify(List{
		mustSeries(t, g, KindPower, []float64{100}),
		mustSeries(t, g, KindEnergy, []float64{2400.001}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e3.Complete(); err != nil {
		t.Errorf("near-consistent w/q: unexpected error %v", err)
	}
}

func TestCompleteZeroEnergy(t *testing.T) {
	utc := time.UTC
	g := dailyGrid(t,
		time.Date(2020, 6, 1, 0, 0, 0, 0, utc),
		time.Date(2020, 6, 3, 0, 0, 0, 0, utc))

	// A zero-energy period with an uninformative price has zero revenue.
	e, err := Classify(List{
		mustSeries(t, g, KindEnergy, []float64{0, 10}),
		mustSeries(t, g, KindPrice, []float64{math.Inf(1), 5}),
	})
	if err != nil {
		t.Fatal(err)
	}
	full, err := e.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	r, ok := full.Get(KindRevenue)
	if !ok {
		t.Fatal("revenue not derived")
	}
	if r.Value(0) != 0 {
		t.Errorf("r[0] = %v, want 0", r.Value(0))
	}
	if r.Value(1) != 50 {
		t.Errorf("r[1] = %v, want 50", r.Value(1))
	}
}
