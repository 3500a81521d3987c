package gridfolio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Kind is the physical dimension of a value in an energy portfolio.
type Kind int

const (
	// KindAgnostic marks a bare number that has not committed to a dimension.
	KindAgnostic Kind = iota
	KindPower
	KindEnergy
	KindPrice
	KindRevenue
	// KindDimensionless marks an explicitly dimensionless factor.
	KindDimensionless
	// KindDuration is the length of a delivery period, in hours.
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindAgnostic:
		return "agnostic"
	case KindPower:
		return "power"
	case KindEnergy:
		return "energy"
	case KindPrice:
		return "price"
	case KindRevenue:
		return "revenue"
	case KindDimensionless:
		return "dimensionless"
	case KindDuration:
		return "duration"
	default:
		panic(fmt.Sprintf("unknown kind %d", int(k)))
	}
}

// Abbr returns the standard column abbreviation for the kind.
func (k Kind) Abbr() string {
	switch k {
	case KindAgnostic:
		return "agn"
	case KindPower:
		return "w"
	case KindEnergy:
		return "q"
	case KindPrice:
		return "p"
	case KindRevenue:
		return "r"
	case KindDimensionless:
		return "nodim"
	case KindDuration:
		return "duration"
	default:
		panic(fmt.Sprintf("unknown kind %d", int(k)))
	}
}

// KindFromAbbr resolves a column abbreviation ("w", "q", "p", "r", "nodim",
// "agn") to a Kind.
func KindFromAbbr(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w":
		return KindPower, nil
	case "q":
		return KindEnergy, nil
	case "p":
		return KindPrice, nil
	case "r":
		return KindRevenue, nil
	case "nodim":
		return KindDimensionless, nil
	case "agn":
		return KindAgnostic, nil
	default:
		return 0, fmt.Errorf("%w: %q is not one of w, q, p, r, nodim, agn", ErrUnknownKey, s)
	}
}

// Summable reports whether sub-period values of this kind add up to the
// period aggregate (energy, revenue).
func (k Kind) Summable() bool { return k == KindEnergy || k == KindRevenue }

// Averageable reports whether the period aggregate of this kind is the
// duration-weighted mean of sub-period values (power, price).
func (k Kind) Averageable() bool { return k == KindPower || k == KindPrice }

// Unit is a measurement unit of one Kind, with an exact conversion factor
// into the kind's base unit (MW, MWh, <currency>/MWh, <currency>, h).
type Unit struct {
	symbol string
	kind   Kind
	factor decimal.Decimal // multiplier into the base unit
}

func (u Unit) String() string { return u.symbol }
func (u Unit) Kind() Kind     { return u.kind }

func newUnit(symbol string, kind Kind, factor string) Unit {
	return Unit{symbol: symbol, kind: kind, factor: decimal.RequireFromString(factor)}
}

// Units that do not depend on the registry's currency.
var (
	hourUnit = newUnit("h", KindDuration, "1")
	oneUnit  = newUnit("", KindDimensionless, "1")
)

// Registry is the process-wide unit table. It is populated once from a fixed
// definitions table and never mutated afterwards, so all conversions are
// deterministic across the process lifetime. Pass it by injection into
// dimension inference; DefaultRegistry returns the lazily-built EUR registry.
type Registry struct {
	currency string
	units    map[string]Unit
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared registry with EUR as its currency.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r, err := NewRegistry("EUR")
		if err != nil {
			panic(err.Error()) // fixed table; cannot fail
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// NewRegistry builds a unit registry for the given ISO currency code. The
// currency's minor unit ("ct" for a 2-fraction currency) is derived from the
// ISO table.
func NewRegistry(currency string) (*Registry, error) {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return nil, fmt.Errorf("unknown currency code %q", currency)
	}
	minorFactor := decimal.New(1, -int32(cur.Fraction)) // e.g. 0.01 for EUR

	r := &Registry{currency: currency, units: map[string]Unit{}}
	add := func(u Unit) { r.units[strings.ToLower(u.symbol)] = u }

	// Power, base MW.
	add(newUnit("W", KindPower, "0.000001"))
	add(newUnit("kW", KindPower, "0.001"))
	add(newUnit("MW", KindPower, "1"))
	add(newUnit("GW", KindPower, "1000"))
	// Energy, base MWh.
	add(newUnit("Wh", KindEnergy, "0.000001"))
	add(newUnit("kWh", KindEnergy, "0.001"))
	add(newUnit("MWh", KindEnergy, "1"))
	add(newUnit("GWh", KindEnergy, "1000"))
	// Price, base <currency>/MWh. The minor-unit price ct/kWh is an exact
	// multiple: 1 ct/kWh = 10 EUR/MWh (for 2-fraction currencies).
	add(Unit{symbol: currency + "/MWh", kind: KindPrice, factor: decimal.NewFromInt(1)})
	add(Unit{symbol: "ct/kWh", kind: KindPrice, factor: minorFactor.Mul(decimal.NewFromInt(1000))})
	// Revenue, base <currency>.
	add(Unit{symbol: currency, kind: KindRevenue, factor: decimal.NewFromInt(1)})
	add(Unit{symbol: "k" + currency, kind: KindRevenue, factor: decimal.NewFromInt(1000)})
	add(Unit{symbol: "ct", kind: KindRevenue, factor: minorFactor})
	// Other.
	add(hourUnit)
	add(oneUnit)
	return r, nil
}

// Currency returns the registry's ISO currency code.
func (r *Registry) Currency() string { return r.currency }

// Unit resolves a unit symbol. Unrecognized symbols are fatal: the dimension
// table is closed.
func (r *Registry) Unit(symbol string) (Unit, error) {
	u, ok := r.units[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return Unit{}, fmt.Errorf("unit %q has no recognized dimension", symbol)
	}
	return u, nil
}

// Base returns the base unit of the given kind.
func (r *Registry) Base(kind Kind) Unit {
	switch kind {
	case KindPower:
		return r.units["mw"]
	case KindEnergy:
		return r.units["mwh"]
	case KindPrice:
		return r.units[strings.ToLower(r.currency)+"/mwh"]
	case KindRevenue:
		return r.units[strings.ToLower(r.currency)]
	case KindDuration:
		return hourUnit
	default:
		return oneUnit
	}
}

// FormatMoney renders a revenue quantity in the registry's currency, using
// the ISO formatting rules (symbol, grouping, fraction digits).
func (r *Registry) FormatMoney(q Quantity) string {
	cur := money.GetCurrency(r.currency)
	minor := q.value.Mul(q.unit.factor).Shift(int32(cur.Fraction))
	return money.New(minor.IntPart(), r.currency).Display()
}

// newDecimal is a convenient factory for decimal.Decimal.
func newDecimal[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// Quantity is a single scalar with a unit.
type Quantity struct {
	value decimal.Decimal
	unit  Unit
}

// Q builds a quantity from a number and a unit.
func Q[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T, unit Unit) Quantity {
	return Quantity{value: newDecimal(value), unit: unit}
}

func hoursQty(h float64) Quantity { return Q(h, hourUnit) }

// ParseQuantity parses "<number> <unit>", e.g. "120 MW" or "-45.5 EUR/MWh".
func ParseQuantity(r *Registry, s string) (Quantity, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return Quantity{}, fmt.Errorf("invalid quantity %q, want \"<number> <unit>\"", s)
	}
	value, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	unit, err := r.Unit(fields[1])
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return Quantity{value: value, unit: unit}, nil
}

func (q Quantity) Unit() Unit               { return q.unit }
func (q Quantity) Kind() Kind               { return q.unit.kind }
func (q Quantity) Decimal() decimal.Decimal { return q.value }
func (q Quantity) IsZero() bool             { return q.value.IsZero() }
func (q Quantity) Neg() Quantity            { return Quantity{value: q.value.Neg(), unit: q.unit} }

// BaseFloat returns the magnitude expressed in the base unit of q's kind.
func (q Quantity) BaseFloat() float64 {
	return q.value.Mul(q.unit.factor).InexactFloat64()
}

// Convert returns q expressed in the given unit of the same kind.
func (q Quantity) Convert(to Unit) (Quantity, error) {
	if q.unit.kind != to.kind {
		return Quantity{}, fmt.Errorf("cannot convert %s (%s) to %s (%s)", q.unit, q.unit.kind, to, to.kind)
	}
	return Quantity{value: q.value.Mul(q.unit.factor).Div(to.factor), unit: to}, nil
}

// Equal reports whether two quantities denote the same physical value,
// regardless of unit.
func (q Quantity) Equal(p Quantity) bool {
	return q.unit.kind == p.unit.kind && q.value.Mul(q.unit.factor).Equal(p.value.Mul(p.unit.factor))
}

// Add returns the sum of two quantities of the same kind, in q's unit.
func (q Quantity) Add(p Quantity) (Quantity, error) {
	pc, err := p.Convert(q.unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: q.value.Add(pc.value), unit: q.unit}, nil
}

func (q Quantity) String() string {
	if q.unit.symbol == "" {
		return q.value.String()
	}
	return q.value.String() + " " + q.unit.symbol
}

// mulKind and divKind encode the dimension algebra of the portfolio:
// power times duration is energy, energy times price is revenue.
func mulKind(a, b Kind) (Kind, bool) {
	switch {
	case a == KindDimensionless || a == KindAgnostic:
		return b, true
	case b == KindDimensionless || b == KindAgnostic:
		return a, true
	case a == KindPower && b == KindDuration, a == KindDuration && b == KindPower:
		return KindEnergy, true
	case a == KindEnergy && b == KindPrice, a == KindPrice && b == KindEnergy:
		return KindRevenue, true
	default:
		return 0, false
	}
}

func divKind(a, b Kind) (Kind, bool) {
	switch {
	case a == b:
		return KindDimensionless, true
	case b == KindDimensionless || b == KindAgnostic:
		return a, true
	case a == KindEnergy && b == KindDuration:
		return KindPower, true
	case a == KindRevenue && b == KindEnergy:
		return KindPrice, true
	case a == KindRevenue && b == KindPrice:
		return KindEnergy, true
	default:
		return 0, false
	}
}
