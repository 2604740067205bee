package core

import "math"

type intervalKind uint8

const (
	intervalBounded intervalKind = iota
	intervalEmpty
	intervalUniverse
)

// Interval is a range of ray parameters. It is either empty, the whole real
// line, or a bounded range with strict membership min < x < max.
type Interval struct {
	kind     intervalKind
	min, max float64
}

var (
	// EmptyInterval contains nothing
	EmptyInterval = Interval{kind: intervalEmpty}
	// UniverseInterval contains every value
	UniverseInterval = Interval{kind: intervalUniverse}
)

// NewInterval creates an interval over (min, max). The numeric extremes
// collapse to the canonical forms: (-MaxFloat64, MaxFloat64) is the universe
// and (MaxFloat64, -MaxFloat64) is empty.
func NewInterval(min, max float64) Interval {
	switch {
	case min == -math.MaxFloat64 && max == math.MaxFloat64:
		return UniverseInterval
	case min == math.MaxFloat64 && max == -math.MaxFloat64:
		return EmptyInterval
	default:
		return Interval{kind: intervalBounded, min: min, max: max}
	}
}

// IsEmpty reports whether the interval is the canonical empty interval
func (i Interval) IsEmpty() bool {
	return i.kind == intervalEmpty
}

// IsUniverse reports whether the interval is the canonical unbounded interval
func (i Interval) IsUniverse() bool {
	return i.kind == intervalUniverse
}

// Min returns the lower bound; MaxFloat64 when empty, -MaxFloat64 for the universe
func (i Interval) Min() float64 {
	switch i.kind {
	case intervalEmpty:
		return math.MaxFloat64
	case intervalUniverse:
		return -math.MaxFloat64
	default:
		return i.min
	}
}

// Max returns the upper bound; -MaxFloat64 when empty, MaxFloat64 for the universe
func (i Interval) Max() float64 {
	switch i.kind {
	case intervalEmpty:
		return -math.MaxFloat64
	case intervalUniverse:
		return math.MaxFloat64
	default:
		return i.max
	}
}

// Surrounds reports whether x lies strictly inside the interval
func (i Interval) Surrounds(x float64) bool {
	switch i.kind {
	case intervalEmpty:
		return false
	case intervalUniverse:
		return true
	default:
		return i.min < x && x < i.max
	}
}

// WithMax returns an interval sharing this lower bound, closed at max
func (i Interval) WithMax(max float64) Interval {
	return NewInterval(i.Min(), max)
}
