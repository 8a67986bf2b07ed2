// Package rational implements exact rational-number arithmetic for cycle
// positions and event spans. All pattern-time math flows through Fraction
// so that repeated subdivision (fast/slow/zoom/euclidean rotation) never
// accumulates floating-point drift.
package rational

import (
	"fmt"
	"math"
	"math/big"
)

// Fraction is a reduced numerator/denominator pair. The zero value is 0/1
// and is usable directly.
type Fraction struct {
	r big.Rat
}

// New returns the reduced fraction num/den. It panics if den is zero,
// matching big.Rat's own behavior.
func New(num, den int64) Fraction {
	var f Fraction
	f.r.SetFrac64(num, den)
	return f
}

// FromInt returns the fraction n/1.
func FromInt(n int64) Fraction {
	var f Fraction
	f.r.SetInt64(n)
	return f
}

// FromFloat64 converts v exactly to a Fraction. Used where a value arrives
// as float64 (decimal DSL/mini-notation literals, elapsed wall-clock
// seconds, the sample rate); pattern-time math itself never round-trips
// through float64.
func FromFloat64(v float64) Fraction {
	var f Fraction
	f.r.SetFloat64(v)
	return f
}

// Float64 converts the fraction to a float64, e.g. for sample-rate math.
func (f Fraction) Float64() float64 {
	v, _ := f.r.Float64()
	return v
}

// Num returns the reduced numerator.
func (f Fraction) Num() int64 { return f.r.Num().Int64() }

// Den returns the reduced denominator (always > 0).
func (f Fraction) Den() int64 { return f.r.Denom().Int64() }

// IsInt reports whether the fraction has an integer value (den == 1).
func (f Fraction) IsInt() bool { return f.r.IsInt() }

// Floor returns the greatest integer <= f, i.e. the cycle number
// containing a cycle-position value.
func (f Fraction) Floor() int64 {
	n, d := f.r.Num(), f.r.Denom()
	q := new(big.Int)
	m := new(big.Int)
	q.DivMod(n, d, m) // Euclidean division: m in [0, d)
	return q.Int64()
}

// Ceil returns the smallest integer >= f.
func (f Fraction) Ceil() int64 {
	fl := f.Floor()
	if FromInt(fl).Eq(f) {
		return fl
	}
	return fl + 1
}

// CycleFloor returns the fraction's containing cycle as a Fraction n/1.
func (f Fraction) CycleFloor() Fraction { return FromInt(f.Floor()) }

// Add returns f + g.
func (f Fraction) Add(g Fraction) Fraction {
	var out Fraction
	out.r.Add(&f.r, &g.r)
	return out
}

// Sub returns f - g.
func (f Fraction) Sub(g Fraction) Fraction {
	var out Fraction
	out.r.Sub(&f.r, &g.r)
	return out
}

// Mul returns f * g.
func (f Fraction) Mul(g Fraction) Fraction {
	var out Fraction
	out.r.Mul(&f.r, &g.r)
	return out
}

// Div returns f / g. Panics if g is zero.
func (f Fraction) Div(g Fraction) Fraction {
	if g.r.Sign() == 0 {
		panic("rational: division by zero")
	}
	var out Fraction
	out.r.Quo(&f.r, &g.r)
	return out
}

// Neg returns -f.
func (f Fraction) Neg() Fraction {
	var out Fraction
	out.r.Neg(&f.r)
	return out
}

// Cmp returns -1, 0, +1 as f is <, ==, > g.
func (f Fraction) Cmp(g Fraction) int { return f.r.Cmp(&g.r) }

// Eq, Lt, Lte, Gt, Gte are readability wrappers around Cmp.
func (f Fraction) Eq(g Fraction) bool  { return f.Cmp(g) == 0 }
func (f Fraction) Lt(g Fraction) bool  { return f.Cmp(g) < 0 }
func (f Fraction) Lte(g Fraction) bool { return f.Cmp(g) <= 0 }
func (f Fraction) Gt(g Fraction) bool  { return f.Cmp(g) > 0 }
func (f Fraction) Gte(g Fraction) bool { return f.Cmp(g) >= 0 }

// Min and Max return the lesser/greater of f and g.
func Min(f, g Fraction) Fraction {
	if f.Lte(g) {
		return f
	}
	return g
}

func Max(f, g Fraction) Fraction {
	if f.Gte(g) {
		return f
	}
	return g
}

// Mod returns f mod g for positive g, result in [0, g).
func (f Fraction) Mod(g Fraction) Fraction {
	q := f.Div(g).Floor()
	return f.Sub(g.Mul(FromInt(q)))
}

// Abs returns the absolute value of f.
func (f Fraction) Abs() Fraction {
	if f.r.Sign() < 0 {
		return f.Neg()
	}
	return f
}

// IsZero reports whether f == 0.
func (f Fraction) IsZero() bool { return f.r.Sign() == 0 }

// Sign returns -1, 0, or 1.
func (f Fraction) Sign() int { return f.r.Sign() }

func (f Fraction) String() string {
	if f.r.IsInt() {
		return fmt.Sprintf("%d", f.Num())
	}
	return fmt.Sprintf("%d/%d", f.Num(), f.Den())
}

// SampleOffset converts a fractional cycle-position delta into a sample
// count at the given sample rate and cycles-per-second, rounding to the
// nearest sample. Used by sample-pattern nodes to turn event onsets
// within a block into sub-block sample offsets (§4.5 step 4).
func (f Fraction) SampleOffset(sampleRate float64, cps Fraction) int {
	seconds := f.Div(cps).Float64()
	return int(math.Round(seconds * sampleRate))
}
