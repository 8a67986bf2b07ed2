package pattern

import (
	"fmt"

	"github.com/phonon-audio/phonon/rational"
)

// Dup repeats each hap n times within its own span, dividing that span
// into n equal consecutive sub-spans carrying the same value. Dup(n)
// multiplies the hap count per cycle by exactly n (§4.2, §8).
func Dup[T any](p Pattern[T], n int) Pattern[T] {
	if n <= 0 {
		return Silence[T]()
	}
	if n == 1 {
		return p
	}
	return New[T](func(s State) []Hap[T] {
		haps := p.Query(s)
		var out []Hap[T]
		nf := rational.FromInt(int64(n))
		for _, h := range haps {
			whole := h.Part
			if h.Whole != nil {
				whole = *h.Whole
			}
			step := whole.Duration().Div(nf)
			for i := 0; i < n; i++ {
				subBegin := whole.Begin.Add(step.Mul(rational.FromInt(int64(i))))
				subWhole := rational.NewSpan(subBegin, subBegin.Add(step))
				part, ok := subWhole.Intersection(s.Span)
				if !ok {
					continue
				}
				w := subWhole
				out = append(out, Hap[T]{Whole: &w, Part: part, Value: h.Value, Context: h.Context})
			}
		}
		return out
	})
}

// Stutter repeats each hap n times, each repeat delayed by t cycles from
// the previous one (repeats may overlap or leave gaps, unlike Dup which
// always fills the original span exactly).
func Stutter[T any](p Pattern[T], n int, t rational.Fraction) Pattern[T] {
	if n <= 0 {
		return Silence[T]()
	}
	pats := make([]Pattern[T], n)
	for i := 0; i < n; i++ {
		pats[i] = RotR(p, t.Mul(rational.FromInt(int64(i))))
	}
	return Stack(pats...)
}

// Chop divides each event's span into n equally-sized slices, annotating
// each resulting hap's context with "chopBegin"/"chopEnd" — fractional
// offsets in [0,1] into the underlying sample (§4.2 "chop"). The
// sample-pattern node does not read these keys: each slice's onset
// triggers the whole sample.
func Chop[T any](p Pattern[T], n int) Pattern[T] {
	if n <= 0 {
		return Silence[T]()
	}
	return New[T](func(s State) []Hap[T] {
		haps := p.Query(s)
		var out []Hap[T]
		nf := rational.FromInt(int64(n))
		for _, h := range haps {
			whole := h.Part
			if h.Whole != nil {
				whole = *h.Whole
			}
			step := whole.Duration().Div(nf)
			for i := 0; i < n; i++ {
				subBegin := whole.Begin.Add(step.Mul(rational.FromInt(int64(i))))
				subWhole := rational.NewSpan(subBegin, subBegin.Add(step))
				part, ok := subWhole.Intersection(s.Span)
				if !ok {
					continue
				}
				ctx := h.CloneContext()
				if ctx == nil {
					ctx = map[string]string{}
				}
				ctx["chopBegin"] = fmt.Sprintf("%g", float64(i)/float64(n))
				ctx["chopEnd"] = fmt.Sprintf("%g", float64(i+1)/float64(n))
				w := subWhole
				out = append(out, Hap[T]{Whole: &w, Part: part, Value: h.Value, Context: ctx})
			}
		}
		return out
	})
}

// Striate interleaves n slices across the whole pattern: cycle k plays
// slice (k mod n) of every event in the pattern, rather than chopping each
// event into its own n slices locally. It is the "spread one slice index
// across every hit, then advance the slice index each cycle" variant of
// chop.
func Striate[T any](p Pattern[T], n int) Pattern[T] {
	if n <= 0 {
		return Silence[T]()
	}
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			cycleNum := cyc.Begin.Floor()
			slice := int(((cycleNum % int64(n)) + int64(n)) % int64(n))
			haps := p.Query(s.WithSpan(cyc))
			for _, h := range haps {
				ctx := h.CloneContext()
				if ctx == nil {
					ctx = map[string]string{}
				}
				ctx["chopBegin"] = fmt.Sprintf("%g", float64(slice)/float64(n))
				ctx["chopEnd"] = fmt.Sprintf("%g", float64(slice+1)/float64(n))
				out = append(out, Hap[T]{Whole: h.Whole, Part: h.Part, Value: h.Value, Context: ctx})
			}
		}
		return out
	})
}
