package pattern

import "github.com/phonon-audio/phonon/rational"

// Zoom extracts the span [b,e) from each cycle of p and stretches it to
// fill a full cycle.
func Zoom[T any](p Pattern[T], b, e rational.Fraction) Pattern[T] {
	d := e.Sub(b)
	if d.IsZero() {
		return Silence[T]()
	}
	return New[T](func(s State) []Hap[T] {
		mapToInner := func(sp rational.TimeSpan) rational.TimeSpan {
			return rational.NewSpan(sp.Begin.Mul(d).Add(b), sp.End.Mul(d).Add(b))
		}
		mapToOuter := func(sp rational.TimeSpan) rational.TimeSpan {
			return rational.NewSpan(sp.Begin.Sub(b).Div(d), sp.End.Sub(b).Div(d))
		}
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			c := cyc.Begin.CycleFloor()
			inner := s.WithSpan(mapToInner(cyc.Shift(c.Neg())).Shift(c))
			for _, h := range p.Query(inner) {
				out = append(out, h.WithSpan(func(sp rational.TimeSpan) rational.TimeSpan {
					return mapToOuter(sp.Shift(c.Neg())).Shift(c)
				}))
			}
		}
		return out
	})
}

// Compress is the inverse of Zoom: it squeezes p into the sub-span [b,e)
// of each cycle, with silence filling the rest.
func Compress[T any](p Pattern[T], b, e rational.Fraction) Pattern[T] {
	d := e.Sub(b)
	if d.Sign() <= 0 || b.Sign() < 0 || e.Gt(rational.FromInt(1)) {
		return Silence[T]()
	}
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			cycleStart := cyc.Begin.CycleFloor()
			slotBegin := cycleStart.Add(b)
			slotEnd := cycleStart.Add(e)
			slot := rational.NewSpan(slotBegin, slotEnd)
			overlap, ok := slot.Intersection(cyc)
			if !ok {
				continue
			}
			mapToInner := func(sp rational.TimeSpan) rational.TimeSpan {
				return rational.NewSpan(
					sp.Begin.Sub(slotBegin).Div(d).Add(cycleStart),
					sp.End.Sub(slotBegin).Div(d).Add(cycleStart),
				)
			}
			mapToOuter := func(sp rational.TimeSpan) rational.TimeSpan {
				return rational.NewSpan(
					sp.Begin.Sub(cycleStart).Mul(d).Add(slotBegin),
					sp.End.Sub(cycleStart).Mul(d).Add(slotBegin),
				)
			}
			haps := p.Query(s.WithSpan(mapToInner(overlap)))
			for _, h := range haps {
				out = append(out, h.WithSpan(mapToOuter))
			}
		}
		return out
	})
}

// FastGap compresses p into the first 1/f of each cycle, silence filling
// the rest. Unlike Fast, events are not repeated across the cycle.
func FastGap[T any](p Pattern[T], f rational.Fraction) Pattern[T] {
	if f.Sign() <= 0 {
		return Silence[T]()
	}
	return Compress(p, rational.FromInt(0), rational.FromInt(1).Div(f))
}
