package pattern

import "github.com/phonon-audio/phonon/rational"

// Fast plays p f times faster: the query span is scaled up by f before
// querying p, and the resulting event times are scaled back down by f.
// fast(1) is the identity and fast(a).fast(b) == fast(a*b) (§4.2, §8).
func Fast[T any](p Pattern[T], f rational.Fraction) Pattern[T] {
	if f.IsZero() {
		return Silence[T]()
	}
	if f.Sign() < 0 {
		return Fast(Rev(p), f.Neg())
	}
	return New[T](func(s State) []Hap[T] {
		scaled := s.WithSpan(s.Span.Scale(f))
		haps := p.Query(scaled)
		out := make([]Hap[T], len(haps))
		inv := rational.FromInt(1).Div(f)
		for i, h := range haps {
			out[i] = h.WithSpan(func(sp rational.TimeSpan) rational.TimeSpan { return sp.Scale(inv) })
		}
		return out
	})
}

// Slow plays p f times slower. slow(f) = fast(1/f).
func Slow[T any](p Pattern[T], f rational.Fraction) Pattern[T] {
	return Fast(p, rational.FromInt(1).Div(f))
}

// RotL shifts the query forward by a cycles and event times backward by a,
// so the pattern appears to have started a cycles earlier.
func RotL[T any](p Pattern[T], a rational.Fraction) Pattern[T] {
	return New[T](func(s State) []Hap[T] {
		shifted := s.WithSpan(s.Span.Shift(a))
		haps := p.Query(shifted)
		out := make([]Hap[T], len(haps))
		for i, h := range haps {
			out[i] = h.WithSpan(func(sp rational.TimeSpan) rational.TimeSpan { return sp.Shift(a.Neg()) })
		}
		return out
	})
}

// RotR is the inverse of RotL.
func RotR[T any](p Pattern[T], a rational.Fraction) Pattern[T] {
	return RotL(p, a.Neg())
}

// Early is an alias for RotL.
func Early[T any](p Pattern[T], a rational.Fraction) Pattern[T] { return RotL(p, a) }

// Late is an alias for RotR.
func Late[T any](p Pattern[T], a rational.Fraction) Pattern[T] { return RotR(p, a) }

// Hurry combines Fast(f) with a proportional change to any "speed" control
// the consumer associates with sample playback rate. The pattern algebra
// itself only knows about time, so Hurry is expressed as Fast plus a
// context annotation consumed by the sample-pattern node, which multiplies
// its own per-event playback speed by f (§4.2 "hurry").
func Hurry(p Pattern[string], f rational.Fraction) Pattern[string] {
	fast := Fast(p, f)
	return New[string](func(s State) []Hap[string] {
		haps := fast.Query(s)
		out := make([]Hap[string], len(haps))
		for i, h := range haps {
			ctx := h.CloneContext()
			if ctx == nil {
				ctx = map[string]string{}
			}
			ctx["speedFactor"] = f.String()
			out[i] = h
			out[i].Context = ctx
		}
		return out
	})
}
