package pattern

import "github.com/phonon-audio/phonon/rational"

// PressBy delays each event within its own span by a fraction f of that
// span's duration, compressing the event into the remaining (1-f) of its
// slot. Press(n) is PressBy(1/n).
func PressBy[T any](p Pattern[T], f rational.Fraction) Pattern[T] {
	return New[T](func(s State) []Hap[T] {
		haps := p.Query(s)
		var out []Hap[T]
		for _, h := range haps {
			if h.Whole == nil {
				out = append(out, h)
				continue
			}
			whole := *h.Whole
			d := whole.Duration()
			newBegin := whole.Begin.Add(d.Mul(f))
			newWhole := rational.NewSpan(newBegin, whole.End)
			part, ok := newWhole.Intersection(h.Part)
			if !ok {
				// Re-query narrowly: compress the single-event whole and
				// intersect with the originally-queried span.
				part, ok = newWhole.Intersection(s.Span)
				if !ok {
					continue
				}
			}
			nh := h
			nh.Whole = &newWhole
			nh.Part = part
			out = append(out, nh)
		}
		return out
	})
}

// Press is PressBy(1/n): delays each event by 1/n of its own span.
func Press[T any](p Pattern[T], n rational.Fraction) Pattern[T] {
	return PressBy(p, rational.FromInt(1).Div(n))
}
