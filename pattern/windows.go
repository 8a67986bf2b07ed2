package pattern

import "github.com/phonon-audio/phonon/rational"

// Within applies f only to haps whose Part falls within [b,e) of each
// cycle; haps outside that window pass through unmodified.
func Within[T any](p Pattern[T], b, e rational.Fraction, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	transformed := f(p)
	inWindow := func(part rational.TimeSpan) bool {
		cycleStart := part.Begin.CycleFloor()
		offset := part.Begin.Sub(cycleStart)
		return offset.Gte(b) && offset.Lt(e)
	}
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		origHaps := p.Query(s)
		transHaps := transformed.Query(s)
		for _, h := range origHaps {
			if !inWindow(h.Part) {
				out = append(out, h)
			}
		}
		for _, h := range transHaps {
			if inWindow(h.Part) {
				out = append(out, h)
			}
		}
		return out
	})
}

// Inside applies transform f to p after slowing it by n, then speeds the
// result back up: inside(n, f) = f(p.slow(n)).fast(n). Useful for applying
// a per-cycle transform (like rev or iter) across a multi-cycle window.
func Inside[T any](p Pattern[T], n rational.Fraction, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return Fast(f(Slow(p, n)), n)
}

// Outside is the dual of Inside: outside(n, f) = f(p.fast(n)).slow(n).
func Outside[T any](p Pattern[T], n rational.Fraction, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return Slow(f(Fast(p, n)), n)
}
