package pattern

// perCycle applies a different pattern depending on which cycle a query
// sub-span falls in, by splitting the query at cycle boundaries and
// picking fn(cycleNumber) for each piece.
func perCycle[T any](fn func(cycleNum int64) Pattern[T]) Pattern[T] {
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			n := cyc.Begin.Floor()
			out = append(out, fn(n).Query(s.WithSpan(cyc))...)
		}
		return out
	})
}

// Every applies transform f on cycles where cycleNumber % n == 0, and
// leaves other cycles untouched. Every(1, f) == f (§4.2, §8).
func Every[T any](p Pattern[T], n int, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	if n <= 0 {
		return p
	}
	transformed := f(p)
	return perCycle(func(cycleNum int64) Pattern[T] {
		m := ((cycleNum % int64(n)) + int64(n)) % int64(n)
		if m == 0 {
			return transformed
		}
		return p
	})
}

// When applies f only on cycles for which pred(cycleNumber) is true.
func When[T any](p Pattern[T], pred func(cycleNum int64) bool, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	transformed := f(p)
	return perCycle(func(cycleNum int64) Pattern[T] {
		if pred(cycleNum) {
			return transformed
		}
		return p
	})
}

// someCyclesBy applies f to a pseudo-random subset of haps chosen with
// probability prob, seeded deterministically by (cycle, hap index) so
// repeated queries over the same span are identical (§4.2 "sometimes").
func someCyclesBy[T any](p Pattern[T], prob float64, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	transformed := f(p)
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			n := cyc.Begin.Floor()
			orig := p.Query(s.WithSpan(cyc))
			trans := transformed.Query(s.WithSpan(cyc))
			// Pair up by index; if the transform changes hap count this
			// falls back to choosing the whole cycle's source uniformly.
			if len(orig) != len(trans) {
				if seedHash(n, 0) < prob {
					out = append(out, trans...)
				} else {
					out = append(out, orig...)
				}
				continue
			}
			for i := range orig {
				if seedHash(n, i) < prob {
					out = append(out, trans[i])
				} else {
					out = append(out, orig[i])
				}
			}
		}
		return out
	})
}

// Sometimes applies f to roughly half of events (p=0.5).
func Sometimes[T any](p Pattern[T], f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return someCyclesBy(p, 0.5, f)
}

// Often applies f to roughly three quarters of events (p=0.75).
func Often[T any](p Pattern[T], f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return someCyclesBy(p, 0.75, f)
}

// Rarely applies f to roughly one tenth of events (p=0.1).
func Rarely[T any](p Pattern[T], f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return someCyclesBy(p, 0.1, f)
}
