package pattern

import "github.com/phonon-audio/phonon/rational"

// DegradeBy drops each hap with probability p, seeded deterministically by
// (cycle, hap index). DegradeBy(0) == id, DegradeBy(1) == silence (§4.2,
// §8), and repeated queries over the same span always drop the same haps.
func DegradeBy[T any](p Pattern[T], prob float64) Pattern[T] {
	if prob <= 0 {
		return p
	}
	if prob >= 1 {
		return Silence[T]()
	}
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			n := cyc.Begin.Floor()
			haps := p.Query(s.WithSpan(cyc))
			for i, h := range haps {
				if seedHash(n, i) >= prob {
					out = append(out, h)
				}
			}
		}
		return out
	})
}

// Degrade drops roughly half of haps (DegradeBy(0.5)).
func Degrade[T any](p Pattern[T]) Pattern[T] { return DegradeBy(p, 0.5) }

// Scramble divides each cycle into n equal slices and plays them back in a
// seeded-random permutation, deterministic per cycle.
func Scramble[T any](p Pattern[T], n int) Pattern[T] {
	if n <= 0 {
		return p
	}
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			cycleNum := cyc.Begin.Floor()
			perm := seedPermutation(cycleNum, n)
			zoomed := make([]Pattern[T], n)
			for i := 0; i < n; i++ {
				b := rational.New(int64(perm[i]), int64(n))
				e := rational.New(int64(perm[i]+1), int64(n))
				zoomed[i] = Zoom(p, b, e)
			}
			combined := fastcatStack(zoomed)
			out = append(out, combined.Query(s.WithSpan(cyc))...)
		}
		return out
	})
}

// fastcatStack lays n patterns end-to-end within a single cycle, each
// taking an equal 1/n slot (used by Scramble to reassemble permuted
// slices).
func fastcatStack[T any](pats []Pattern[T]) Pattern[T] {
	n := len(pats)
	slots := make([]Pattern[T], n)
	for i, pt := range pats {
		b := rational.New(int64(i), int64(n))
		e := rational.New(int64(i+1), int64(n))
		slots[i] = Compress(pt, b, e)
	}
	return Stack(slots...)
}
