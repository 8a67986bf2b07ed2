package pattern

import "github.com/phonon-audio/phonon/rational"

// Palindrome alternates forward and reversed playback each cycle.
func Palindrome[T any](p Pattern[T]) Pattern[T] {
	reversed := Rev(p)
	return perCycle(func(cycleNum int64) Pattern[T] {
		if ((cycleNum % 2) + 2) % 2 == 0 {
			return p
		}
		return reversed
	})
}

// Iter rotates p by 1/n each successive cycle: cycle k plays RotL(k/n).
func Iter[T any](p Pattern[T], n int) Pattern[T] {
	if n <= 0 {
		return p
	}
	return perCycle(func(cycleNum int64) Pattern[T] {
		k := ((cycleNum % int64(n)) + int64(n)) % int64(n)
		return RotL(p, rational.New(k, int64(n)))
	})
}

// Swing shifts odd-indexed haps within each cycle later by `amount` of a
// beat, where "beat" is taken as one cycle (beat-of-cycle semantics — an
// explicit Open Question resolution, see DESIGN.md).
func Swing[T any](p Pattern[T], amount rational.Fraction) Pattern[T] {
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			haps := p.Query(s.WithSpan(cyc))
			for i, h := range haps {
				if i%2 == 1 {
					out = append(out, h.WithSpan(func(sp rational.TimeSpan) rational.TimeSpan {
						return sp.Shift(amount)
					}))
				} else {
					out = append(out, h)
				}
			}
		}
		return out
	})
}

// Ghost sprinkles lower-gain copies of each hap at a small time offset,
// annotated via context so the consumer (typically a sample-pattern node)
// can render them at reduced gain. The offset is 1/8 cycle and the gain
// multiplier is annotated as "ghostGain".
func Ghost[T any](p Pattern[T]) Pattern[T] {
	offset := rational.New(1, 8)
	ghosted := New[T](func(s State) []Hap[T] {
		haps := p.Query(s)
		out := make([]Hap[T], len(haps))
		for i, h := range haps {
			ctx := h.CloneContext()
			if ctx == nil {
				ctx = map[string]string{}
			}
			ctx["ghostGain"] = "0.3"
			out[i] = Hap[T]{Whole: h.Whole, Part: h.Part, Value: h.Value, Context: ctx}
		}
		return out
	})
	return Stack(p, RotR(ghosted, offset))
}
