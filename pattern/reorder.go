package pattern

import "github.com/phonon-audio/phonon/rational"

// Rev mirrors haps within each cycle: an event at offset o from a cycle's
// start (of duration d) is moved to offset (cycleLen - o - d).
func Rev[T any](p Pattern[T]) Pattern[T] {
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			cycleStart := cyc.Begin.CycleFloor()
			cycleEnd := cycleStart.Add(rational.FromInt(1))
			reflect := func(sp rational.TimeSpan) rational.TimeSpan {
				newBegin := cycleStart.Add(cycleEnd).Sub(sp.End)
				newEnd := cycleStart.Add(cycleEnd).Sub(sp.Begin)
				return rational.NewSpan(newBegin, newEnd)
			}
			haps := p.Query(s.WithSpan(reflect(cyc)))
			for _, h := range haps {
				out = append(out, h.WithSpan(reflect))
			}
		}
		return out
	})
}
