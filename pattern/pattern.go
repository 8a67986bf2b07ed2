package pattern

import "github.com/phonon-audio/phonon/rational"

// State carries the queried span plus a read-only controls map available
// to pattern closures.
type State struct {
	Span     rational.TimeSpan
	Controls map[string]any
}

// WithSpan returns a copy of the state with a different span.
func (s State) WithSpan(span rational.TimeSpan) State {
	return State{Span: span, Controls: s.Controls}
}

// Query is the function shape every Pattern[T] wraps: given a State,
// return the Haps whose Part overlaps the queried span.
type Query[T any] func(State) []Hap[T]

// Pattern is a pure, referentially transparent, cheaply-clonable function
// from a time span to a list of events. The Go representation is a thin
// wrapper around a Query closure; cloning a Pattern value copies only the
// closure pointer, never the data it closes over (§3 "clonable cheaply").
type Pattern[T any] struct {
	query Query[T]
}

// New wraps a raw query function as a Pattern.
func New[T any](q Query[T]) Pattern[T] {
	if q == nil {
		q = func(State) []Hap[T] { return nil }
	}
	return Pattern[T]{query: q}
}

// Query runs the pattern over the given state, returning its haps. The
// zero-value Pattern queries as Silence.
func (p Pattern[T]) Query(s State) []Hap[T] {
	if p.query == nil {
		return nil
	}
	return p.query(s)
}

// QuerySpan is a convenience wrapper that builds a State with no controls.
func (p Pattern[T]) QuerySpan(span rational.TimeSpan) []Hap[T] {
	return p.Query(State{Span: span})
}

// Silence returns the pattern that never produces any haps.
func Silence[T any]() Pattern[T] {
	return New[T](func(State) []Hap[T] { return nil })
}

// Pure returns a pattern with one hap per cycle, each with
// Whole = [n, n+1) and Part clipped to the queried span.
func Pure[T any](v T) Pattern[T] {
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Span.CyclesTouched() {
			whole := rational.NewSpan(cyc.Begin.CycleFloor(), cyc.Begin.CycleFloor().Add(rationalOne()))
			part, ok := whole.Intersection(cyc)
			if !ok {
				continue
			}
			w := whole
			out = append(out, Hap[T]{Whole: &w, Part: part, Value: v})
		}
		return out
	})
}

func rationalOne() rational.Fraction { return rational.FromInt(1) }

// Stack plays every given pattern simultaneously (polyphonic overlay).
func Stack[T any](pats ...Pattern[T]) Pattern[T] {
	return New[T](func(s State) []Hap[T] {
		var out []Hap[T]
		for _, p := range pats {
			out = append(out, p.Query(s)...)
		}
		return out
	})
}

// Map transforms every hap's value.
func Map[T any](p Pattern[T], fn func(T) T) Pattern[T] {
	return New[T](func(s State) []Hap[T] {
		haps := p.Query(s)
		out := make([]Hap[T], len(haps))
		for i, h := range haps {
			out[i] = h.WithValue(fn)
		}
		return out
	})
}

// MapTo transforms a Pattern[A] into a Pattern[B] by mapping values; used
// by mini-notation numeric consumers to turn Pattern[string] into
// Pattern[float64].
func MapTo[A, B any](p Pattern[A], fn func(A) B) Pattern[B] {
	return New[B](func(s State) []Hap[B] {
		haps := p.Query(s)
		out := make([]Hap[B], len(haps))
		for i, h := range haps {
			out[i] = Hap[B]{Whole: h.Whole, Part: h.Part, Value: fn(h.Value), Context: h.Context}
		}
		return out
	})
}

// Filter keeps only haps whose value satisfies pred.
func Filter[T any](p Pattern[T], pred func(Hap[T]) bool) Pattern[T] {
	return New[T](func(s State) []Hap[T] {
		haps := p.Query(s)
		out := haps[:0:0]
		for _, h := range haps {
			if pred(h) {
				out = append(out, h)
			}
		}
		return out
	})
}

// FilterOnsets keeps only haps that have an onset in the queried span,
// dropping continuation fragments. The sample-pattern node uses it so
// that only onsets trigger voices.
func FilterOnsets[T any](p Pattern[T]) Pattern[T] {
	return Filter(p, Hap[T].HasOnset)
}
