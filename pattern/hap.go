// Package pattern implements Tidal-Cycles-style Pattern<T>: a pure function
// from a queried time span to a list of events (Hap[T]). Patterns are
// referentially transparent, thread-safe (they close over immutable data),
// and cheap to share since a Pattern value is just a query closure.
package pattern

import "github.com/phonon-audio/phonon/rational"

// Hap is a pattern event. Whole is the event's notional full span (nil for
// events with no natural whole, e.g. produced by some continuous signals);
// Part is the span clipped to the queried range. Invariant: when Whole is
// non-nil, Part must be a subset of *Whole, and Part.Begin < Part.End.
type Hap[T any] struct {
	Whole   *rational.TimeSpan
	Part    rational.TimeSpan
	Value   T
	Context map[string]string
}

// HasOnset reports whether Part.Begin coincides with the start of Whole,
// i.e. this fragment is where the event actually triggers (as opposed to a
// continuation fragment produced when an event straddles a cycle boundary
// or the query span only covers the tail of the event).
func (h Hap[T]) HasOnset() bool {
	if h.Whole == nil {
		return true
	}
	return h.Part.Begin.Eq(h.Whole.Begin)
}

// WithSpan returns a copy of h with Part and (if present) Whole passed
// through fn. Used by time-transform combinators.
func (h Hap[T]) WithSpan(fn func(rational.TimeSpan) rational.TimeSpan) Hap[T] {
	out := h
	out.Part = fn(h.Part)
	if h.Whole != nil {
		w := fn(*h.Whole)
		out.Whole = &w
	}
	return out
}

// WithValue returns a copy of h with a transformed value.
func (h Hap[T]) WithValue(fn func(T) T) Hap[T] {
	out := h
	out.Value = fn(h.Value)
	return out
}

// CloneContext returns a shallow copy of h's Context map so callers may
// mutate it (e.g. annotate a bank index) without aliasing the original.
func (h Hap[T]) CloneContext() map[string]string {
	if h.Context == nil {
		return nil
	}
	out := make(map[string]string, len(h.Context))
	for k, v := range h.Context {
		out[k] = v
	}
	return out
}
