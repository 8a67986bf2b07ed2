package rational

// TimeSpan is a half-open interval [Begin, End) measured in cycles.
type TimeSpan struct {
	Begin, End Fraction
}

// NewSpan constructs a TimeSpan, it does not validate Begin < End since
// empty spans (Begin == End) are a legal boundary case (§8 "Span with
// begin == end: query returns []").
func NewSpan(begin, end Fraction) TimeSpan { return TimeSpan{Begin: begin, End: end} }

// Empty reports whether the span has zero width.
func (s TimeSpan) Empty() bool { return s.Begin.Eq(s.End) }

// Duration returns End - Begin.
func (s TimeSpan) Duration() Fraction { return s.End.Sub(s.Begin) }

// Intersection returns the overlap of s and o, and whether they overlap at
// all. Two spans that merely touch at a point (zero-width overlap) do not
// count as intersecting, matching half-open semantics.
func (s TimeSpan) Intersection(o TimeSpan) (TimeSpan, bool) {
	begin := Max(s.Begin, o.Begin)
	end := Min(s.End, o.End)
	if begin.Gte(end) {
		return TimeSpan{}, false
	}
	return TimeSpan{Begin: begin, End: end}, true
}

// Shift returns the span translated by d cycles.
func (s TimeSpan) Shift(d Fraction) TimeSpan {
	return TimeSpan{Begin: s.Begin.Add(d), End: s.End.Add(d)}
}

// Scale returns the span with both endpoints multiplied by f, i.e. the
// span in a timeline running f times faster/slower.
func (s TimeSpan) Scale(f Fraction) TimeSpan {
	return TimeSpan{Begin: s.Begin.Mul(f), End: s.End.Mul(f)}
}

// WithTime applies fn to both endpoints independently.
func (s TimeSpan) WithTime(fn func(Fraction) Fraction) TimeSpan {
	return TimeSpan{Begin: fn(s.Begin), End: fn(s.End)}
}

// CyclesTouched returns the successive per-cycle sub-spans of s, so that a
// query spanning several cycles can be answered one cycle at a time (every
// mini-notation pattern is defined per-cycle). A zero-width span yields no
// sub-spans.
func (s TimeSpan) CyclesTouched() []TimeSpan {
	if s.Empty() {
		return nil
	}
	var out []TimeSpan
	cur := s.Begin
	for cur.Lt(s.End) {
		cycleEnd := cur.CycleFloor().Add(FromInt(1))
		end := Min(cycleEnd, s.End)
		out = append(out, TimeSpan{Begin: cur, End: end})
		cur = end
	}
	return out
}

// SplitAtBoundary splits a span on the cycle boundary equal to n, if the
// span crosses it. A point exactly at a cycle boundary belongs to the
// later cycle (§4.1 "boundary aliasing").
func (s TimeSpan) SplitAtBoundary(n int64) (TimeSpan, TimeSpan, bool) {
	boundary := FromInt(n)
	if boundary.Lte(s.Begin) || boundary.Gte(s.End) {
		return s, TimeSpan{}, false
	}
	return TimeSpan{Begin: s.Begin, End: boundary}, TimeSpan{Begin: boundary, End: s.End}, true
}

// CycleOf returns the cycle number that owns a point, using the
// later-cycle-wins rule for exact boundaries.
func CycleOf(point Fraction) int64 { return point.Floor() }
