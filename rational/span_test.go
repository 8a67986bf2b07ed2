package rational

import "testing"

func TestSpanIntersection(t *testing.T) {
	a := NewSpan(FromInt(0), FromInt(2))
	b := NewSpan(FromInt(1), FromInt(3))
	got, ok := a.Intersection(b)
	if !ok {
		t.Fatal("expected overlap")
	}
	if !got.Begin.Eq(FromInt(1)) || !got.End.Eq(FromInt(2)) {
		t.Errorf("got [%s,%s), want [1,2)", got.Begin, got.End)
	}

	c := NewSpan(FromInt(2), FromInt(3))
	if _, ok := a.Intersection(c); ok {
		t.Error("touching half-open spans should not intersect")
	}
}

func TestSpanEmpty(t *testing.T) {
	s := NewSpan(FromInt(1), FromInt(1))
	if !s.Empty() {
		t.Error("expected empty span")
	}
	if s.CyclesTouched() != nil {
		t.Error("expected no cycles touched for an empty span")
	}
}

func TestSpanCyclesTouched(t *testing.T) {
	s := NewSpan(New(1, 2), New(5, 2))
	got := s.CyclesTouched()
	want := []TimeSpan{
		NewSpan(New(1, 2), FromInt(1)),
		NewSpan(FromInt(1), FromInt(2)),
		NewSpan(FromInt(2), New(5, 2)),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d sub-spans, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Begin.Eq(want[i].Begin) || !got[i].End.Eq(want[i].End) {
			t.Errorf("sub-span %d: got [%s,%s), want [%s,%s)", i, got[i].Begin, got[i].End, want[i].Begin, want[i].End)
		}
	}
}

func TestSpanSplitAtBoundary(t *testing.T) {
	s := NewSpan(New(1, 2), New(3, 2))
	left, right, split := s.SplitAtBoundary(1)
	if !split {
		t.Fatal("expected a split at the cycle boundary")
	}
	if !left.End.Eq(FromInt(1)) || !right.Begin.Eq(FromInt(1)) {
		t.Errorf("got left=[%s,%s) right=[%s,%s)", left.Begin, left.End, right.Begin, right.End)
	}

	// A span that starts exactly on the boundary is not split: the whole
	// span belongs to the later cycle.
	s2 := NewSpan(FromInt(1), FromInt(2))
	_, _, split2 := s2.SplitAtBoundary(1)
	if split2 {
		t.Error("span starting exactly at the boundary should not split")
	}
}

func TestCycleOfBoundary(t *testing.T) {
	if got := CycleOf(FromInt(1)); got != 1 {
		t.Errorf("CycleOf(1) = %d, want 1 (later cycle owns the boundary)", got)
	}
	if got := CycleOf(New(99, 100)); got != 0 {
		t.Errorf("CycleOf(0.99) = %d, want 0", got)
	}
}
