package euclid

import (
	"reflect"
	"testing"
)

func onsetIndices(steps []bool) []int {
	var out []int
	for i, v := range steps {
		if v {
			out = append(out, i)
		}
	}
	return out
}

func TestBjorklund38(t *testing.T) {
	got := onsetIndices(Pattern(3, 8, 0))
	want := []int{0, 3, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bd(3,8) onsets = %v, want %v", got, want)
	}
}

func TestBjorklund58(t *testing.T) {
	got := onsetIndices(Pattern(5, 8, 0))
	if len(got) != 5 {
		t.Fatalf("expected 5 onsets, got %d: %v", len(got), got)
	}
}

func TestRotation(t *testing.T) {
	base := onsetIndices(Pattern(3, 8, 0))
	rotated := onsetIndices(Pattern(3, 8, 1))
	for i, b := range base {
		want := (b + 1) % 8
		if rotated[i] != want && !contains(rotated, want) {
			t.Errorf("rotation by 1 should shift onset %d to %d, got %v", b, want, rotated)
		}
	}
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func TestEdgeCases(t *testing.T) {
	if got := Pattern(0, 8, 0); onsetIndices(got) != nil {
		t.Errorf("k=0 should yield no onsets, got %v", got)
	}
	if got := Pattern(8, 8, 0); len(onsetIndices(got)) != 8 {
		t.Errorf("k=n should yield all onsets")
	}
}
