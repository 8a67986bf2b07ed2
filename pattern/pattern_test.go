package pattern

import (
	"testing"

	"github.com/phonon-audio/phonon/rational"
)

func oneCycle() rational.TimeSpan {
	return rational.NewSpan(rational.FromInt(0), rational.FromInt(1))
}

func TestPureOneHapPerCycle(t *testing.T) {
	p := Pure("bd")
	haps := p.QuerySpan(rational.NewSpan(rational.FromInt(0), rational.FromInt(3)))
	if len(haps) != 3 {
		t.Fatalf("expected 3 haps across 3 cycles, got %d", len(haps))
	}
	for i, h := range haps {
		if h.Value != "bd" {
			t.Errorf("hap %d: value = %q, want bd", i, h.Value)
		}
	}
}

func TestSilenceEmpty(t *testing.T) {
	p := Silence[string]()
	haps := p.QuerySpan(oneCycle())
	if len(haps) != 0 {
		t.Errorf("expected no haps from silence, got %d", len(haps))
	}
}

func TestEmptySpanQuery(t *testing.T) {
	p := Pure("bd")
	haps := p.QuerySpan(rational.NewSpan(rational.FromInt(0), rational.FromInt(0)))
	if len(haps) != 0 {
		t.Errorf("expected no haps for an empty span, got %d", len(haps))
	}
}

func TestFastIdentity(t *testing.T) {
	p := Pure("bd")
	got := Fast(p, rational.FromInt(1)).QuerySpan(oneCycle())
	want := p.QuerySpan(oneCycle())
	if len(got) != len(want) || !got[0].Part.Begin.Eq(want[0].Part.Begin) {
		t.Errorf("fast(1) is not identity: got %+v want %+v", got, want)
	}
}

func TestFastComposition(t *testing.T) {
	p := Pure("bd")
	span := rational.NewSpan(rational.FromInt(0), rational.FromInt(4))
	a := rational.New(3, 1)
	b := rational.New(2, 1)
	lhs := Fast(Fast(p, a), b).QuerySpan(span)
	rhs := Fast(p, a.Mul(b)).QuerySpan(span)
	if len(lhs) != len(rhs) {
		t.Fatalf("fast(a).fast(b) hap count = %d, fast(a*b) = %d", len(lhs), len(rhs))
	}
	for i := range lhs {
		if !lhs[i].Part.Begin.Eq(rhs[i].Part.Begin) || !lhs[i].Part.End.Eq(rhs[i].Part.End) {
			t.Errorf("hap %d differs: %v vs %v", i, lhs[i].Part, rhs[i].Part)
		}
	}
}

func TestRotLZeroIdentity(t *testing.T) {
	p := Pure("bd")
	got := RotL(p, rational.FromInt(0)).QuerySpan(oneCycle())
	want := p.QuerySpan(oneCycle())
	if len(got) != len(want) {
		t.Fatalf("rotL(0) changed hap count")
	}
}

func TestRevInvolution(t *testing.T) {
	p := Pure("bd")
	span := oneCycle()
	got := Rev(Rev(p)).QuerySpan(span)
	want := p.QuerySpan(span)
	if len(got) != len(want) {
		t.Fatalf("rev.rev hap count mismatch: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Part.Begin.Eq(want[i].Part.Begin) || !got[i].Part.End.Eq(want[i].Part.End) {
			t.Errorf("hap %d: got %v want %v", i, got[i].Part, want[i].Part)
		}
	}
}

func TestDupMultipliesHapCount(t *testing.T) {
	p := Pure("bd")
	for _, n := range []int{1, 2, 3, 5} {
		got := Dup(p, n).QuerySpan(oneCycle())
		if len(got) != n {
			t.Errorf("dup(%d) produced %d haps, want %d", n, len(got), n)
		}
	}
}

func TestEveryOneEqualsF(t *testing.T) {
	p := Pure("bd")
	f := func(pp Pattern[string]) Pattern[string] { return Rev(pp) }
	span := rational.NewSpan(rational.FromInt(0), rational.FromInt(3))
	got := Every(p, 1, f).QuerySpan(span)
	want := f(p).QuerySpan(span)
	if len(got) != len(want) {
		t.Fatalf("every(1,f) hap count mismatch")
	}
}

func TestEveryModifiesOnlyMultiples(t *testing.T) {
	p := Pure("bd")
	marked := Map(p, func(s string) string { return "X" })
	out := Every(p, 3, func(Pattern[string]) Pattern[string] { return marked })
	for cyc := int64(0); cyc < 9; cyc++ {
		span := rational.NewSpan(rational.FromInt(cyc), rational.FromInt(cyc+1))
		haps := out.QuerySpan(span)
		if len(haps) != 1 {
			t.Fatalf("cycle %d: expected 1 hap, got %d", cyc, len(haps))
		}
		isMarked := haps[0].Value == "X"
		wantMarked := cyc%3 == 0
		if isMarked != wantMarked {
			t.Errorf("cycle %d: marked=%v, want %v", cyc, isMarked, wantMarked)
		}
	}
}

func TestDegradeByBoundaries(t *testing.T) {
	p := Fast(Pure("bd"), rational.FromInt(16))
	span := oneCycle()

	id := DegradeBy(p, 0).QuerySpan(span)
	base := p.QuerySpan(span)
	if len(id) != len(base) {
		t.Errorf("degradeBy(0) changed hap count: %d vs %d", len(id), len(base))
	}

	sil := DegradeBy(p, 1).QuerySpan(span)
	if len(sil) != 0 {
		t.Errorf("degradeBy(1) should be silence, got %d haps", len(sil))
	}
}

func TestDegradeByDeterministic(t *testing.T) {
	p := Fast(Pure("bd"), rational.FromInt(16))
	span := oneCycle()
	a := DegradeBy(p, 0.5).QuerySpan(span)
	b := DegradeBy(p, 0.5).QuerySpan(span)
	if len(a) != len(b) {
		t.Fatalf("repeated queries produced different hap counts: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Part.Begin.Eq(b[i].Part.Begin) {
			t.Errorf("hap %d differs between repeated queries", i)
		}
	}
}

func TestStackOverlay(t *testing.T) {
	a := Pure("bd")
	b := Pure("sn")
	got := Stack(a, b).QuerySpan(oneCycle())
	if len(got) != 2 {
		t.Fatalf("expected 2 overlaid haps, got %d", len(got))
	}
}

func TestZoomCompressInverse(t *testing.T) {
	p := Fast(Pure("bd"), rational.FromInt(4))
	zoomed := Zoom(p, rational.New(1, 4), rational.New(2, 4))
	got := zoomed.QuerySpan(oneCycle())
	if len(got) != 1 {
		t.Fatalf("expected 1 hap from zoomed quarter, got %d", len(got))
	}
}
