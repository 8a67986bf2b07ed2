package mininotation

import (
	"testing"

	"github.com/phonon-audio/phonon/rational"
)

func cycleSpan(n int64) rational.TimeSpan {
	return rational.NewSpan(rational.FromInt(n), rational.FromInt(n+1))
}

func TestSequenceEqualDivision(t *testing.T) {
	p, err := Parse("bd sn hh cp")
	if err != nil {
		t.Fatal(err)
	}
	haps := p.QuerySpan(cycleSpan(0))
	if len(haps) != 4 {
		t.Fatalf("expected 4 haps, got %d", len(haps))
	}
	want := []string{"bd", "sn", "hh", "cp"}
	for i, h := range haps {
		if h.Value != want[i] {
			t.Errorf("hap %d = %q, want %q", i, h.Value, want[i])
		}
		wantBegin := rational.New(int64(i), 4)
		if !h.Part.Begin.Eq(wantBegin) {
			t.Errorf("hap %d begins at %s, want %s", i, h.Part.Begin, wantBegin)
		}
	}
}

func TestRest(t *testing.T) {
	p, err := Parse("bd ~ sn ~")
	if err != nil {
		t.Fatal(err)
	}
	haps := p.QuerySpan(cycleSpan(0))
	if len(haps) != 2 {
		t.Fatalf("expected 2 haps (rests silent), got %d", len(haps))
	}
}

func TestSubdivision(t *testing.T) {
	p, err := Parse("bd [hh hh]")
	if err != nil {
		t.Fatal(err)
	}
	haps := p.QuerySpan(cycleSpan(0))
	if len(haps) != 3 {
		t.Fatalf("expected 3 haps, got %d", len(haps))
	}
}

func TestStack(t *testing.T) {
	p, err := Parse("[bd, hh*2]")
	if err != nil {
		t.Fatal(err)
	}
	haps := p.QuerySpan(cycleSpan(0))
	if len(haps) != 3 {
		t.Fatalf("expected 1 bd + 2 hh = 3 haps, got %d", len(haps))
	}
}

func TestAlternation(t *testing.T) {
	p, err := Parse("<bd sn cp>")
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"bd", "sn", "cp", "bd"} {
		haps := p.QuerySpan(cycleSpan(int64(i)))
		if len(haps) != 1 || haps[0].Value != want {
			t.Errorf("cycle %d: got %v, want [%s]", i, haps, want)
		}
	}
}

func TestFastRepeat(t *testing.T) {
	p, err := Parse("bd*4")
	if err != nil {
		t.Fatal(err)
	}
	haps := p.QuerySpan(cycleSpan(0))
	if len(haps) != 4 {
		t.Fatalf("expected 4 repeats, got %d", len(haps))
	}
}

func TestEuclid38(t *testing.T) {
	p, err := Parse("bd(3,8)")
	if err != nil {
		t.Fatal(err)
	}
	haps := p.QuerySpan(cycleSpan(0))
	if len(haps) != 3 {
		t.Fatalf("expected 3 onsets, got %d", len(haps))
	}
	want := []rational.Fraction{rational.New(0, 8), rational.New(3, 8), rational.New(6, 8)}
	for i, h := range haps {
		if !h.Part.Begin.Eq(want[i]) {
			t.Errorf("onset %d at %s, want %s", i, h.Part.Begin, want[i])
		}
	}
}

func TestBankIndex(t *testing.T) {
	p, err := Parse("bd:3")
	if err != nil {
		t.Fatal(err)
	}
	haps := p.QuerySpan(cycleSpan(0))
	if len(haps) != 1 {
		t.Fatalf("expected 1 hap, got %d", len(haps))
	}
	if haps[0].Context["bank"] != "3" {
		t.Errorf("expected bank=3 context, got %v", haps[0].Context)
	}
}

func TestNestedBrackets(t *testing.T) {
	p, err := Parse("bd [hh [sn cp]]")
	if err != nil {
		t.Fatal(err)
	}
	haps := p.QuerySpan(cycleSpan(0))
	if len(haps) != 4 {
		t.Fatalf("expected 4 haps, got %d", len(haps))
	}
}

func TestParseNumeric(t *testing.T) {
	p, err := ParseNumeric("440 550 660")
	if err != nil {
		t.Fatal(err)
	}
	haps := p.QuerySpan(cycleSpan(0))
	if len(haps) != 3 {
		t.Fatalf("expected 3 haps, got %d", len(haps))
	}
	if haps[0].Value != 440 {
		t.Errorf("got %v, want 440", haps[0].Value)
	}
}

func TestUnmatchedBracketError(t *testing.T) {
	if _, err := Parse("bd [hh"); err == nil {
		t.Error("expected parse error for unmatched bracket")
	}
}
