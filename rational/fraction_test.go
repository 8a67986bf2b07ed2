package rational

import "testing"

func TestFractionArithmetic(t *testing.T) {
	cases := []struct {
		name     string
		a, b     Fraction
		op       func(a, b Fraction) Fraction
		wantNum  int64
		wantDen  int64
	}{
		{"add", New(1, 2), New(1, 3), Fraction.Add, 5, 6},
		{"sub", New(1, 2), New(1, 3), Fraction.Sub, 1, 6},
		{"mul", New(2, 3), New(3, 4), Fraction.Mul, 1, 2},
		{"div", New(1, 2), New(1, 4), Fraction.Div, 2, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.op(c.a, c.b)
			if got.Num() != c.wantNum || got.Den() != c.wantDen {
				t.Errorf("%s: got %d/%d, want %d/%d", c.name, got.Num(), got.Den(), c.wantNum, c.wantDen)
			}
		})
	}
}

func TestFractionFloorCeil(t *testing.T) {
	cases := []struct {
		f         Fraction
		wantFloor int64
		wantCeil  int64
	}{
		{New(3, 2), 1, 2},
		{New(-3, 2), -2, -1},
		{New(2, 1), 2, 2},
		{New(0, 1), 0, 0},
	}
	for _, c := range cases {
		if got := c.f.Floor(); got != c.wantFloor {
			t.Errorf("Floor(%s) = %d, want %d", c.f, got, c.wantFloor)
		}
		if got := c.f.Ceil(); got != c.wantCeil {
			t.Errorf("Ceil(%s) = %d, want %d", c.f, got, c.wantCeil)
		}
	}
}

func TestFractionMod(t *testing.T) {
	got := New(7, 2).Mod(FromInt(1)) // 3.5 mod 1 = 0.5
	if want := New(1, 2); !got.Eq(want) {
		t.Errorf("Mod = %s, want %s", got, want)
	}
}

func TestFractionCmp(t *testing.T) {
	if !New(1, 2).Lt(New(2, 3)) {
		t.Error("expected 1/2 < 2/3")
	}
	if !New(4, 2).Eq(New(2, 1)) {
		t.Error("expected 4/2 == 2/1")
	}
}
