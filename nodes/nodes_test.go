package nodes

import (
	"math"
	"testing"

	"github.com/phonon-audio/phonon/graph"
)

func ctx(n int, sampleRate float64) graph.Context {
	return graph.Context{BlockLen: n, SampleRate: sampleRate}
}

func noopLookup(graph.NodeID) []float32 { return nil }

func TestOscillatorSineFrequency(t *testing.T) {
	osc := NewOscillator("osc", graph.ConstSignal(1), Sine, false)
	sr := 8.0
	out := make([]float32, 8)
	osc.Process(ctx(8, sr), noopLookup, out)
	// At 1Hz with an 8-sample-per-second rate, one full period spans
	// the block and starts at phase 0, so sample 0 is sin(0) = 0.
	if math.Abs(float64(out[0])) > 1e-6 {
		t.Errorf("expected phase 0 sine ~= 0, got %v", out[0])
	}
}

func TestOscillatorSquareStartsHigh(t *testing.T) {
	osc := NewOscillator("osc", graph.ConstSignal(2), Square, false)
	out := make([]float32, 8)
	osc.Process(ctx(8, 8), noopLookup, out)
	if out[0] != 1 {
		t.Errorf("expected square to start high, got %v", out[0])
	}
}

func TestNoiseWhiteBounded(t *testing.T) {
	n := NewNoise("n", White)
	out := make([]float32, 1000)
	n.Process(ctx(1000, 48000), noopLookup, out)
	for i, v := range out {
		if v < -1 || v > 1 {
			t.Fatalf("sample %d out of [-1,1]: %v", i, v)
		}
	}
}

func TestImpulseFiresOnlyOnOnset(t *testing.T) {
	trig := []float32{0, 1, 1, 0, 1}
	lookup := func(graph.NodeID) []float32 { return trig }
	im := NewImpulse("im", graph.RefSignal("trig"))
	out := make([]float32, len(trig))
	im.Process(ctx(len(trig), 48000), lookup, out)
	want := []float32{0, 1, 0, 0, 1}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestADSRReachesSustain(t *testing.T) {
	env := NewADSR("env",
		graph.ConstSignal(1),
		graph.ConstSignal(0.001),
		graph.ConstSignal(0.001),
		graph.ConstSignal(0.5),
		graph.ConstSignal(0.001),
	)
	out := make([]float32, 2000)
	env.Process(ctx(2000, 48000), noopLookup, out)
	last := out[len(out)-1]
	if math.Abs(float64(last)-0.5) > 0.05 {
		t.Errorf("expected envelope near sustain 0.5, got %v", last)
	}
}

func TestMixNormalizesByCount(t *testing.T) {
	m := NewMix("m", graph.ConstSignal(1), graph.ConstSignal(1), graph.ConstSignal(1))
	out := make([]float32, 4)
	m.Process(ctx(4, 48000), noopLookup, out)
	for _, v := range out {
		if v != 1 {
			t.Errorf("expected mix of three 1s to normalize to 1, got %v", v)
		}
	}
}

func TestBinaryOps(t *testing.T) {
	cases := []struct {
		op   BinOp
		want float32
	}{
		{OpAdd, 5}, {OpSub, 1}, {OpMul, 6}, {OpDiv, 1.5},
	}
	for _, c := range cases {
		bn := NewBinary("b", c.op, graph.ConstSignal(3), graph.ConstSignal(2))
		out := make([]float32, 1)
		bn.Process(ctx(1, 48000), noopLookup, out)
		if out[0] != c.want {
			t.Errorf("op %v: got %v, want %v", c.op, out[0], c.want)
		}
	}
}

func TestCombFeedback(t *testing.T) {
	c := NewComb("c", graph.RefSignal("in"), graph.ConstSignal(0.5), 0, 8)
	// delayMs*sampleRate/1000 rounds to 0 -> clamped to 1 sample delay.
	in := []float32{1, 0, 0, 0}
	lookup := func(graph.NodeID) []float32 { return in }
	out := make([]float32, 4)
	c.Process(ctx(4, 8), lookup, out)
	if out[0] != 1 {
		t.Errorf("expected first sample to pass through input, got %v", out[0])
	}
	if out[1] != 0.5 {
		t.Errorf("expected decayed echo 0.5 one sample later, got %v", out[1])
	}
}

func TestWaveshaperSoftClips(t *testing.T) {
	w := NewWaveshaper("w", graph.ConstSignal(10), graph.ConstSignal(4), graph.ConstSignal(1))
	in := []float32{10}
	lookup := func(graph.NodeID) []float32 { return in }
	out := make([]float32, 1)
	w.Process(ctx(1, 48000), lookup, out)
	if out[0] <= 0.9 || out[0] > 1.0001 {
		t.Errorf("expected heavily driven signal to approach +1 clip, got %v", out[0])
	}
}
