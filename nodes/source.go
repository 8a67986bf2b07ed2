package nodes

import (
	"math"
	"math/rand"

	"github.com/phonon-audio/phonon/graph"
)

// Constant outputs a fixed (or pattern/node-driven) value every sample
// — the simplest node kind named in §3 "Sources".
type Constant struct {
	base
	Value graph.Signal
}

func NewConstant(id graph.NodeID, value graph.Signal) *Constant {
	return &Constant{base: newBase(id, value), Value: value}
}

func (c *Constant) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	c.Value.Block(ctx, lookup, out)
}

// Waveform selects an oscillator's shape. It is immutable node
// configuration, not a signal (§3 "immutable configuration (e.g.
// waveform selector...)").
type Waveform int

const (
	Sine Waveform = iota
	Saw
	Square
	Triangle
)

// Oscillator is a phase-accumulator source with optional PolyBLEP
// anti-aliasing for the discontinuous waveforms (saw/square/triangle),
// per §3 "oscillators... with anti-aliasing variants". algo-dsp ships
// filters and effects but no generators, so this is hand-rolled against
// standard phase-accumulator/PolyBLEP technique.
type Oscillator struct {
	base
	Freq      graph.Signal
	Wave      Waveform
	AntiAlias bool

	phase   float64
	triPrev float64
	scratch []float32
}

func NewOscillator(id graph.NodeID, freq graph.Signal, wave Waveform, antiAlias bool) *Oscillator {
	return &Oscillator{base: newBase(id, freq), Freq: freq, Wave: wave, AntiAlias: antiAlias}
}

func (o *Oscillator) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	if cap(o.scratch) < ctx.BlockLen {
		o.scratch = make([]float32, ctx.BlockLen)
	}
	freq := o.Freq.Block(ctx, lookup, o.scratch[:ctx.BlockLen])
	dt := 1.0 / ctx.SampleRate
	for i := range out {
		f := float64(freq[i])
		dphase := f * dt
		var v float64
		switch o.Wave {
		case Sine:
			v = math.Sin(2 * math.Pi * o.phase)
		case Saw:
			v = 2*o.phase - 1
			if o.AntiAlias {
				v -= polyBLEP(o.phase, dphase)
			}
		case Square:
			if o.phase < 0.5 {
				v = 1
			} else {
				v = -1
			}
			if o.AntiAlias {
				v += polyBLEP(o.phase, dphase)
				v -= polyBLEP(math.Mod(o.phase+0.5, 1), dphase)
			}
		case Triangle:
			// Integrated anti-aliased square, the standard leaky-integrator trick.
			sq := 1.0
			if o.phase >= 0.5 {
				sq = -1.0
			}
			if o.AntiAlias {
				sq += polyBLEP(o.phase, dphase)
				sq -= polyBLEP(math.Mod(o.phase+0.5, 1), dphase)
			}
			v = dphase*sq + (1-dphase)*o.triPrev
			o.triPrev = v
		}
		out[i] = float32(v)
		o.phase += dphase
		for o.phase >= 1 {
			o.phase -= 1
		}
		for o.phase < 0 {
			o.phase += 1
		}
	}
}

// polyBLEP returns the band-limited step correction for a phase
// discontinuity at t=0 within the current sample's phase window of
// width dt (Valimaki/Franck PolyBLEP).
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// NoiseColor selects a noise source's spectral shape.
type NoiseColor int

const (
	White NoiseColor = iota
	Pink
	Brown
)

// Noise generates white, pink (Paul Kellet's refined filter), or brown
// (integrated white, leaky to stay bounded) noise.
type Noise struct {
	base
	Color NoiseColor

	rng  *rand.Rand
	pink [7]float64
	brown float64
}

func NewNoise(id graph.NodeID, color NoiseColor) *Noise {
	return &Noise{base: newBase(id), Color: color, rng: rand.New(rand.NewSource(1))}
}

func (n *Noise) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	for i := range out {
		white := n.rng.Float64()*2 - 1
		switch n.Color {
		case White:
			out[i] = float32(white)
		case Pink:
			n.pink[0] = 0.99886*n.pink[0] + white*0.0555179
			n.pink[1] = 0.99332*n.pink[1] + white*0.0750759
			n.pink[2] = 0.96900*n.pink[2] + white*0.1538520
			n.pink[3] = 0.86650*n.pink[3] + white*0.3104856
			n.pink[4] = 0.55000*n.pink[4] + white*0.5329522
			n.pink[5] = -0.7616*n.pink[5] - white*0.0168980
			sum := n.pink[0] + n.pink[1] + n.pink[2] + n.pink[3] + n.pink[4] + n.pink[5] + n.pink[6] + white*0.5362
			n.pink[6] = white * 0.115926
			out[i] = float32(sum * 0.11)
		case Brown:
			n.brown = (n.brown + 0.02*white) / 1.02
			out[i] = float32(n.brown * 3.5)
		}
	}
}

// Impulse emits a single unit sample on each trigger onset from its
// trigger pattern, silence otherwise — the minimal excitation source
// for comb/Karplus-Strong style feedback nodes built downstream.
type Impulse struct {
	base
	Trigger graph.Signal
	prev    float32
	scratch []float32
}

func NewImpulse(id graph.NodeID, trigger graph.Signal) *Impulse {
	return &Impulse{base: newBase(id, trigger), Trigger: trigger}
}

func (im *Impulse) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	if cap(im.scratch) < ctx.BlockLen {
		im.scratch = make([]float32, ctx.BlockLen)
	}
	trig := im.Trigger.Block(ctx, lookup, im.scratch[:ctx.BlockLen])
	for i := range out {
		out[i] = 0
		if trig[i] != 0 && im.prev == 0 {
			out[i] = 1
		}
		im.prev = trig[i]
	}
}
