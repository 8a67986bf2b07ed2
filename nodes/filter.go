package nodes

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/moog"

	"github.com/phonon-audio/phonon/graph"
)

// BiquadKind selects the RBJ cookbook response a Biquad node computes
// coefficients for (§3 "one-pole and SVF low/high/band/notch... parametric
// EQ"). algo-dsp supplies the biquad.Chain runtime (coefficients in,
// filtered samples out) but not coefficient design, so the cookbook math
// below is hand-rolled against the standard Audio EQ Cookbook formulas —
// the same division of labour CWBudde-algo-dsp's own webdemo package uses
// (its buildEQChain designs coefficients, biquad.Chain just runs them).
type BiquadKind int

const (
	LowPass BiquadKind = iota
	HighPass
	BandPass
	Notch
	Peaking
)

// Biquad wraps a single algo-dsp biquad.Chain section, redesigned at the
// start of a block whenever its (possibly pattern- or node-driven)
// cutoff/Q/gain signals have changed since the last design.
type Biquad struct {
	base
	inputSignal
	Kind   BiquadKind
	Cutoff graph.Signal
	Q      graph.Signal
	GainDB graph.Signal

	chain                     *biquad.Chain
	lastCutoff, lastQ, lastDB float64
	scratch64
	cutoffBuf, qBuf, dbBuf []float32
}

func NewBiquad(id graph.NodeID, kind BiquadKind, input, cutoff, q, gainDB graph.Signal) *Biquad {
	return &Biquad{
		base:        newBase(id, input, cutoff, q, gainDB),
		inputSignal: inputSignal{Input: input},
		Kind:        kind,
		Cutoff:      cutoff,
		Q:           q,
		GainDB:      gainDB,
		chain:       biquad.NewChain([]biquad.Coefficients{{B0: 1}}),
	}
}

func (b *Biquad) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	if cap(b.cutoffBuf) < n {
		b.cutoffBuf = make([]float32, n)
		b.qBuf = make([]float32, n)
		b.dbBuf = make([]float32, n)
	}
	cutoff := b.Cutoff.Block(ctx, lookup, b.cutoffBuf[:n])
	q := b.Q.Block(ctx, lookup, b.qBuf[:n])
	gainDB := b.GainDB.Block(ctx, lookup, b.dbBuf[:n])

	freq := clampFreq(float64(cutoff[0]), ctx.SampleRate)
	qv := math.Max(float64(q[0]), 0.1)
	db := float64(gainDB[0])
	if freq != b.lastCutoff || qv != b.lastQ || db != b.lastDB {
		b.chain = biquad.NewChain([]biquad.Coefficients{rbjCoefficients(b.Kind, freq, qv, db, ctx.SampleRate)})
		b.lastCutoff, b.lastQ, b.lastDB = freq, qv, db
	}

	block := b.scratch64.get(n)
	toFloat64(block, b.read(ctx, lookup, n))
	b.chain.ProcessBlock(block)
	toFloat32(out, block)
}

func clampFreq(f, sampleRate float64) float64 {
	nyquist := sampleRate * 0.49
	if f < 20 {
		return 20
	}
	if f > nyquist {
		return nyquist
	}
	return f
}

// rbjCoefficients implements the Audio EQ Cookbook formulas (Robert
// Bristow-Johnson) for the filter families Biquad supports.
func rbjCoefficients(kind BiquadKind, freq, q, gainDB, sampleRate float64) biquad.Coefficients {
	w0 := 2 * math.Pi * freq / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * q)

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case LowPass:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case HighPass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case BandPass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case Notch:
		b0 = 1
		b1 = -2 * cosW0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case Peaking:
		a := math.Pow(10, gainDB/40)
		b0 = 1 + alpha*a
		b1 = -2 * cosW0
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW0
		a2 = 1 - alpha/a
	}
	return biquad.Coefficients{
		B0: b0 / a0, B1: b1 / a0, B2: b2 / a0,
		A1: a1 / a0, A2: a2 / a0,
	}
}

// OnePole is a single-pole low/high-pass, the cheapest filter kind in
// §3. It has no algo-dsp counterpart (the library's simplest primitive
// is already the two-pole biquad section), so it is a direct one-line
// recurrence, the standard one-pole smoothing filter.
type OnePole struct {
	base
	inputSignal
	Cutoff   graph.Signal
	HighPass bool

	state   float64
	scratch []float32
}

func NewOnePole(id graph.NodeID, input, cutoff graph.Signal, highPass bool) *OnePole {
	return &OnePole{base: newBase(id, input, cutoff), inputSignal: inputSignal{Input: input}, Cutoff: cutoff, HighPass: highPass}
}

func (o *OnePole) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	if cap(o.scratch) < n {
		o.scratch = make([]float32, n)
	}
	cutoff := o.Cutoff.Block(ctx, lookup, o.scratch[:n])
	in := o.read(ctx, lookup, n)
	for i := range out {
		f := clampFreq(float64(cutoff[i]), ctx.SampleRate)
		a := math.Exp(-2 * math.Pi * f / ctx.SampleRate)
		o.state = (1-a)*float64(in[i]) + a*o.state
		if o.HighPass {
			out[i] = float32(float64(in[i]) - o.state)
		} else {
			out[i] = float32(o.state)
		}
	}
}

// Moog wraps algo-dsp's Huovilainen-variant ladder filter (§3 "Moog
// ladder").
type Moog struct {
	base
	inputSignal
	Cutoff, Resonance graph.Signal

	fx                  *moog.Filter
	lastCutoff, lastRes float64
	scratch64
	cutoffBuf, resBuf []float32
}

func NewMoog(id graph.NodeID, input, cutoff, resonance graph.Signal, sampleRate float64) (*Moog, error) {
	fx, err := moog.New(sampleRate,
		moog.WithVariant(moog.VariantHuovilainen),
		moog.WithCutoffHz(1000),
		moog.WithResonance(0),
		moog.WithDrive(1),
		moog.WithInputGain(1),
		moog.WithOutputGain(1),
		moog.WithNormalizeOutput(true),
	)
	if err != nil {
		return nil, err
	}
	return &Moog{base: newBase(id, input, cutoff, resonance), inputSignal: inputSignal{Input: input}, Cutoff: cutoff, Resonance: resonance, fx: fx}, nil
}

func (m *Moog) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	if cap(m.cutoffBuf) < n {
		m.cutoffBuf = make([]float32, n)
		m.resBuf = make([]float32, n)
	}
	cutoff := m.Cutoff.Block(ctx, lookup, m.cutoffBuf[:n])
	res := m.Resonance.Block(ctx, lookup, m.resBuf[:n])
	freq := clampFreq(float64(cutoff[0]), ctx.SampleRate)
	resonance := math.Max(0, math.Min(4, float64(res[0])))
	if freq != m.lastCutoff {
		_ = m.fx.SetCutoffHz(freq)
		m.lastCutoff = freq
	}
	if resonance != m.lastRes {
		_ = m.fx.SetResonance(resonance)
		m.lastRes = resonance
	}
	block := m.scratch64.get(n)
	toFloat64(block, m.read(ctx, lookup, n))
	m.fx.ProcessInPlace(block)
	toFloat32(out, block)
}

// Comb is a feedback delay-line filter: y[n] = x[n] + decay*y[n-delay],
// adapted from the teacher's CombAdd (internal/comb) decay/delayMs
// parameterization — generalized from CombAdd's "grow a whole buffer
// then replay it" batch model to a fixed circular buffer suitable for
// per-block real-time processing (§3 "comb").
type Comb struct {
	base
	inputSignal
	Decay graph.Signal

	line         []float32
	writePos     int
	delaySamples int
	scratch      []float32
}

func NewComb(id graph.NodeID, input, decay graph.Signal, delayMs float64, sampleRate float64) *Comb {
	delaySamples := int(delayMs * sampleRate / 1000)
	if delaySamples < 1 {
		delaySamples = 1
	}
	return &Comb{
		base:         newBase(id, input, decay),
		inputSignal:  inputSignal{Input: input},
		Decay:        decay,
		line:         make([]float32, delaySamples),
		delaySamples: delaySamples,
	}
}

func (c *Comb) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	if cap(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	decay := c.Decay.Block(ctx, lookup, c.scratch[:n])
	in := c.read(ctx, lookup, n)
	for i := range out {
		delayed := c.line[c.writePos]
		y := in[i] + decay[i]*delayed
		c.line[c.writePos] = y
		c.writePos = (c.writePos + 1) % c.delaySamples
		out[i] = y
	}
}

// AllPass is a Schroeder all-pass filter (§3 "all-pass"), the
// complementary delay-line building block to Comb: same fixed circular
// delay line, combined feedforward and feedback.
type AllPass struct {
	base
	inputSignal
	Gain graph.Signal

	line         []float32
	writePos     int
	delaySamples int
	scratch      []float32
}

func NewAllPass(id graph.NodeID, input, gain graph.Signal, delayMs, sampleRate float64) *AllPass {
	delaySamples := int(delayMs * sampleRate / 1000)
	if delaySamples < 1 {
		delaySamples = 1
	}
	return &AllPass{
		base:         newBase(id, input, gain),
		inputSignal:  inputSignal{Input: input},
		Gain:         gain,
		line:         make([]float32, delaySamples),
		delaySamples: delaySamples,
	}
}

func (a *AllPass) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	if cap(a.scratch) < n {
		a.scratch = make([]float32, n)
	}
	gain := a.Gain.Block(ctx, lookup, a.scratch[:n])
	in := a.read(ctx, lookup, n)
	for i := range out {
		g := gain[i]
		delayed := a.line[a.writePos]
		v := -g*in[i] + delayed
		a.line[a.writePos] = in[i] + g*v
		a.writePos = (a.writePos + 1) % a.delaySamples
		out[i] = v
	}
}
