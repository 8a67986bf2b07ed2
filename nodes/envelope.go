package nodes

import (
	"math"

	"github.com/phonon-audio/phonon/graph"
)

// EnvelopeStage is the phase of an ADSR-family envelope.
type EnvelopeStage int

const (
	StageIdle EnvelopeStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

// ADSR is the attack/decay/sustain/release envelope named in §3. Gate
// is read every sample (not block-held like most Signal parameters) so
// attack/release edges land on the correct sample rather than snapping
// to a block boundary.
type ADSR struct {
	base
	Gate, Attack, Decay, Sustain, Release graph.Signal

	stage    EnvelopeStage
	level    float64
	prevGate float32
	scratch  [5][]float32
}

func NewADSR(id graph.NodeID, gate, attack, decay, sustain, release graph.Signal) *ADSR {
	return &ADSR{
		base: newBase(id, gate, attack, decay, sustain, release),
		Gate: gate, Attack: attack, Decay: decay, Sustain: sustain, Release: release,
	}
}

func (a *ADSR) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	for i := range a.scratch {
		if cap(a.scratch[i]) < n {
			a.scratch[i] = make([]float32, n)
		}
	}
	gate := a.Gate.Block(ctx, lookup, a.scratch[0][:n])
	attack := a.Attack.Block(ctx, lookup, a.scratch[1][:n])
	decay := a.Decay.Block(ctx, lookup, a.scratch[2][:n])
	sustain := a.Sustain.Block(ctx, lookup, a.scratch[3][:n])
	release := a.Release.Block(ctx, lookup, a.scratch[4][:n])

	dt := 1.0 / ctx.SampleRate
	for i := range out {
		g := gate[i]
		if g != 0 && a.prevGate == 0 {
			a.stage = StageAttack
		} else if g == 0 && a.prevGate != 0 {
			a.stage = StageRelease
		}
		a.prevGate = g

		switch a.stage {
		case StageIdle:
			a.level = 0
		case StageAttack:
			at := float64(attack[i])
			if at <= 0 {
				a.level = 1
			} else {
				a.level += dt / at
			}
			if a.level >= 1 {
				a.level = 1
				a.stage = StageDecay
			}
		case StageDecay:
			dc := float64(decay[i])
			target := float64(sustain[i])
			if dc <= 0 {
				a.level = target
			} else {
				a.level -= dt / dc
			}
			if a.level <= target {
				a.level = target
				a.stage = StageSustain
			}
		case StageSustain:
			a.level = float64(sustain[i])
		case StageRelease:
			rl := float64(release[i])
			if rl <= 0 {
				a.level = 0
			} else {
				a.level -= dt / rl
			}
			if a.level <= 0 {
				a.level = 0
				a.stage = StageIdle
			}
		}
		out[i] = float32(a.level)
	}
}

// Done reports whether the envelope has decayed to its terminal idle
// stage, used by the voice manager to recycle a voice (§4.6).
func (a *ADSR) Done() bool { return a.stage == StageIdle }

// Segment is one leg of a multi-point Curve envelope: it moves from From
// to To over Duration seconds, curved by Shape (0 = linear,
// positive = exponential-ish ease-out, negative = ease-in), per §3
// "curve, segments".
type Segment struct {
	From, To, Duration, Shape float64
}

// Curve plays a fixed sequence of segments once per gate-onset, then
// holds the final segment's value — the generalized envelope shape
// underlying ADSR, exact-point automation curves, and the default
// percussion envelope.
type Curve struct {
	base
	Gate     graph.Signal
	Segments []Segment

	segIdx   int
	segT     float64
	prevGate float32
	scratch  []float32
}

func NewCurve(id graph.NodeID, gate graph.Signal, segments []Segment) *Curve {
	return &Curve{base: newBase(id, gate), Gate: gate, Segments: segments}
}

// NewPercussionEnvelope builds the default sample envelope named in §3
// ("percussion envelope; default for samples"): a fast linear attack
// and an exponential-feeling decay to zero, re-triggered on every gate
// onset.
func NewPercussionEnvelope(id graph.NodeID, gate graph.Signal) *Curve {
	return NewCurve(id, gate, []Segment{
		{From: 0, To: 1, Duration: 0.002, Shape: 0},
		{From: 1, To: 0, Duration: 0.3, Shape: 2},
	})
}

func (c *Curve) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	if cap(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	gate := c.Gate.Block(ctx, lookup, c.scratch[:n])
	dt := 1.0 / ctx.SampleRate

	for i := range out {
		g := gate[i]
		if g != 0 && c.prevGate == 0 {
			c.segIdx = 0
			c.segT = 0
		}
		c.prevGate = g

		if len(c.Segments) == 0 || c.segIdx >= len(c.Segments) {
			out[i] = 0
			continue
		}
		seg := c.Segments[c.segIdx]
		frac := 1.0
		if seg.Duration > 0 {
			frac = c.segT / seg.Duration
		}
		if frac > 1 {
			frac = 1
		}
		shaped := shapeFraction(frac, seg.Shape)
		out[i] = float32(seg.From + (seg.To-seg.From)*shaped)

		c.segT += dt
		if c.segT >= seg.Duration {
			if c.segIdx < len(c.Segments)-1 {
				c.segT = 0
				c.segIdx++
			} else {
				c.segT = seg.Duration
			}
		}
	}
}

// shapeFraction bends a linear 0..1 progress fraction by shape: 0 is
// linear, positive bows towards ease-out, negative towards ease-in.
func shapeFraction(frac, shape float64) float64 {
	if shape == 0 {
		return frac
	}
	if shape > 0 {
		return 1 - math.Pow(1-frac, 1+shape)
	}
	return math.Pow(frac, 1-shape)
}
