package nodes

import (
	"math/big"
	"strconv"

	"github.com/phonon-audio/phonon/graph"
	"github.com/phonon-audio/phonon/pattern"
	"github.com/phonon-audio/phonon/sampling"
)

// SamplePattern is the sample-pattern source node named throughout §4.5:
// on every block it queries its mini-notation-derived pattern over the
// block span, converts each onset's cycle position into a sample offset
// (rational.Fraction.SampleOffset), and hands the voice manager a trigger
// request at that offset (§4.5 step 4). It then asks the manager to sum
// every voice belonging to this node into the block's output buffer
// (§4.5 step 5), so from the rest of the graph's point of view it is an
// ordinary audio-rate node.
//
// Grounded on the teacher's player.go: `Player.renderRow` reads one MOD
// pattern row per tick and starts channels; this generalizes "one fixed
// row per tick" to "query an arbitrary Pattern[string] over the block's
// cycle span", and "31 fixed channels" to the shared sampling.Manager
// pool.
type SamplePattern struct {
	base

	Pat    pattern.Pattern[string]
	Bank   *sampling.Bank
	Voices *sampling.Manager

	Gain     graph.Signal
	Pan      graph.Signal
	Speed    graph.Signal
	Attack   graph.Signal
	Release  graph.Signal
	CutGroup int
	Loop     sampling.LoopMode

	gainBuf, panBuf, speedBuf, attackBuf, releaseBuf []float32
}

// NewSamplePattern builds a sample-pattern node. Gain/Pan/Speed/Attack/
// Release are graph.Signal so a DSL author can drive them from patterns
// or other nodes via `#gain`, `#pan`, etc. (§6 chain operator).
func NewSamplePattern(id graph.NodeID, pat pattern.Pattern[string], bank *sampling.Bank, voices *sampling.Manager, gain, pan, speed, attack, release graph.Signal, cutGroup int, loop sampling.LoopMode) *SamplePattern {
	return &SamplePattern{
		base:     newBase(id, gain, pan, speed, attack, release),
		Pat:      pat,
		Bank:     bank,
		Voices:   voices,
		Gain:     gain,
		Pan:      pan,
		Speed:    speed,
		Attack:   attack,
		Release:  release,
		CutGroup: cutGroup,
		Loop:     loop,
	}
}

func (s *SamplePattern) grow(n int) {
	if cap(s.gainBuf) < n {
		s.gainBuf = make([]float32, n)
		s.panBuf = make([]float32, n)
		s.speedBuf = make([]float32, n)
		s.attackBuf = make([]float32, n)
		s.releaseBuf = make([]float32, n)
	}
}

func (s *SamplePattern) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	s.grow(n)
	gain := s.Gain.Block(ctx, lookup, s.gainBuf[:n])
	pan := s.Pan.Block(ctx, lookup, s.panBuf[:n])
	speed := s.Speed.Block(ctx, lookup, s.speedBuf[:n])
	attack := s.Attack.Block(ctx, lookup, s.attackBuf[:n])
	release := s.Release.Block(ctx, lookup, s.releaseBuf[:n])

	haps := pattern.FilterOnsets(s.Pat).QuerySpan(ctx.BlockSpan())
	for _, h := range haps {
		offset := h.Part.Begin.Sub(ctx.CyclePos).SampleOffset(ctx.SampleRate, ctx.Cps)
		if offset < 0 {
			offset = 0
		}
		if offset >= n {
			continue
		}

		idx := 0
		if bank, ok := h.Context["bank"]; ok {
			if v, err := strconv.Atoi(bank); err == nil {
				idx = v
			}
		}
		buf, ok := s.Bank.Resolve(h.Value, idx)
		if !ok {
			continue // missing sample: silently dropped, §7
		}
		// Annotations left by pattern.Ghost and pattern.Hurry.
		gainMul := float32(1)
		if g, err := strconv.ParseFloat(h.Context["ghostGain"], 32); err == nil {
			gainMul = float32(g)
		}
		speedMul := 1.0
		if r, ok := new(big.Rat).SetString(h.Context["speedFactor"]); ok {
			speedMul, _ = r.Float64()
		}

		s.Voices.Trigger(sampling.TriggerRequest{
			SourceNode:   s.id,
			Buffer:       buf,
			SampleOffset: offset,
			Gain:         gain[offset] * gainMul,
			Pan:          pan[offset],
			Speed:        float64(speed[offset]) * speedMul,
			Attack:       float64(attack[offset]),
			Release:      float64(release[offset]),
			CutGroup:     s.CutGroup,
			LoopMode:     s.Loop,
		})
	}

	s.Voices.Render(s.id, out)
}
