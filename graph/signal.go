package graph

import (
	"math"
	"sync/atomic"

	"github.com/phonon-audio/phonon/pattern"
	"github.com/phonon-audio/phonon/rational"
)

type signalKind int

const (
	signalConst signalKind = iota
	signalRef
	signalPattern
)

// Signal is a node parameter: a compile-time constant, an audio-rate
// reference to another node's output, or a pattern-valued control with
// stepped-hold semantics (§3 "parameters may be constants, other
// node outputs, or patterns").
type Signal struct {
	kind  signalKind
	value float64
	ref   NodeID
	pat   pattern.Pattern[float64]
}

// ConstSignal wraps a fixed value.
func ConstSignal(v float64) Signal { return Signal{kind: signalConst, value: v} }

// RefSignal reads another node's audio-rate output.
func RefSignal(id NodeID) Signal { return Signal{kind: signalRef, ref: id} }

// PatternSignal drives a parameter from a numeric pattern. The value is
// evaluated once per block (see evalPatternBlock) and held for every
// sample of that block; a value change that falls inside a block is not
// applied at its own sample.
func PatternSignal(p pattern.Pattern[float64]) Signal { return Signal{kind: signalPattern, pat: p} }

// Dep returns the node this signal depends on, if it is a node
// reference.
func (s Signal) Dep() (NodeID, bool) {
	if s.kind == signalRef {
		return s.ref, true
	}
	return "", false
}

// Block evaluates the signal into a per-sample buffer of length
// ctx.BlockLen, writing into out (which must already have that
// capacity). For a node-reference signal this simply returns the
// looked-up buffer (zero-copy); constants and patterns fill out.
func (s Signal) Block(ctx Context, lookup BufferLookup, out []float32) []float32 {
	switch s.kind {
	case signalConst:
		for i := range out {
			out[i] = float32(s.value)
		}
		return out
	case signalRef:
		return lookup(s.ref)
	case signalPattern:
		evalPatternBlock(s.pat, ctx, out)
		return out
	default:
		for i := range out {
			out[i] = 0
		}
		return out
	}
}

// evalPatternBlock samples pat once per block (held constant for the
// whole block at the value of the onset active at the block's cycle
// position), matching the coarse-grained "control rate" treatment
// patterns get when driving DSP parameters (§3). A block is normally
// far shorter than a pattern step, so resampling every sample would
// cost far more than it buys; if multiple onsets fall inside one block
// the last one wins.
func evalPatternBlock(pat pattern.Pattern[float64], ctx Context, out []float32) {
	span := ctx.BlockSpan()
	haps := pat.QuerySpan(span)
	v := float32(0)
	found := false
	for _, h := range haps {
		if h.HasOnset() {
			v = float32(h.Value)
			found = true
		}
	}
	if !found {
		for _, h := range haps {
			v = float32(h.Value)
			found = true
		}
	}
	for i := range out {
		out[i] = v
	}
}

// SignalAsPattern exposes a node's audio-rate output as a pattern
// value, sampled once per cycle boundary (§3 "SignalAsPattern": "a
// signal can be read back as a pattern, updated once per cycle"). The
// scheduler calls Publish after a block that crosses a cycle boundary;
// Pattern() returns a query function reading the latched value.
type SignalAsPattern struct {
	source NodeID
	bits   atomic.Uint64
}

// NewSignalAsPattern creates a cycle-latched pattern view of source's
// output.
func NewSignalAsPattern(source NodeID) *SignalAsPattern {
	return &SignalAsPattern{source: source}
}

// Source is the node whose output this view reads.
func (s *SignalAsPattern) Source() NodeID { return s.source }

// Publish latches a new value, visible to subsequent pattern queries.
func (s *SignalAsPattern) Publish(v float32) {
	s.bits.Store(uint64(math.Float32bits(v)))
}

func (s *SignalAsPattern) load() float64 {
	return float64(math.Float32frombits(uint32(s.bits.Load())))
}

func (s *SignalAsPattern) Pattern() pattern.Pattern[float64] {
	return pattern.New[float64](func(st pattern.State) []pattern.Hap[float64] {
		var out []pattern.Hap[float64]
		for _, cyc := range st.Span.CyclesTouched() {
			n := cyc.Begin.Floor()
			whole := rational.NewSpan(rational.FromInt(n), rational.FromInt(n+1))
			out = append(out, pattern.Hap[float64]{Whole: &whole, Part: cyc, Value: s.load()})
		}
		return out
	})
}
