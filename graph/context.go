// Package graph implements the block-based signal graph data model and
// scheduler (§3 "Graph nodes", §4.5).
package graph

import "github.com/phonon-audio/phonon/rational"

// Context is broadcast to every node once per block (§4.5 "per-block
// context"): the cycle position at the block's first sample, the block
// length, the sample rate, and the tempo (cps).
type Context struct {
	CyclePos  rational.Fraction
	BlockLen  int
	SampleRate float64
	Cps       rational.Fraction
	Tainted   func(nodeID NodeID) // latched-NaN reporter, see §7
}

// CyclePosAt returns the cycle position of sample index i within the
// block, used by the stepped-hold pattern evaluator and sample-pattern
// trigger conversion.
func (c Context) CyclePosAt(i int) rational.Fraction {
	secondsPerSample := rational.New(1, 1).Div(rational.FromFloat64(c.SampleRate))
	delta := secondsPerSample.Mul(rational.FromInt(int64(i))).Mul(c.Cps)
	return c.CyclePos.Add(delta)
}

// BlockSpan returns the cycle-time span covered by this block.
func (c Context) BlockSpan() rational.TimeSpan {
	dur := rational.FromInt(int64(c.BlockLen)).Div(rational.FromFloat64(c.SampleRate)).Mul(c.Cps)
	return rational.NewSpan(c.CyclePos, c.CyclePos.Add(dur))
}
