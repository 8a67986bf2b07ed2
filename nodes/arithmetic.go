package nodes

import "github.com/phonon-audio/phonon/graph"

// BinOp is the operator a Binary arithmetic node applies sample-wise.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
)

// Binary implements §3 arithmetic "add, subtract, multiply, divide"
// between two audio-rate/pattern/constant signals.
type Binary struct {
	base
	Op          BinOp
	A, B        graph.Signal
	aBuf, bBuf  []float32
}

func NewBinary(id graph.NodeID, op BinOp, a, b graph.Signal) *Binary {
	return &Binary{base: newBase(id, a, b), Op: op, A: a, B: b}
}

func (bn *Binary) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	if cap(bn.aBuf) < n {
		bn.aBuf = make([]float32, n)
		bn.bBuf = make([]float32, n)
	}
	a := bn.A.Block(ctx, lookup, bn.aBuf[:n])
	b := bn.B.Block(ctx, lookup, bn.bBuf[:n])
	for i := range out {
		switch bn.Op {
		case OpAdd:
			out[i] = a[i] + b[i]
		case OpSub:
			out[i] = a[i] - b[i]
		case OpMul:
			out[i] = a[i] * b[i]
		case OpDiv:
			if b[i] == 0 {
				out[i] = 0
			} else {
				out[i] = a[i] / b[i]
			}
		}
	}
}

// Scale multiplies its input by a constant/pattern/node factor — the
// common case of Binary(OpMul) against a single named parameter, kept
// as its own node so DSL `scale x` reads naturally.
type Scale struct {
	base
	inputSignal
	Factor    graph.Signal
	factorBuf []float32
}

func NewScale(id graph.NodeID, input, factor graph.Signal) *Scale {
	return &Scale{base: newBase(id, input, factor), inputSignal: inputSignal{Input: input}, Factor: factor}
}

func (s *Scale) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	if cap(s.factorBuf) < n {
		s.factorBuf = make([]float32, n)
	}
	in := s.read(ctx, lookup, n)
	factor := s.Factor.Block(ctx, lookup, s.factorBuf[:n])
	for i := range out {
		out[i] = in[i] * factor[i]
	}
}

// Gain applies a constant/pattern/node-driven linear gain — identical
// shape to Scale, kept distinct so the DSL vocabulary (`gain x` vs
// `scale x`) maps one-to-one onto node kinds per §3.
type Gain struct {
	*Scale
}

func NewGain(id graph.NodeID, input, amount graph.Signal) *Gain {
	return &Gain{Scale: NewScale(id, input, amount)}
}

// Mix sums N inputs with equal weight and auto-normalizes by 1/N (§3
// "mix (equal-weighted sum with auto-normalization)"), distinguishing
// it from Add (which never normalizes).
type Mix struct {
	base
	Inputs []graph.Signal
	bufs   [][]float32
}

func NewMix(id graph.NodeID, inputs ...graph.Signal) *Mix {
	return &Mix{base: newBase(id, inputs...), Inputs: inputs}
}

func (m *Mix) Process(ctx graph.Context, lookup graph.BufferLookup, out []float32) {
	n := ctx.BlockLen
	if len(m.bufs) != len(m.Inputs) {
		m.bufs = make([][]float32, len(m.Inputs))
	}
	for i := range m.bufs {
		if cap(m.bufs[i]) < n {
			m.bufs[i] = make([]float32, n)
		}
	}
	for i := range out {
		out[i] = 0
	}
	if len(m.Inputs) == 0 {
		return
	}
	for i, sig := range m.Inputs {
		buf := sig.Block(ctx, lookup, m.bufs[i][:n])
		for j := range out {
			out[j] += buf[j]
		}
	}
	norm := 1 / float32(len(m.Inputs))
	for i := range out {
		out[i] *= norm
	}
}
