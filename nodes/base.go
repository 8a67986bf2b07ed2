// Package nodes implements the concrete graph.Node kinds named in §3:
// sources, filters, envelopes, effects, arithmetic, and routing. Most
// filter and effect nodes wrap DSP from github.com/cwbudde/algo-dsp behind
// a small Configure/Process adapter, mirroring the runtime wrapper shape used by
// CWBudde-algo-dsp's own effect-chain and webdemo packages.
package nodes

import "github.com/phonon-audio/phonon/graph"

// base holds the bookkeeping every node needs: its stable ID and the
// list of signals it depends on for scheduling (Deps()).
type base struct {
	id   graph.NodeID
	deps []graph.NodeID
}

func newBase(id graph.NodeID, signals ...graph.Signal) base {
	b := base{id: id}
	for _, s := range signals {
		if dep, ok := s.Dep(); ok {
			b.deps = append(b.deps, dep)
		}
	}
	return b
}

func (b base) ID() graph.NodeID   { return b.id }
func (b base) Deps() []graph.NodeID { return b.deps }

// inputSignal holds the audio-rate main input every filter/effect node
// reads, evaluated uniformly via Signal.Block regardless of whether the
// input is a constant, a pattern, or another node's output.
type inputSignal struct {
	Input graph.Signal
	buf   []float32
}

func (s *inputSignal) read(ctx graph.Context, lookup graph.BufferLookup, n int) []float32 {
	if cap(s.buf) < n {
		s.buf = make([]float32, n)
	}
	return s.Input.Block(ctx, lookup, s.buf[:n])
}

// scratch64 reuses a float64 buffer across blocks for nodes that wrap
// algo-dsp effects operating on []float64 (the library's native sample
// type); block sizes are stable in practice so growing once amortizes.
type scratch64 struct{ buf []float64 }

func (s *scratch64) get(n int) []float64 {
	if cap(s.buf) < n {
		s.buf = make([]float64, n)
	}
	return s.buf[:n]
}

func toFloat64(dst []float64, src []float32) {
	for i, v := range src {
		dst[i] = float64(v)
	}
}

func toFloat32(dst []float32, src []float64) {
	for i, v := range src {
		dst[i] = float32(v)
	}
}
