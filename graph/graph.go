package graph

import (
	"fmt"
	"math"
	"sort"
)

// CompileError is returned by graph construction and scheduling failures
// that the DSL compiler surfaces verbatim as compile errors (§6, §7).
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string { return e.Msg }

// Graph is the compiled signal graph: a flat set of nodes plus the
// channel routing table that sums node outputs onto output channels
// (§3 "Graph", §4.5 "output routing").
type Graph struct {
	nodes   map[NodeID]Node
	order   []NodeID // insertion order, for deterministic DOT output
	outputs map[int][]NodeID
	stages  [][]NodeID
	sapsBy  map[NodeID][]*SignalAsPattern
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[NodeID]Node),
		outputs: make(map[int][]NodeID),
		sapsBy:  make(map[NodeID][]*SignalAsPattern),
	}
}

// AddNode registers a node. Re-adding the same ID replaces it and keeps
// its original position in the insertion order.
func (g *Graph) AddNode(n Node) {
	if _, exists := g.nodes[n.ID()]; !exists {
		g.order = append(g.order, n.ID())
	}
	g.nodes[n.ID()] = n
	g.stages = nil
}

// Node looks up a node by ID.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// RouteOutput sums node id's output onto output channel ch. Multiple
// nodes routed to the same channel are mixed by addition (§4.5 "summing
// when multiple buses target the same channel").
func (g *Graph) RouteOutput(ch int, id NodeID) {
	g.outputs[ch] = append(g.outputs[ch], id)
}

// RegisterSignalAsPattern arranges for sap to be published from
// source's output once per cycle boundary crossed during scheduling.
func (g *Graph) RegisterSignalAsPattern(sap *SignalAsPattern) {
	g.sapsBy[sap.source] = append(g.sapsBy[sap.source], sap)
}

// Compile computes topological stages (§4.5 "topological stages"): each
// stage is a set of nodes whose dependencies were all satisfied by an
// earlier stage, so nodes within a stage could in principle run in
// parallel. Returns a CompileError naming an offending node if the
// dependency graph has a cycle.
func (g *Graph) Compile() error {
	level := make(map[NodeID]int, len(g.nodes))
	var visit func(id NodeID, stack map[NodeID]bool) (int, error)
	visit = func(id NodeID, stack map[NodeID]bool) (int, error) {
		if lv, ok := level[id]; ok {
			return lv, nil
		}
		n, ok := g.nodes[id]
		if !ok {
			return 0, &CompileError{Msg: fmt.Sprintf("graph: undefined node %q", id)}
		}
		if stack[id] {
			return 0, &CompileError{Msg: fmt.Sprintf("cycle detected at node %s", id)}
		}
		stack[id] = true
		maxDep := -1
		for _, dep := range n.Deps() {
			lv, err := visit(dep, stack)
			if err != nil {
				return 0, err
			}
			if lv > maxDep {
				maxDep = lv
			}
		}
		delete(stack, id)
		level[id] = maxDep + 1
		return level[id], nil
	}

	maxLevel := -1
	for _, id := range g.order {
		lv, err := visit(id, map[NodeID]bool{})
		if err != nil {
			return err
		}
		if lv > maxLevel {
			maxLevel = lv
		}
	}

	stages := make([][]NodeID, maxLevel+1)
	for _, id := range g.order {
		lv := level[id]
		stages[lv] = append(stages[lv], id)
	}
	for _, s := range stages {
		sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	}
	g.stages = stages
	return nil
}

// Stages returns the topologically ordered stage list computed by the
// last Compile call.
func (g *Graph) Stages() [][]NodeID { return g.stages }

// RenderBlock evaluates every node exactly once per block, stage by
// stage, then mixes routed outputs onto channels (§4.5, §8 "scheduler
// evaluates every node exactly once per block"). channels must already
// be sized [numChannels][ctx.BlockLen]; they are zeroed and summed into.
func (g *Graph) RenderBlock(ctx Context, channels [][]float32) error {
	if g.stages == nil {
		if err := g.Compile(); err != nil {
			return err
		}
	}
	bufs := make(map[NodeID][]float32, len(g.nodes))
	lookup := func(id NodeID) []float32 { return bufs[id] }

	crossed := blockCrossesCycleBoundary(ctx)

	for _, stage := range g.stages {
		for _, id := range stage {
			n := g.nodes[id]
			if alias, ok := n.(Alias); ok {
				if target, bound := alias.AliasTarget(); bound {
					bufs[id] = bufs[target]
					continue
				}
			}
			out := make([]float32, ctx.BlockLen)
			n.Process(ctx, lookup, out)
			clampNonFinite(out, id, ctx.Tainted)
			bufs[id] = out
			if crossed {
				for _, sap := range g.sapsBy[id] {
					sap.Publish(out[len(out)-1])
				}
			}
		}
	}

	for ch, ids := range channels {
		for i := range ids {
			ids[i] = 0
		}
		_ = ch
	}
	for ch, srcs := range g.outputs {
		if ch >= len(channels) {
			continue
		}
		dst := channels[ch]
		for _, id := range srcs {
			buf := bufs[id]
			for i := 0; i < len(dst) && i < len(buf); i++ {
				dst[i] += buf[i]
			}
		}
	}
	return nil
}

// clampNonFinite replaces any NaN/Inf sample a node produced with silence
// and reports the node as tainted, so a non-finite value never reaches a
// dependent node (§7 "it clamps to 0 for that sample and sets a latched
// tainted flag ... it never propagates NaN downstream").
func clampNonFinite(out []float32, id NodeID, tainted func(NodeID)) {
	bad := false
	for i, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			out[i] = 0
			bad = true
		}
	}
	if bad && tainted != nil {
		tainted(id)
	}
}

func blockCrossesCycleBoundary(ctx Context) bool {
	start := ctx.CyclePos.Floor()
	end := ctx.BlockSpan().End
	endFloor := end.Floor()
	if end.IsInt() {
		endFloor--
	}
	return endFloor >= start+1 || ctx.CyclePos.IsInt()
}

// DOT renders the graph in Graphviz dot format for debugging (§9
// supplemented feature).
func (g *Graph) DOT() string {
	s := "digraph phonon {\n"
	for _, id := range g.order {
		n := g.nodes[id]
		for _, dep := range n.Deps() {
			s += fmt.Sprintf("  %q -> %q;\n", dep, id)
		}
		if len(n.Deps()) == 0 {
			s += fmt.Sprintf("  %q;\n", id)
		}
	}
	for ch, srcs := range g.outputs {
		for _, id := range srcs {
			s += fmt.Sprintf("  %q -> \"out[%d]\";\n", id, ch)
		}
	}
	s += "}\n"
	return s
}
