package graph

// NodeID identifies a node within a Graph. Bus placeholders and
// user-authored nodes share the same ID space so a compiled graph has a
// single flat namespace (§4.5, §6 two-pass compilation).
type NodeID string

// BufferLookup resolves a dependency's most recently produced block
// buffer. The scheduler guarantees every ID returned by Deps() has
// already been processed for the current block before Process is
// called, so the lookup never blocks or recomputes.
type BufferLookup func(NodeID) []float32

// Node is the contract every signal-graph node implements (§3 "Graph
// nodes"): declare audio-rate dependencies so the scheduler can order
// the graph, then fill an output buffer from them plus the per-block
// Context.
type Node interface {
	ID() NodeID
	Deps() []NodeID
	Process(ctx Context, lookup BufferLookup, out []float32)
}

// Alias is implemented by nodes that are pure passthroughs of another
// node's buffer (bus placeholders once resolved, §6 pass two). The
// scheduler recognizes it and aliases the buffer slice directly instead
// of calling Process, giving the "zero-copy shared-immutable buffer"
// behaviour named in §4.5 for the common case of a bus reference.
type Alias interface {
	AliasTarget() (NodeID, bool)
}

// AliasNode is both the placeholder a `~name` reference compiles to in
// pass one, and (once pass two resolves the bus's defining expression)
// the stand-in for that expression's node everywhere else in the graph.
// Its identity never changes, which is what lets forward and cyclic bus
// references compile in two passes (§6).
type AliasNode struct {
	id     NodeID
	target NodeID
	bound  bool
}

// NewAliasNode creates an unresolved placeholder for bus name's
// defining expression.
func NewAliasNode(id NodeID) *AliasNode { return &AliasNode{id: id} }

// Resolve binds the placeholder to the node that implements the bus's
// defining expression. Called exactly once, in pass two.
func (a *AliasNode) Resolve(target NodeID) {
	a.target = target
	a.bound = true
}

func (a *AliasNode) ID() NodeID { return a.id }

func (a *AliasNode) Deps() []NodeID {
	if !a.bound {
		return nil
	}
	return []NodeID{a.target}
}

func (a *AliasNode) AliasTarget() (NodeID, bool) { return a.target, a.bound }

func (a *AliasNode) Process(ctx Context, lookup BufferLookup, out []float32) {
	if !a.bound {
		for i := range out {
			out[i] = 0
		}
		return
	}
	copy(out, lookup(a.target))
}
