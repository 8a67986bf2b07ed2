package graph

import (
	"math"
	"testing"

	"github.com/phonon-audio/phonon/rational"
)

// constNode is a minimal test fixture: outputs a fixed value every sample.
type constNode struct {
	id  NodeID
	val float32
}

func (c constNode) ID() NodeID    { return c.id }
func (c constNode) Deps() []NodeID { return nil }
func (c constNode) Process(ctx Context, lookup BufferLookup, out []float32) {
	for i := range out {
		out[i] = c.val
	}
}

// sumNode adds the outputs of its dependencies.
type sumNode struct {
	id   NodeID
	deps []NodeID
}

func (s sumNode) ID() NodeID    { return s.id }
func (s sumNode) Deps() []NodeID { return s.deps }
func (s sumNode) Process(ctx Context, lookup BufferLookup, out []float32) {
	for i := range out {
		out[i] = 0
	}
	for _, d := range s.deps {
		buf := lookup(d)
		for i := range out {
			out[i] += buf[i]
		}
	}
}

func testCtx(n int) Context {
	return Context{CyclePos: rational.FromInt(0), BlockLen: n, SampleRate: 48000, Cps: rational.FromInt(1)}
}

func TestRenderBlockSumsDependencies(t *testing.T) {
	g := NewGraph()
	g.AddNode(constNode{id: "a", val: 1})
	g.AddNode(constNode{id: "b", val: 2})
	g.AddNode(sumNode{id: "s", deps: []NodeID{"a", "b"}})
	g.RouteOutput(0, "s")

	ch := [][]float32{make([]float32, 8)}
	if err := g.RenderBlock(testCtx(8), ch); err != nil {
		t.Fatal(err)
	}
	for i, v := range ch[0] {
		if v != 3 {
			t.Errorf("sample %d = %v, want 3", i, v)
		}
	}
}

func TestCompileDetectsCycle(t *testing.T) {
	g := NewGraph()
	g.AddNode(sumNode{id: "a", deps: []NodeID{"b"}})
	g.AddNode(sumNode{id: "b", deps: []NodeID{"a"}})
	if err := g.Compile(); err == nil {
		t.Fatal("expected cycle detection error")
	}
}

func TestAliasForwardReference(t *testing.T) {
	g := NewGraph()
	alias := NewAliasNode("bus:lead")
	g.AddNode(alias)
	g.AddNode(constNode{id: "osc1", val: 5})
	alias.Resolve("osc1")
	g.RouteOutput(0, "bus:lead")

	ch := [][]float32{make([]float32, 4)}
	if err := g.RenderBlock(testCtx(4), ch); err != nil {
		t.Fatal(err)
	}
	for _, v := range ch[0] {
		if v != 5 {
			t.Errorf("got %v, want 5", v)
		}
	}
}

func TestOutputSummingMultipleSources(t *testing.T) {
	g := NewGraph()
	g.AddNode(constNode{id: "a", val: 1})
	g.AddNode(constNode{id: "b", val: 2})
	g.RouteOutput(0, "a")
	g.RouteOutput(0, "b")

	ch := [][]float32{make([]float32, 2)}
	if err := g.RenderBlock(testCtx(2), ch); err != nil {
		t.Fatal(err)
	}
	for _, v := range ch[0] {
		if v != 3 {
			t.Errorf("got %v, want 3", v)
		}
	}
}

func TestStagesOrderRespectsDependencies(t *testing.T) {
	g := NewGraph()
	g.AddNode(constNode{id: "a", val: 1})
	g.AddNode(sumNode{id: "b", deps: []NodeID{"a"}})
	g.AddNode(sumNode{id: "c", deps: []NodeID{"b"}})
	if err := g.Compile(); err != nil {
		t.Fatal(err)
	}
	stages := g.Stages()
	if len(stages) != 3 {
		t.Fatalf("expected 3 stages, got %d: %v", len(stages), stages)
	}
	if stages[0][0] != "a" || stages[1][0] != "b" || stages[2][0] != "c" {
		t.Errorf("unexpected stage order: %v", stages)
	}
}

func TestNonFiniteOutputIsClampedAndTainted(t *testing.T) {
	g := NewGraph()
	g.AddNode(constNode{id: "bad", val: float32(math.NaN())})
	g.RouteOutput(0, "bad")

	var tainted []NodeID
	ctx := testCtx(4)
	ctx.Tainted = func(id NodeID) { tainted = append(tainted, id) }

	channels := [][]float32{make([]float32, 4)}
	if err := g.RenderBlock(ctx, channels); err != nil {
		t.Fatal(err)
	}
	for _, v := range channels[0] {
		if v != 0 {
			t.Errorf("expected NaN output clamped to 0, got %v", v)
		}
	}
	if len(tainted) != 1 || tainted[0] != "bad" {
		t.Errorf("expected node %q reported tainted exactly once, got %v", "bad", tainted)
	}
}
