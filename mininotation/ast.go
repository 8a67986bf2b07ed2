// Package mininotation parses the compact pattern-text sub-language
// embedded in quoted strings (e.g. "bd(3,8) [hh*4, cp]") into
// pattern.Pattern[string] (§4.3).
package mininotation

// node is the mini-notation AST. It is deliberately small: every
// construct in §4.3 reduces to one of these cases.
type node interface{ isNode() }

// sequence is whitespace-separated tokens, each given an equal slot
// within the enclosing cycle (or sub-span).
type sequenceNode struct{ items []node }

func (sequenceNode) isNode() {}

// stackNode plays every item simultaneously within the same slot (the
// "," operator inside brackets).
type stackNode struct{ items []node }

func (stackNode) isNode() {}

// alternationNode (`<...>`) rotates through one item per cycle.
type alternationNode struct{ items []node }

func (alternationNode) isNode() {}

// restNode (`~`) is silence in a slot.
type restNode struct{}

func (restNode) isNode() {}

// tokenNode is a leaf: a bare word, optionally with a `:N` bank-index
// annotation.
type tokenNode struct {
	name      string
	bankIndex int
	hasBank   bool
}

func (tokenNode) isNode() {}

// fastNode repeats its child n times within its own slot (`*n`).
type fastNode struct {
	child node
	n     float64
}

func (fastNode) isNode() {}

// slowNode stretches its child across n slots, i.e. it plays once every n
// cycles through the slot (`/n`).
type slowNode struct {
	child node
	n     float64
}

func (slowNode) isNode() {}

// euclidNode distributes k onsets of its child across n steps rotated by
// r (`(k,n,r)`).
type euclidNode struct {
	child      node
	k, n, r    int
	rExplicit  bool
}

func (euclidNode) isNode() {}
