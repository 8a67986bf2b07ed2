package mininotation

import (
	"strconv"

	"github.com/phonon-audio/phonon/euclid"
	"github.com/phonon-audio/phonon/pattern"
	"github.com/phonon-audio/phonon/rational"
)

// Parse parses mini-notation source text into a Pattern[string]. Rests
// ("~") contribute no haps; every other token becomes a hap whose value is
// the token text and whose Context carries "bank" when a `:N` annotation
// was present (§4.3, §3 "context map").
func Parse(src string) (pattern.Pattern[string], error) {
	root, err := parseSource(normalizeBrackets(src))
	if err != nil {
		return pattern.Silence[string](), err
	}
	return compile(root), nil
}

// ParseNumeric parses mini-notation source and converts each token to a
// float64, for numeric mini-notation patterns (e.g. frequency sequences).
// A token that fails to parse as a number is silently dropped from the
// resulting pattern (non-fatal per the spirit of §7's non-propagating
// runtime errors; compile-time numeric literals go through the DSL's
// literal-lifting path instead, see package dsl).
func ParseNumeric(src string) (pattern.Pattern[float64], error) {
	strPat, err := Parse(src)
	if err != nil {
		return pattern.Silence[float64](), err
	}
	return pattern.New[float64](func(s pattern.State) []pattern.Hap[float64] {
		haps := strPat.Query(s)
		out := make([]pattern.Hap[float64], 0, len(haps))
		for _, h := range haps {
			v, err := strconv.ParseFloat(h.Value, 64)
			if err != nil {
				continue
			}
			out = append(out, pattern.Hap[float64]{Whole: h.Whole, Part: h.Part, Value: v, Context: h.Context})
		}
		return out
	}), nil
}

func compile(n node) pattern.Pattern[string] {
	switch t := n.(type) {
	case restNode:
		return pattern.Silence[string]()
	case tokenNode:
		p := pattern.Pure(t.name)
		if t.hasBank {
			bank := strconv.Itoa(t.bankIndex)
			base := p
			p = pattern.New[string](func(s pattern.State) []pattern.Hap[string] {
				haps := base.Query(s)
				out := make([]pattern.Hap[string], len(haps))
				for i, h := range haps {
					ctx := h.CloneContext()
					if ctx == nil {
						ctx = map[string]string{}
					}
					ctx["bank"] = bank
					out[i] = pattern.Hap[string]{Whole: h.Whole, Part: h.Part, Value: h.Value, Context: ctx}
				}
				return out
			})
		}
		return p
	case sequenceNode:
		return compileSequence(t.items)
	case stackNode:
		pats := make([]pattern.Pattern[string], len(t.items))
		for i, it := range t.items {
			pats[i] = compile(it)
		}
		return pattern.Stack(pats...)
	case alternationNode:
		return compileAlternation(t.items)
	case fastNode:
		return pattern.Fast(compile(t.child), rational.FromFloat64(t.n))
	case slowNode:
		return pattern.Slow(compile(t.child), rational.FromFloat64(t.n))
	case euclidNode:
		return compileEuclid(t)
	default:
		return pattern.Silence[string]()
	}
}

// compileSequence lays items end-to-end, each given an equal 1/m slot of
// the enclosing cycle (whitespace-separated sequence semantics, §4.3).
func compileSequence(items []node) pattern.Pattern[string] {
	m := len(items)
	if m == 0 {
		return pattern.Silence[string]()
	}
	if m == 1 {
		return compile(items[0])
	}
	slots := make([]pattern.Pattern[string], m)
	for i, it := range items {
		b := rational.New(int64(i), int64(m))
		e := rational.New(int64(i+1), int64(m))
		slots[i] = pattern.Compress(compile(it), b, e)
	}
	return pattern.Stack(slots...)
}

// compileAlternation rotates through one element per cycle (`<...>`).
func compileAlternation(items []node) pattern.Pattern[string] {
	m := len(items)
	if m == 0 {
		return pattern.Silence[string]()
	}
	compiled := make([]pattern.Pattern[string], m)
	for i, it := range items {
		compiled[i] = compile(it)
	}
	return pattern.New[string](func(s pattern.State) []pattern.Hap[string] {
		var out []pattern.Hap[string]
		for _, cyc := range s.Span.CyclesTouched() {
			cycleNum := cyc.Begin.Floor()
			idx := ((cycleNum % int64(m)) + int64(m)) % int64(m)
			out = append(out, compiled[idx].Query(s.WithSpan(cyc))...)
		}
		return out
	})
}

// compileEuclid distributes k onsets of child's value across n steps,
// rotated by r, each onset occupying one of n equal slots (§4.3 "(k,n,r)").
func compileEuclid(t euclidNode) pattern.Pattern[string] {
	if t.n <= 0 {
		return pattern.Silence[string]()
	}
	onsets := euclid.Pattern(t.k, t.n, t.r)
	child := compile(t.child)
	slots := make([]pattern.Pattern[string], 0, t.n)
	for i := 0; i < t.n; i++ {
		b := rational.New(int64(i), int64(t.n))
		e := rational.New(int64(i+1), int64(t.n))
		if onsets[i] {
			slots = append(slots, pattern.Compress(child, b, e))
		}
	}
	if len(slots) == 0 {
		return pattern.Silence[string]()
	}
	return pattern.Stack(slots...)
}
