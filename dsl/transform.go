package dsl

import (
	"fmt"

	"github.com/phonon-audio/phonon/graph"
	"github.com/phonon-audio/phonon/nodes"
	"github.com/phonon-audio/phonon/pattern"
	"github.com/phonon-audio/phonon/rational"
	"github.com/phonon-audio/phonon/sampling"
)

// compileTransform implements the `$` operator: apply a pattern
// transform to the pattern driving an already-compiled sample-pattern
// node (§4.4 "`$` — apply transform t to pattern p"). Only
// *nodes.SamplePattern exposes a mutable underlying pattern, so `$`
// against anything else is a compile error rather than silently
// building a new node.
func (c *compiler) compileTransform(v transformExpr) (graph.NodeID, error) {
	id, err := c.compileNode(v.left)
	if err != nil {
		return "", err
	}
	n, ok := c.g.Node(id)
	if !ok {
		return "", &CompileError{Msg: fmt.Sprintf("$ %s: left side did not compile to a node", v.fn)}
	}
	sp, ok := n.(*nodes.SamplePattern)
	if !ok {
		return "", &CompileError{Msg: fmt.Sprintf("$ %s can only be applied to a sample pattern (`s \"...\"`)", v.fn)}
	}
	newPat, err := c.applyPatternTransform(v.fn, v.args, sp.Pat)
	if err != nil {
		return "", err
	}
	sp.Pat = newPat
	return id, nil
}

// compileChain implements the `#` operator: feed left as fn's first
// argument (§4.4 "`#` — feed left as f's first argument"). The
// sample-parameter names mutate the SamplePattern's control fields in
// place; any other function name builds a new node with left as its
// audio-rate input.
func (c *compiler) compileChain(v chainExpr) (graph.NodeID, error) {
	id, err := c.compileNode(v.left)
	if err != nil {
		return "", err
	}

	if n, ok := c.g.Node(id); ok {
		if sp, ok := n.(*nodes.SamplePattern); ok {
			if handled, err := c.applySampleParam(sp, v.fn, v.args); err != nil {
				return "", err
			} else if handled {
				return id, nil
			}
		}
	}

	args := make([]Expr, 0, len(v.args)+1)
	args = append(args, rawNodeRef{id: id})
	args = append(args, v.args...)
	return c.compileCall(call{fn: v.fn, args: args})
}

// rawNodeRef lets compileChain splice an already-compiled node ID into
// a call's argument list as if it were source syntax.
type rawNodeRef struct{ id graph.NodeID }

func (rawNodeRef) exprNode() {}

func (c *compiler) applySampleParam(sp *nodes.SamplePattern, fn string, args []Expr) (bool, error) {
	if fn == "cut" || fn == "loop" {
		return c.applySampleFlag(sp, fn, args)
	}
	var target *graph.Signal
	switch fn {
	case "gain":
		target = &sp.Gain
	case "pan":
		target = &sp.Pan
	case "speed":
		target = &sp.Speed
	case "attack":
		target = &sp.Attack
	case "release":
		target = &sp.Release
	default:
		return false, nil
	}
	if len(args) != 1 {
		return false, &CompileError{Msg: fmt.Sprintf("#%s expects exactly one argument", fn)}
	}
	sig, err := c.compileSignal(args[0])
	if err != nil {
		return false, err
	}
	*target = sig
	return true, nil
}

func (c *compiler) applySampleFlag(sp *nodes.SamplePattern, fn string, args []Expr) (bool, error) {
	if len(args) != 1 {
		return false, &CompileError{Msg: fmt.Sprintf("#%s expects exactly one argument", fn)}
	}
	switch fn {
	case "cut":
		v, err := c.constFloat(args[0])
		if err != nil {
			return false, err
		}
		sp.CutGroup = int(v)
	case "loop":
		name, ok := c.ident(args[0])
		if !ok {
			return false, &CompileError{Msg: "#loop expects on or off"}
		}
		switch name {
		case "on":
			sp.Loop = sampling.LoopOn
		case "off":
			sp.Loop = sampling.LoopOff
		default:
			return false, &CompileError{Msg: fmt.Sprintf("#loop: unknown mode %q", name)}
		}
	}
	return true, nil
}

// applyPatternTransform dispatches a named pattern-transform function
// (the $-operator vocabulary of §3 "Pattern operators") against a
// string pattern, consuming its source-syntax argument list.
func (c *compiler) applyPatternTransform(fn string, args []Expr, pat pattern.Pattern[string]) (pattern.Pattern[string], error) {
	frac := func(i int) (rational.Fraction, error) {
		if i >= len(args) {
			return rational.Fraction{}, &CompileError{Msg: fmt.Sprintf("%s: missing argument %d", fn, i)}
		}
		v, err := c.constFloat(args[i])
		if err != nil {
			return rational.Fraction{}, err
		}
		return rational.FromFloat64(v), nil
	}
	intArg := func(i int) (int, error) {
		if i >= len(args) {
			return 0, &CompileError{Msg: fmt.Sprintf("%s: missing argument %d", fn, i)}
		}
		v, err := c.constFloat(args[i])
		if err != nil {
			return 0, err
		}
		return int(v), nil
	}
	subFn := func(i int) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
		if i >= len(args) {
			return nil, &CompileError{Msg: fmt.Sprintf("%s: missing sub-transform argument", fn)}
		}
		name, ok := c.ident(args[i])
		if !ok {
			return nil, &CompileError{Msg: fmt.Sprintf("%s: expected a bare transform name", fn)}
		}
		rest := args[i+1:]
		return func(p pattern.Pattern[string]) pattern.Pattern[string] {
			out, err := c.applyPatternTransform(name, rest, p)
			if err != nil {
				return p
			}
			return out
		}, nil
	}

	switch fn {
	case "fast":
		f, err := frac(0)
		return pattern.Fast(pat, f), err
	case "slow":
		f, err := frac(0)
		return pattern.Slow(pat, f), err
	case "rev":
		return pattern.Rev(pat), nil
	case "rotL", "early":
		f, err := frac(0)
		return pattern.RotL(pat, f), err
	case "rotR", "late":
		f, err := frac(0)
		return pattern.RotR(pat, f), err
	case "zoom":
		b, err := frac(0)
		if err != nil {
			return pat, err
		}
		e, err := frac(1)
		return pattern.Zoom(pat, b, e), err
	case "compress":
		b, err := frac(0)
		if err != nil {
			return pat, err
		}
		e, err := frac(1)
		return pattern.Compress(pat, b, e), err
	case "fastGap":
		f, err := frac(0)
		return pattern.FastGap(pat, f), err
	case "press":
		n, err := frac(0)
		return pattern.Press(pat, n), err
	case "pressBy":
		f, err := frac(0)
		return pattern.PressBy(pat, f), err
	case "dup":
		n, err := intArg(0)
		return pattern.Dup(pat, n), err
	case "stutter":
		n, err := intArg(0)
		if err != nil {
			return pat, err
		}
		t, err := frac(1)
		return pattern.Stutter(pat, n, t), err
	case "chop":
		n, err := intArg(0)
		return pattern.Chop(pat, n), err
	case "striate":
		n, err := intArg(0)
		return pattern.Striate(pat, n), err
	case "degrade":
		return pattern.Degrade(pat), nil
	case "degradeBy":
		v, err := frac(0)
		if err != nil {
			return pat, err
		}
		return pattern.DegradeBy(pat, v.Float64()), nil
	case "scramble":
		n, err := intArg(0)
		return pattern.Scramble(pat, n), err
	case "palindrome":
		return pattern.Palindrome(pat), nil
	case "iter":
		n, err := intArg(0)
		return pattern.Iter(pat, n), err
	case "swing":
		f, err := frac(0)
		return pattern.Swing(pat, f), err
	case "ghost":
		return pattern.Ghost(pat), nil
	case "hurry":
		f, err := frac(0)
		return pattern.Hurry(pat, f), err
	case "every":
		n, err := intArg(0)
		if err != nil {
			return pat, err
		}
		f, err := subFn(1)
		if err != nil {
			return pat, err
		}
		return pattern.Every(pat, n, f), nil
	case "sometimes":
		f, err := subFn(0)
		if err != nil {
			return pat, err
		}
		return pattern.Sometimes(pat, f), nil
	case "often":
		f, err := subFn(0)
		if err != nil {
			return pat, err
		}
		return pattern.Often(pat, f), nil
	case "rarely":
		f, err := subFn(0)
		if err != nil {
			return pat, err
		}
		return pattern.Rarely(pat, f), nil
	case "when":
		mod, err := intArg(0)
		if err != nil {
			return pat, err
		}
		residue, err := intArg(1)
		if err != nil {
			return pat, err
		}
		f, err := subFn(2)
		if err != nil {
			return pat, err
		}
		return pattern.When(pat, func(cyc int64) bool { return mod > 0 && cyc%int64(mod) == int64(residue) }, f), nil
	case "within":
		b, err := frac(0)
		if err != nil {
			return pat, err
		}
		e, err := frac(1)
		if err != nil {
			return pat, err
		}
		f, err := subFn(2)
		if err != nil {
			return pat, err
		}
		return pattern.Within(pat, b, e, f), nil
	case "inside":
		n, err := frac(0)
		if err != nil {
			return pat, err
		}
		f, err := subFn(1)
		if err != nil {
			return pat, err
		}
		return pattern.Inside(pat, n, f), nil
	case "outside":
		n, err := frac(0)
		if err != nil {
			return pat, err
		}
		f, err := subFn(1)
		if err != nil {
			return pat, err
		}
		return pattern.Outside(pat, n, f), nil
	default:
		return pat, &CompileError{Msg: fmt.Sprintf("unknown pattern transform %q", fn)}
	}
}
