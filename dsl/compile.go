package dsl

import (
	"fmt"

	"github.com/phonon-audio/phonon/graph"
	"github.com/phonon-audio/phonon/mininotation"
	"github.com/phonon-audio/phonon/nodes"
	"github.com/phonon-audio/phonon/pattern"
	"github.com/phonon-audio/phonon/rational"
	"github.com/phonon-audio/phonon/sampling"
)

// Command is a control-surface action parsed from a command statement
// (`hush`, `panic`, `setCycle 4`, ...); the engine executes these
// against its transport after a program loads (§4.4 "Statement
// kinds: commands").
type Command struct {
	Name string
	Args []float64
}

// Program is the result of compiling one DSL source file: a graph ready
// to render, the set of output-bus node IDs to sum per channel, any
// commands to run once on load, and an initial tempo if the source set
// one (§6 "two-pass compilation").
type Program struct {
	Graph       *graph.Graph
	Outputs     map[int][]graph.NodeID
	Commands    []Command
	InitialCps  *rational.Fraction
	SampleRate  float64
}

// Compile parses and compiles DSL source into a Program. bank and
// voices are shared across reloads (§4.7 "live reload carries the
// sample bank and voice pool forward"); sampleRate is the engine's
// fixed render rate.
func Compile(src string, bank *sampling.Bank, voices *sampling.Manager, sampleRate float64) (*Program, error) {
	stmts, err := parseProgram(src)
	if err != nil {
		return nil, err
	}

	c := &compiler{
		g:          graph.NewGraph(),
		bank:       bank,
		voices:     voices,
		sampleRate: sampleRate,
		buses:      map[string]*graph.AliasNode{},
		outputs:    map[int][]graph.NodeID{},
	}

	// Pass one: register an AliasNode placeholder for every bus name so
	// forward and mutually-recursive bus references resolve (§6 "pass
	// one registers placeholders, pass two resolves them").
	for _, s := range stmts {
		if ba, ok := s.(busAssignStmt); ok {
			if _, exists := c.buses[ba.name]; exists {
				return nil, &CompileError{Msg: fmt.Sprintf("bus ~%s assigned more than once", ba.name)}
			}
			alias := graph.NewAliasNode(busNodeID(ba.name))
			c.buses[ba.name] = alias
			c.g.AddNode(alias)
		}
	}

	// Pass two: compile every statement's expression, resolving bus
	// references against the pass-one table.
	for _, s := range stmts {
		if err := c.compileStatement(s); err != nil {
			return nil, err
		}
	}

	if err := c.g.Compile(); err != nil {
		return nil, err
	}

	return &Program{
		Graph:      c.g,
		Outputs:    c.outputs,
		Commands:   c.commands,
		InitialCps: c.initialCps,
		SampleRate: sampleRate,
	}, nil
}

func busNodeID(name string) graph.NodeID { return graph.NodeID("bus:" + name) }

type compiler struct {
	g          *graph.Graph
	bank       *sampling.Bank
	voices     *sampling.Manager
	sampleRate float64

	buses   map[string]*graph.AliasNode
	outputs map[int][]graph.NodeID

	commands   []Command
	initialCps *rational.Fraction

	nextID int
}

func (c *compiler) fresh(prefix string) graph.NodeID {
	c.nextID++
	return graph.NodeID(fmt.Sprintf("%s#%d", prefix, c.nextID))
}

func (c *compiler) add(n graph.Node) graph.NodeID {
	c.g.AddNode(n)
	return n.ID()
}

func (c *compiler) compileStatement(s stmt) error {
	switch st := s.(type) {
	case tempoStmt:
		v, err := c.constFloat(st.cps)
		if err != nil {
			return err
		}
		f := rational.FromFloat64(v)
		c.initialCps = &f
		return nil

	case bpmStmt:
		v, err := c.constFloat(st.bpm)
		if err != nil {
			return err
		}
		// One beat per cycle; a time signature, if present, is parsed
		// but does not change the cycle length.
		f := rational.FromFloat64(v / 60.0)
		c.initialCps = &f
		return nil

	case busAssignStmt:
		id, err := c.compileNode(st.expr)
		if err != nil {
			return err
		}
		c.buses[st.name].Resolve(id)
		return nil

	case outAssignStmt:
		id, err := c.compileNode(st.expr)
		if err != nil {
			return err
		}
		c.outputs[st.channel] = append(c.outputs[st.channel], id)
		c.g.RouteOutput(st.channel, id)
		return nil

	case commandStmt:
		args := make([]float64, 0, len(st.args))
		for _, a := range st.args {
			v, err := c.constFloat(a)
			if err != nil {
				return err
			}
			args = append(args, v)
		}
		c.commands = append(c.commands, Command{Name: st.name, Args: args})
		return nil

	default:
		return &CompileError{Msg: fmt.Sprintf("unhandled statement %T", s)}
	}
}

func (c *compiler) constFloat(e Expr) (float64, error) {
	switch v := e.(type) {
	case numberLit:
		return v.value, nil
	case unaryNeg:
		inner, err := c.constFloat(v.expr)
		if err != nil {
			return 0, err
		}
		return -inner, nil
	case binOp:
		l, err := c.constFloat(v.left)
		if err != nil {
			return 0, err
		}
		r, err := c.constFloat(v.right)
		if err != nil {
			return 0, err
		}
		switch v.op {
		case '+':
			return l + r, nil
		case '-':
			return l - r, nil
		case '*':
			return l * r, nil
		case '/':
			if r == 0 {
				return 0, nil
			}
			return l / r, nil
		}
	}
	return 0, &CompileError{Msg: fmt.Sprintf("expected a numeric literal, found %T", e)}
}

// compileNode lowers an expression into a top-level audio-producing
// node, returning its ID. This is the entry point for bus assignments,
// output routing, and the left-hand side of `$`/`#` (§4.5 "node
// compilation").
func (c *compiler) compileNode(e Expr) (graph.NodeID, error) {
	switch v := e.(type) {
	case rawNodeRef:
		return v.id, nil
	case busRef:
		alias, ok := c.buses[v.name]
		if !ok {
			return "", &CompileError{Msg: fmt.Sprintf("reference to undefined bus ~%s", v.name)}
		}
		return alias.ID(), nil

	case call:
		return c.compileCall(v)

	case binOp:
		return c.compileBinOpNode(v)

	case unaryNeg:
		inner, err := c.compileNode(v.expr)
		if err != nil {
			return "", err
		}
		return c.add(nodes.NewScale(c.fresh("neg"), graph.RefSignal(inner), graph.ConstSignal(-1))), nil

	case transformExpr:
		return c.compileTransform(v)

	case chainExpr:
		return c.compileChain(v)

	case numberLit:
		return c.add(nodes.NewConstant(c.fresh("const"), graph.ConstSignal(v.value))), nil

	default:
		return "", &CompileError{Msg: fmt.Sprintf("expression of type %T cannot produce a node", e)}
	}
}

func (c *compiler) compileBinOpNode(v binOp) (graph.NodeID, error) {
	a, err := c.compileSignal(v.left)
	if err != nil {
		return "", err
	}
	b, err := c.compileSignal(v.right)
	if err != nil {
		return "", err
	}
	op := map[byte]nodes.BinOp{'+': nodes.OpAdd, '-': nodes.OpSub, '*': nodes.OpMul, '/': nodes.OpDiv}[v.op]
	return c.add(nodes.NewBinary(c.fresh("bin"), op, a, b)), nil
}

// compileSignal lowers an expression into a graph.Signal: a constant, a
// reference to a compiled node's output, or (for a bare mini-notation
// string) a numeric pattern signal with stepped-hold semantics (§3).
func (c *compiler) compileSignal(e Expr) (graph.Signal, error) {
	switch v := e.(type) {
	case rawNodeRef:
		return graph.RefSignal(v.id), nil
	case numberLit:
		return graph.ConstSignal(v.value), nil
	case unaryNeg:
		if folded, err := c.constFloat(v); err == nil {
			return graph.ConstSignal(folded), nil
		}
		inner, err := c.compileSignal(v.expr)
		if err != nil {
			return graph.Signal{}, err
		}
		if dep, ok := inner.Dep(); ok {
			return graph.RefSignal(c.add(nodes.NewScale(c.fresh("neg"), graph.RefSignal(dep), graph.ConstSignal(-1)))), nil
		}
		return graph.Signal{}, &CompileError{Msg: "cannot negate this expression"}
	case stringLit:
		pat, err := mininotation.ParseNumeric(v.value)
		if err != nil {
			return graph.Signal{}, &CompileError{Msg: err.Error()}
		}
		return graph.PatternSignal(pat), nil
	case busRef:
		alias, ok := c.buses[v.name]
		if !ok {
			return graph.Signal{}, &CompileError{Msg: fmt.Sprintf("reference to undefined bus ~%s", v.name)}
		}
		return graph.RefSignal(alias.ID()), nil
	default:
		id, err := c.compileNode(e)
		if err != nil {
			return graph.Signal{}, err
		}
		return graph.RefSignal(id), nil
	}
}

// compilePattern lowers an expression that must produce a string
// mini-notation pattern (the `s` source function's sole argument).
func (c *compiler) compilePattern(e Expr) (pattern.Pattern[string], error) {
	sl, ok := e.(stringLit)
	if !ok {
		return pattern.Silence[string](), &CompileError{Msg: fmt.Sprintf("expected a mini-notation string, found %T", e)}
	}
	pat, err := mininotation.Parse(sl.value)
	if err != nil {
		return pattern.Silence[string](), &CompileError{Msg: err.Error()}
	}
	return pat, nil
}

func (c *compiler) ident(e Expr) (string, bool) {
	if id, ok := e.(identLit); ok {
		return id.name, true
	}
	return "", false
}

// sampleDefaults returns the five default control signals a new
// SamplePattern node starts with before any `#`-chained parameter
// overrides it (§4.5, §4.6 defaults: full gain, centered pan, unit
// speed, and effectively-instant attack/release so an unshaped sample
// plays through at its own envelope).
func sampleDefaults() (gain, pan, speed, attack, release graph.Signal) {
	return graph.ConstSignal(1), graph.ConstSignal(0), graph.ConstSignal(1), graph.ConstSignal(0), graph.ConstSignal(0.01)
}

func (c *compiler) compileCall(v call) (graph.NodeID, error) {
	switch v.fn {
	case "s":
		if len(v.args) != 1 {
			return "", &CompileError{Msg: "s expects exactly one mini-notation string argument"}
		}
		pat, err := c.compilePattern(v.args[0])
		if err != nil {
			return "", err
		}
		gain, pan, speed, attack, release := sampleDefaults()
		return c.add(nodes.NewSamplePattern(c.fresh("s"), pat, c.bank, c.voices, gain, pan, speed, attack, release, 0, sampling.LoopOff)), nil

	case "sine", "saw", "square", "triangle":
		freq, err := c.arg1Signal(v)
		if err != nil {
			return "", err
		}
		wave := map[string]nodes.Waveform{"sine": nodes.Sine, "saw": nodes.Saw, "square": nodes.Square, "triangle": nodes.Triangle}[v.fn]
		return c.add(nodes.NewOscillator(c.fresh(v.fn), freq, wave, true)), nil

	case "white", "pink", "brown":
		color := map[string]nodes.NoiseColor{"white": nodes.White, "pink": nodes.Pink, "brown": nodes.Brown}[v.fn]
		return c.add(nodes.NewNoise(c.fresh(v.fn), color)), nil

	case "impulse":
		trig, err := c.arg1Signal(v)
		if err != nil {
			return "", err
		}
		return c.add(nodes.NewImpulse(c.fresh("impulse"), trig)), nil

	case "lpf", "hpf", "bpf", "notch", "peak":
		return c.compileBiquad(v)

	case "onepole":
		return c.compileOnePole(v, false)
	case "onepolehp":
		return c.compileOnePole(v, true)

	case "moog":
		return c.compileMoog(v)
	case "comb":
		return c.compileComb(v)
	case "allpass":
		return c.compileAllPass(v)

	case "delay":
		return c.compileErrNode(v, 3, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewDelay(c.fresh(v.fn), input, a[0], a[1], a[2], c.sampleRate)
		})
	case "reverb", "reverbFDN":
		return c.compileReverb(v)
	case "chorus":
		return c.compileErrNode(v, 3, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewChorus(c.fresh(v.fn), input, a[0], a[1], a[2], c.sampleRate)
		})
	case "flanger":
		return c.compileErrNode(v, 4, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewFlanger(c.fresh(v.fn), input, a[0], a[1], a[2], a[3], c.sampleRate)
		})
	case "phaser":
		return c.compileErrNode(v, 5, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewPhaser(c.fresh(v.fn), input, a[0], a[1], a[2], a[3], a[4], c.sampleRate)
		})
	case "bitcrush":
		return c.compileErrNode(v, 3, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewBitCrush(c.fresh(v.fn), input, a[0], a[1], a[2], c.sampleRate)
		})
	case "shape":
		if len(v.args) < 3 {
			return "", &CompileError{Msg: "shape expects input, drive, mix"}
		}
		input, err := c.compileSignal(v.args[0])
		if err != nil {
			return "", err
		}
		drive, err := c.compileSignal(v.args[1])
		if err != nil {
			return "", err
		}
		mix, err := c.compileSignal(v.args[2])
		if err != nil {
			return "", err
		}
		return c.add(nodes.NewWaveshaper(c.fresh("shape"), input, drive, mix)), nil
	case "compressor":
		return c.compileErrNode(v, 4, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewCompressor(c.fresh(v.fn), input, a[0], a[1], a[2], a[3], c.sampleRate)
		})
	case "sidechain":
		if len(v.args) < 6 {
			return "", &CompileError{Msg: "sidechain expects input, key, threshold, ratio, attack, release"}
		}
		input, err := c.compileSignal(v.args[0])
		if err != nil {
			return "", err
		}
		key, err := c.compileSignal(v.args[1])
		if err != nil {
			return "", err
		}
		rest, err := c.compileSignals(v.args[2:6])
		if err != nil {
			return "", err
		}
		return c.add(nodes.NewSidechainCompressor(c.fresh("sidechain"), input, key, rest[0], rest[1], rest[2], rest[3])), nil
	case "limiter":
		return c.compileErrNode(v, 2, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewLimiter(c.fresh(v.fn), input, a[0], a[1], c.sampleRate)
		})
	case "gate":
		return c.compileErrNode(v, 5, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewGate(c.fresh(v.fn), input, a[0], a[1], a[2], a[3], a[4], c.sampleRate)
		})
	case "pshift":
		return c.compileErrNode(v, 1, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewPitchShift(c.fresh(v.fn), input, a[0], c.sampleRate)
		})

	case "adsr":
		return c.compileErrFreeNode(v, 5, func(a []graph.Signal) graph.Node {
			return nodes.NewADSR(c.fresh("adsr"), a[0], a[1], a[2], a[3], a[4])
		})
	case "perc":
		return c.compileErrFreeNode(v, 1, func(a []graph.Signal) graph.Node {
			return nodes.NewPercussionEnvelope(c.fresh("perc"), a[0])
		})

	case "mix":
		sigs := make([]graph.Signal, 0, len(v.args))
		for _, a := range v.args {
			s, err := c.compileSignal(a)
			if err != nil {
				return "", err
			}
			sigs = append(sigs, s)
		}
		return c.add(nodes.NewMix(c.fresh("mix"), sigs...)), nil

	case "gain":
		return c.compileErrNode(v, 1, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewGain(c.fresh("gain"), input, a[0]), nil
		})
	case "scale":
		return c.compileErrNode(v, 1, func(input graph.Signal, a []graph.Signal) (graph.Node, error) {
			return nodes.NewScale(c.fresh("scale"), input, a[0]), nil
		})

	default:
		return "", &CompileError{Msg: fmt.Sprintf("unknown function %q", v.fn)}
	}
}

func (c *compiler) arg1Signal(v call) (graph.Signal, error) {
	if len(v.args) != 1 {
		return graph.Signal{}, &CompileError{Msg: fmt.Sprintf("%s expects exactly one argument", v.fn)}
	}
	return c.compileSignal(v.args[0])
}

func (c *compiler) compileSignals(exprs []Expr) ([]graph.Signal, error) {
	out := make([]graph.Signal, 0, len(exprs))
	for _, e := range exprs {
		s, err := c.compileSignal(e)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// compileErrNode handles the common "input-then-N-params, constructor
// can fail" shape shared by most effect nodes (§4.5: "first argument is
// always the signal being processed").
func (c *compiler) compileErrNode(v call, n int, build func(input graph.Signal, a []graph.Signal) (graph.Node, error)) (graph.NodeID, error) {
	if len(v.args) < n+1 {
		return "", &CompileError{Msg: fmt.Sprintf("%s expects an input plus %d argument(s)", v.fn, n)}
	}
	input, err := c.compileSignal(v.args[0])
	if err != nil {
		return "", err
	}
	rest, err := c.compileSignals(v.args[1 : n+1])
	if err != nil {
		return "", err
	}
	node, err := build(input, rest)
	if err != nil {
		return "", &CompileError{Msg: fmt.Sprintf("%s: %v", v.fn, err)}
	}
	return c.add(node), nil
}

// compileErrFreeNode is compileErrNode's counterpart for nodes with no
// dedicated "input" argument (envelopes, which read a gate instead).
func (c *compiler) compileErrFreeNode(v call, n int, build func(a []graph.Signal) graph.Node) (graph.NodeID, error) {
	if len(v.args) < n {
		return "", &CompileError{Msg: fmt.Sprintf("%s expects %d argument(s)", v.fn, n)}
	}
	args, err := c.compileSignals(v.args[:n])
	if err != nil {
		return "", err
	}
	return c.add(build(args)), nil
}

func (c *compiler) compileBiquad(v call) (graph.NodeID, error) {
	if len(v.args) < 2 {
		return "", &CompileError{Msg: fmt.Sprintf("%s expects input, cutoff[, q[, gainDB]]", v.fn)}
	}
	input, err := c.compileSignal(v.args[0])
	if err != nil {
		return "", err
	}
	cutoff, err := c.compileSignal(v.args[1])
	if err != nil {
		return "", err
	}
	q := graph.ConstSignal(0.707)
	if len(v.args) >= 3 {
		if q, err = c.compileSignal(v.args[2]); err != nil {
			return "", err
		}
	}
	gainDB := graph.ConstSignal(0)
	if len(v.args) >= 4 {
		if gainDB, err = c.compileSignal(v.args[3]); err != nil {
			return "", err
		}
	}
	kind := map[string]nodes.BiquadKind{"lpf": nodes.LowPass, "hpf": nodes.HighPass, "bpf": nodes.BandPass, "notch": nodes.Notch, "peak": nodes.Peaking}[v.fn]
	return c.add(nodes.NewBiquad(c.fresh(v.fn), kind, input, cutoff, q, gainDB)), nil
}

func (c *compiler) compileOnePole(v call, highPass bool) (graph.NodeID, error) {
	if len(v.args) < 2 {
		return "", &CompileError{Msg: fmt.Sprintf("%s expects input, cutoff", v.fn)}
	}
	input, err := c.compileSignal(v.args[0])
	if err != nil {
		return "", err
	}
	cutoff, err := c.compileSignal(v.args[1])
	if err != nil {
		return "", err
	}
	return c.add(nodes.NewOnePole(c.fresh(v.fn), input, cutoff, highPass)), nil
}

func (c *compiler) compileMoog(v call) (graph.NodeID, error) {
	if len(v.args) < 3 {
		return "", &CompileError{Msg: "moog expects input, cutoff, resonance"}
	}
	input, err := c.compileSignal(v.args[0])
	if err != nil {
		return "", err
	}
	cutoff, err := c.compileSignal(v.args[1])
	if err != nil {
		return "", err
	}
	res, err := c.compileSignal(v.args[2])
	if err != nil {
		return "", err
	}
	node, err := nodes.NewMoog(c.fresh("moog"), input, cutoff, res, c.sampleRate)
	if err != nil {
		return "", &CompileError{Msg: fmt.Sprintf("moog: %v", err)}
	}
	return c.add(node), nil
}

func (c *compiler) compileComb(v call) (graph.NodeID, error) {
	if len(v.args) < 3 {
		return "", &CompileError{Msg: "comb expects input, decay, delayMs"}
	}
	input, err := c.compileSignal(v.args[0])
	if err != nil {
		return "", err
	}
	decay, err := c.compileSignal(v.args[1])
	if err != nil {
		return "", err
	}
	delayMs, err := c.constFloat(v.args[2])
	if err != nil {
		return "", err
	}
	return c.add(nodes.NewComb(c.fresh("comb"), input, decay, delayMs, c.sampleRate)), nil
}

func (c *compiler) compileAllPass(v call) (graph.NodeID, error) {
	if len(v.args) < 3 {
		return "", &CompileError{Msg: "allpass expects input, gain, delayMs"}
	}
	input, err := c.compileSignal(v.args[0])
	if err != nil {
		return "", err
	}
	gain, err := c.compileSignal(v.args[1])
	if err != nil {
		return "", err
	}
	delayMs, err := c.constFloat(v.args[2])
	if err != nil {
		return "", err
	}
	return c.add(nodes.NewAllPass(c.fresh("allpass"), input, gain, delayMs, c.sampleRate)), nil
}

func (c *compiler) compileReverb(v call) (graph.NodeID, error) {
	if len(v.args) < 5 {
		return "", &CompileError{Msg: fmt.Sprintf("%s expects input, wet, dry, roomSize, damp", v.fn)}
	}
	input, err := c.compileSignal(v.args[0])
	if err != nil {
		return "", err
	}
	rest, err := c.compileSignals(v.args[1:5])
	if err != nil {
		return "", err
	}
	model := nodes.Freeverb
	if v.fn == "reverbFDN" {
		model = nodes.FDN
	}
	node, err := nodes.NewReverb(c.fresh(v.fn), input, model, rest[0], rest[1], rest[2], rest[3], c.sampleRate)
	if err != nil {
		return "", &CompileError{Msg: fmt.Sprintf("%s: %v", v.fn, err)}
	}
	return c.add(node), nil
}
