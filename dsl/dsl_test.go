package dsl

import (
	"testing"

	"github.com/phonon-audio/phonon/sampling"
)

func testBank() *sampling.Bank {
	b := sampling.NewBank()
	data := make([]float32, 100)
	for i := range data {
		data[i] = 1
	}
	b.Load("bd", []*sampling.Buffer{{Name: "bd", Channels: 1, Frames: 100, Data: data}})
	return b
}

func TestLexerTokenizesBasicProgram(t *testing.T) {
	toks, err := NewLexer("~d1 : s \"bd sn\" # gain 0.8\nout: ~d1").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if toks[len(toks)-1].kind != tokEOF {
		t.Fatalf("expected stream to terminate with EOF, got %v", toks[len(toks)-1].kind)
	}
	if toks[0].kind != tokTilde {
		t.Errorf("expected first token to be '~', got %v", toks[0].kind)
	}
}

func TestLexerSkipsComments(t *testing.T) {
	toks, err := NewLexer("-- a comment\ntempo: 1").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].kind != tokNewline {
		t.Fatalf("expected leading comment to be stripped down to the newline, got %v", toks[0].kind)
	}
}

func TestParseBusAssignAndOutput(t *testing.T) {
	stmts, err := parseProgram("~d1 : s \"bd\"\nout: ~d1")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	ba, ok := stmts[0].(busAssignStmt)
	if !ok || ba.name != "d1" {
		t.Fatalf("expected bus assignment to ~d1, got %#v", stmts[0])
	}
	oa, ok := stmts[1].(outAssignStmt)
	if !ok || oa.channel != 0 {
		t.Fatalf("expected out assignment to channel 0, got %#v", stmts[1])
	}
}

func TestParseMinusDisambiguation(t *testing.T) {
	// "fast -2" — MINUS immediately followed by NUMBER is a negative
	// literal argument, not the subtraction operator.
	stmts, err := parseProgram("~d1 : ~d2 $ fast -2")
	if err != nil {
		t.Fatal(err)
	}
	te, ok := stmts[0].(busAssignStmt).expr.(transformExpr)
	if !ok {
		t.Fatalf("expected a transform expression, got %#v", stmts[0])
	}
	if len(te.args) != 1 {
		t.Fatalf("expected one argument, got %d", len(te.args))
	}
	if n, ok := te.args[0].(numberLit); !ok || n.value != -2 {
		t.Errorf("expected -2 literal, got %#v", te.args[0])
	}
}

func TestParseSubtractionAfterParenthesizedCall(t *testing.T) {
	// A MINUS immediately followed by a NUMBER always reads as a
	// negative-literal argument inside an argument list (there is no
	// whitespace-sensitivity to tell "440 - 10" from "440 -10" apart),
	// so disambiguating true subtraction against a call's result needs
	// parens to close the argument list first.
	stmts, err := parseProgram("~x : (sine 440) - 10")
	if err != nil {
		t.Fatal(err)
	}
	bo, ok := stmts[0].(busAssignStmt).expr.(binOp)
	if !ok || bo.op != '-' {
		t.Fatalf("expected a top-level subtraction, got %#v", stmts[0].(busAssignStmt).expr)
	}
}

func TestCompileSimplePattern(t *testing.T) {
	bank := testBank()
	voices := sampling.NewManager(8, 48000)
	prog, err := Compile("~d1 : s \"bd\" # gain 0.5\nout: ~d1", bank, voices, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Outputs[0]) != 1 {
		t.Fatalf("expected one node routed to channel 0, got %v", prog.Outputs[0])
	}
}

func TestCompileUndefinedBusFails(t *testing.T) {
	bank := testBank()
	voices := sampling.NewManager(8, 48000)
	if _, err := Compile("out: ~missing", bank, voices, 48000); err == nil {
		t.Fatal("expected an error referencing an undefined bus")
	}
}

func TestCompileForwardBusReference(t *testing.T) {
	bank := testBank()
	voices := sampling.NewManager(8, 48000)
	// ~d1 refers to ~d2 before ~d2 is defined later in the source;
	// two-pass compilation must still resolve it (§6).
	src := "~d1 : ~d2 # gain 0.5\n~d2 : s \"bd\"\nout: ~d1"
	prog, err := Compile(src, bank, voices, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if err := prog.Graph.Compile(); err != nil {
		t.Fatalf("expected compiled graph with no cycles, got %v", err)
	}
}

func TestCompileTempoStatement(t *testing.T) {
	bank := testBank()
	voices := sampling.NewManager(8, 48000)
	prog, err := Compile("tempo: 1.5\nout: 0", bank, voices, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if prog.InitialCps == nil || prog.InitialCps.Float64() != 1.5 {
		t.Fatalf("expected initial cps 1.5, got %v", prog.InitialCps)
	}
}

func TestCompileCommands(t *testing.T) {
	bank := testBank()
	voices := sampling.NewManager(8, 48000)
	prog, err := Compile("~d1 : s \"bd\"\nout: ~d1\nhushN 2", bank, voices, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Commands) != 1 || prog.Commands[0].Name != "hushN" || prog.Commands[0].Args[0] != 2 {
		t.Fatalf("expected hushN 2 command, got %#v", prog.Commands)
	}
}

func TestPatternTransformAppliesToSamplePattern(t *testing.T) {
	bank := testBank()
	voices := sampling.NewManager(8, 48000)
	prog, err := Compile("~d1 : s \"bd\" $ fast 2\nout: ~d1", bank, voices, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Outputs[0]) != 1 {
		t.Fatal("expected one output node")
	}
}

func TestTransformOnNonSamplePatternFails(t *testing.T) {
	bank := testBank()
	voices := sampling.NewManager(8, 48000)
	if _, err := Compile("~d1 : sine 440 $ fast 2\nout: ~d1", bank, voices, 48000); err == nil {
		t.Fatal("expected an error: $ only applies to a sample pattern")
	}
}

func TestChainAppliesFilterToOscillator(t *testing.T) {
	bank := testBank()
	voices := sampling.NewManager(8, 48000)
	prog, err := Compile("~d1 : sine 440 # lpf 800 0.7\nout: ~d1", bank, voices, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Outputs[0]) != 1 {
		t.Fatal("expected one output node")
	}
}
