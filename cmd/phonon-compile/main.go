// Command phonon-compile is the inspector CLI named in SPEC_FULL.md: it
// loads a .phonon DSL file, compiles it, and prints the resolved bus
// table, node count per topological stage, and any compile diagnostics.
// Grounded on the teacher's cmd/moddump (load file, construct, dump
// structure, log.Fatal on error) with cmd/modplay's fatih/color usage
// repurposed for highlighting a compile error's source location instead
// of a player's transport status line.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/phonon-audio/phonon/dsl"
	"github.com/phonon-audio/phonon/graph"
	"github.com/phonon-audio/phonon/sampling"
)

var (
	cyan   = color.New(color.FgCyan).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("phonon-compile: ")

	sampleRate := flag.Float64("samplerate", 48000, "render sample rate used for compilation")
	voicePool := flag.Int("voices", 64, "voice pool capacity")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: phonon-compile <file.phonon>")
	}
	fname := flag.Arg(0)

	src, err := os.ReadFile(fname)
	if err != nil {
		log.Fatal(err)
	}

	// An empty bank is enough to compile: the "s" source function only
	// needs a *sampling.Bank reference, not loaded buffers (§4.6 "missing
	// samples are silently dropped" is a render-time, not compile-time,
	// concern).
	bank := sampling.NewBank()
	voices := sampling.NewManager(*voicePool, *sampleRate)

	prog, err := dsl.Compile(string(src), bank, voices, *sampleRate)
	if err != nil {
		printCompileError(fname, string(src), err)
		os.Exit(1)
	}

	fmt.Println(cyan("%s compiled OK", fname))
	printBusTable(prog)
	printStages(prog)
	printOutputs(prog)
	printCommands(prog)
}

// printCompileError surfaces (line, column, message) per §6/§7, with the
// offending source line and a caret underneath the column when the
// failure carries a location (dsl.CompileError does; a bare
// graph.CompileError from a cycle detected during scheduling does not).
func printCompileError(fname, src string, err error) {
	var ce *dsl.CompileError
	if ok := asCompileError(err, &ce); ok && ce.Line > 0 {
		fmt.Println(red("%s:%d:%d: %s", fname, ce.Line, ce.Col, ce.Msg))
		lines := strings.Split(src, "\n")
		if ce.Line-1 < len(lines) {
			line := lines[ce.Line-1]
			fmt.Println(line)
			if ce.Col >= 1 {
				fmt.Println(strings.Repeat(" ", ce.Col-1) + yellow("^"))
			}
		}
		return
	}
	fmt.Println(red("%s: %v", fname, err))
}

func asCompileError(err error, out **dsl.CompileError) bool {
	if ce, ok := err.(*dsl.CompileError); ok {
		*out = ce
		return true
	}
	return false
}

func printBusTable(prog *dsl.Program) {
	fmt.Println(yellow("buses:"))
	found := false
	for _, stage := range prog.Graph.Stages() {
		for _, id := range stage {
			name, isBus := busName(id)
			if !isBus {
				continue
			}
			found = true
			fmt.Printf("  ~%s -> %s\n", name, id)
		}
	}
	if !found {
		fmt.Println("  (none)")
	}
}

func busName(id graph.NodeID) (string, bool) {
	const prefix = "bus:"
	s := string(id)
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}

func printStages(prog *dsl.Program) {
	fmt.Println(yellow("stages:"))
	for i, stage := range prog.Graph.Stages() {
		fmt.Printf("  %d: %d node(s)\n", i, len(stage))
	}
}

func printOutputs(prog *dsl.Program) {
	fmt.Println(yellow("outputs:"))
	if len(prog.Outputs) == 0 {
		fmt.Println("  (none)")
		return
	}
	for ch, ids := range prog.Outputs {
		fmt.Printf("  out%d: %v\n", ch, ids)
	}
}

func printCommands(prog *dsl.Program) {
	if len(prog.Commands) == 0 {
		return
	}
	fmt.Println(yellow("commands:"))
	for _, c := range prog.Commands {
		fmt.Printf("  %s %v\n", c.Name, c.Args)
	}
}
