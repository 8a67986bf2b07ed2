// Package engine is the top-level wiring named in §4's component list:
// it owns the live graph, the sample bank, the voice manager, and the
// clock, and exposes the audio-callback and control-surface interfaces
// of §6. It is grounded on the teacher's `cmd/modplay/play.go`
// AudioPlayer: that type's streamCallback is the direct analogue of
// RenderBlock here, and its key-press command dispatch generalizes into
// Execute below.
package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/phonon-audio/phonon/clock"
	"github.com/phonon-audio/phonon/dsl"
	"github.com/phonon-audio/phonon/graph"
	"github.com/phonon-audio/phonon/rational"
	"github.com/phonon-audio/phonon/sampling"
)

// defaultCps is the tempo a freshly constructed engine starts at before
// any program sets its own `tempo:`/`bpm:` statement.
var defaultCps = rational.New(1, 2)

// renderState is everything a block render needs that changes together
// on a reload: the compiled graph and the clock anchored for it. Both
// are replaced atomically so the audio callback never observes a graph
// paired with the wrong clock (§4.7 "the old graph is dropped after the
// first block under the new graph finishes").
type renderState struct {
	graph *graph.Graph
	clock *clock.Clock
}

// Engine is the live audio-rendering core described by §4.7, §5, §6 and
// §7. The zero value is not usable; construct one with New.
type Engine struct {
	state atomic.Pointer[renderState]

	bank        *sampling.Bank
	voices      *sampling.Manager
	sampleRate  float64
	numChannels int

	hushMask    atomic.Uint64
	diagnostics *Diagnostics

	scratch [][]float32 // reused block buffers; touched only from the audio callback
}

// New creates an engine with no graph loaded: RenderBlock fills silence
// until the first successful Load.
func New(bank *sampling.Bank, voices *sampling.Manager, sampleRate float64, numChannels int) *Engine {
	return &Engine{
		bank:        bank,
		voices:      voices,
		sampleRate:  sampleRate,
		numChannels: numChannels,
		diagnostics: newDiagnostics(),
	}
}

// Diagnostics returns the engine's latest-wins fault reporter (§7).
func (e *Engine) Diagnostics() *Diagnostics { return e.diagnostics }

// Load compiles src and, on success, swaps it in as the live graph
// (§4.7 "live-reload handover"). The new graph's clock inherits the
// previous one's session_start/cycle_offset/cps so rhythmic position is
// continuous across the swap; a program-level tempo statement then
// re-anchors tempo without disturbing position at the instant of swap.
// Bus state itself is never carried: each Load rebuilds the bus table
// from scratch by construction, since Compile starts from an empty
// graph (§4.7 "buses are rebuilt from scratch").
//
// On failure the previous graph (if any) keeps running unchanged and
// the error is returned to the caller synchronously (§6, §7). Lexer and
// parser errors are a *dsl.CompileError carrying (line, column,
// message); errors found while compiling statements are a
// *dsl.CompileError with Line and Col 0, and a graph cycle is a
// *graph.CompileError, neither of which carries a source location.
func (e *Engine) Load(src string) error {
	prog, err := dsl.Compile(src, e.bank, e.voices, e.sampleRate)
	if err != nil {
		return err
	}

	now := time.Now()
	newClock := clock.New(now, defaultCps)
	if prev := e.state.Load(); prev != nil {
		newClock.Inherit(prev.clock)
	}
	if prog.InitialCps != nil {
		newClock.SetTempo(now, *prog.InitialCps)
	}

	e.state.Store(&renderState{graph: prog.Graph, clock: newClock})
	e.diagnostics.reset()

	for _, cmd := range prog.Commands {
		e.Execute(cmd)
	}
	return nil
}

// Execute runs one control-surface command, whether it arrived as a
// parsed DSL command statement (from Load) or directly from the host's
// control surface (§5 "panic"/"hush"/..., §6 "control surface").
func (e *Engine) Execute(cmd dsl.Command) {
	now := time.Now()
	switch cmd.Name {
	case "hush":
		e.Hush()
	case "hushN":
		if len(cmd.Args) > 0 {
			e.HushN(int(cmd.Args[0]))
		}
	case "unhushN":
		if len(cmd.Args) > 0 {
			e.UnhushN(int(cmd.Args[0]))
		}
	case "panic":
		e.Panic()
	case "resetCycles":
		e.ResetCycles(now)
	case "setCycle":
		if len(cmd.Args) > 0 {
			e.SetCycle(now, rational.FromFloat64(cmd.Args[0]))
		}
	case "nudge":
		if len(cmd.Args) > 0 {
			e.Nudge(rational.FromFloat64(cmd.Args[0]))
		}
	}
}

// Hush disables every output channel without touching active voices;
// they play out naturally (§5 "hush disables one or all output
// channels without killing voices").
func (e *Engine) Hush() {
	e.hushMask.Store(channelMask(e.numChannels))
}

// HushN disables a single output channel.
func (e *Engine) HushN(ch int) {
	if ch < 0 || ch >= e.numChannels {
		return
	}
	for {
		old := e.hushMask.Load()
		if e.hushMask.CompareAndSwap(old, old|(1<<uint(ch))) {
			return
		}
	}
}

// UnhushN re-enables a single output channel.
func (e *Engine) UnhushN(ch int) {
	if ch < 0 || ch >= e.numChannels {
		return
	}
	for {
		old := e.hushMask.Load()
		if e.hushMask.CompareAndSwap(old, old&^(1<<uint(ch))) {
			return
		}
	}
}

// Panic clears every active voice, resetting envelope state, and
// disables all output channels in the same stroke (§5 "'panic' ...
// clears all active voices, resets envelope state, and disables all
// output channels").
func (e *Engine) Panic() {
	e.voices.Panic()
	e.hushMask.Store(channelMask(e.numChannels))
	e.diagnostics.ClearFatal()
}

func channelMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}

// ResetCycles sets cycle_offset so the next computed position is 0
// (§5 "resetCycles").
func (e *Engine) ResetCycles(now time.Time) {
	if st := e.state.Load(); st != nil {
		st.clock.ResetCycles(now)
	}
}

// SetCycle sets cycle_offset so the next computed position is n (§5
// "setCycle n").
func (e *Engine) SetCycle(now time.Time, n rational.Fraction) {
	if st := e.state.Load(); st != nil {
		st.clock.SetCycle(now, n)
	}
}

// Nudge adds a cycles to cycle_offset (§5 "nudge a").
func (e *Engine) Nudge(a rational.Fraction) {
	if st := e.state.Load(); st != nil {
		st.clock.Nudge(a)
	}
}

// SetTempo changes cps without disturbing position at the instant of
// change (§6 "control surface: ... setTempo x").
func (e *Engine) SetTempo(now time.Time, cps rational.Fraction) {
	if st := e.state.Load(); st != nil {
		st.clock.SetTempo(now, cps)
	}
}

// RenderBlock is the audio-callback interface of §6: output holds
// channelCount-interleaved frames, sampleRate is the host's render
// rate, and now is the wall-clock instant this block starts at. It
// fills output with the live graph's render, or silence if no graph
// has loaded yet or the current one fails at render time (§7 "fatal:
// ... the core outputs silence and raises a fatal flag").
func (e *Engine) RenderBlock(output []float32, channelCount int, sampleRate float64, now time.Time) {
	for i := range output {
		output[i] = 0
	}
	if channelCount <= 0 {
		return
	}
	st := e.state.Load()
	if st == nil {
		return
	}
	frames := len(output) / channelCount
	if frames == 0 {
		return
	}

	e.ensureScratch(channelCount, frames)

	ctx := graph.Context{
		CyclePos:   st.clock.Position(now),
		BlockLen:   frames,
		SampleRate: sampleRate,
		Cps:        st.clock.Cps(),
		Tainted:    e.diagnostics.reportTainted,
	}
	if err := st.graph.RenderBlock(ctx, e.scratch[:channelCount]); err != nil {
		e.diagnostics.reportFatal(fmt.Sprintf("graph render failed: %v", err))
		return
	}

	mask := e.hushMask.Load()
	for ch := 0; ch < channelCount; ch++ {
		if mask&(1<<uint(ch)) != 0 {
			continue
		}
		src := e.scratch[ch]
		for f := 0; f < frames; f++ {
			output[f*channelCount+ch] = src[f]
		}
	}
}

func (e *Engine) ensureScratch(channelCount, frames int) {
	if len(e.scratch) < channelCount {
		e.scratch = make([][]float32, channelCount)
	}
	for ch := 0; ch < channelCount; ch++ {
		if len(e.scratch[ch]) != frames {
			e.scratch[ch] = make([]float32, frames)
		}
	}
}
