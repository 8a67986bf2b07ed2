package engine

import (
	"sync"
	"time"

	"github.com/phonon-audio/phonon/graph"
)

// Diagnostic is one runtime fault surfaced to the editor (§7 "runtime
// errors ... surface through a diagnostics channel (latest-wins)").
type Diagnostic struct {
	Time    time.Time
	NodeID  graph.NodeID // empty for a fatal, non-node-specific diagnostic
	Fatal   bool
	Message string
}

// Diagnostics is the latest-wins fault reporter: at most one entry per
// tainted node id is kept (a later fault for the same node replaces the
// earlier one), plus the most recent fatal fault if any. The editor
// polls it; nothing in the audio path blocks on a reader (§7
// "propagation policy").
type Diagnostics struct {
	mu      sync.Mutex
	tainted map[graph.NodeID]Diagnostic
	fatal   *Diagnostic
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{tainted: make(map[graph.NodeID]Diagnostic)}
}

// reportTainted records a non-finite-sample fault for id (§7 "a node
// receives a non-finite input ... sets a latched tainted flag"). Wired
// as a graph.Context.Tainted callback.
func (d *Diagnostics) reportTainted(id graph.NodeID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tainted[id] = Diagnostic{Time: time.Now(), NodeID: id, Message: "non-finite output clamped to silence"}
}

// reportFatal records graph corruption discovered at render time (§7
// "graph corruption ... raises a fatal flag").
func (d *Diagnostics) reportFatal(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	diag := Diagnostic{Time: time.Now(), Fatal: true, Message: msg}
	d.fatal = &diag
}

// Poll returns a snapshot of every outstanding diagnostic: the latest
// fatal fault (if any) followed by the latest tainted-node faults. It
// does not clear tainted entries — a node stays flagged until a fresh
// render replaces or the engine is reloaded.
func (d *Diagnostics) Poll() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Diagnostic, 0, len(d.tainted)+1)
	if d.fatal != nil {
		out = append(out, *d.fatal)
	}
	for _, diag := range d.tainted {
		out = append(out, diag)
	}
	return out
}

// ClearFatal acknowledges the current fatal fault, letting the engine
// resume reporting clean renders.
func (d *Diagnostics) ClearFatal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fatal = nil
}

// reset drops every tracked fault, used when a fresh graph replaces the
// faulting one on a successful reload.
func (d *Diagnostics) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tainted = make(map[graph.NodeID]Diagnostic)
	d.fatal = nil
}
