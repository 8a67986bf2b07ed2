package sampling

import (
	"github.com/phonon-audio/phonon/graph"
)

// TriggerRequest is the record a sample-pattern node hands the voice
// manager when a pattern event fires (§4.6, §6 "Voice-trigger
// interface").
type TriggerRequest struct {
	SourceNode   graph.NodeID
	Buffer       *Buffer
	SampleOffset int // sample index within the current block the trigger lands on
	Gain         float32
	Pan          float32 // -1 (left) .. +1 (right)
	Speed        float64 // playback rate; negative plays the buffer backward
	Attack       float64 // seconds
	Release      float64 // seconds
	CutGroup     int     // 0 means "no cut group"
	LoopMode     LoopMode
}

// Manager is the fixed-capacity polyphonic voice pool (§4.6). Trigger
// is called from the audio thread's sample-pattern node processing;
// Render is called once per source node per block to sum that node's
// active voices into its output buffer.
type Manager struct {
	sampleRate float64
	pool       []voice
	generation uint64
}

// NewManager creates a pool of the given fixed capacity (typical 64 to
// 4096, §4.6).
func NewManager(capacity int, sampleRate float64) *Manager {
	return &Manager{sampleRate: sampleRate, pool: make([]voice, capacity)}
}

// Capacity returns the pool's fixed voice count.
func (m *Manager) Capacity() int { return len(m.pool) }

// ActiveCount returns how many voices are currently sounding, used by
// diagnostics.
func (m *Manager) ActiveCount() int {
	n := 0
	for i := range m.pool {
		if m.pool[i].active() {
			n++
		}
	}
	return n
}

// Trigger allocates a voice for req, applying the cut-group fade and
// stealing policy of §4.6. Missing buffers are silently dropped per §7
// ("Missing samples are silently dropped").
func (m *Manager) Trigger(req TriggerRequest) {
	if req.Buffer == nil || req.Buffer.Frames == 0 {
		return
	}
	if req.CutGroup != 0 {
		m.fadeCutGroup(req.SourceNode, req.CutGroup)
	}

	idx := m.allocate(req)
	m.generation++
	m.pool[idx].trigger(req, m.sampleRate, m.generation)
}

// fadeCutGroup forces every active voice sharing req's source node and
// cut group into a fast linear fade (§4.6 cut groups).
func (m *Manager) fadeCutGroup(sourceNode graph.NodeID, cutGroup int) {
	for i := range m.pool {
		v := &m.pool[i]
		if v.active() && v.sourceNode == sourceNode && v.cutGroup == cutGroup {
			v.beginCutFade(m.sampleRate)
		}
	}
}

// allocate returns a pool index for req, per the §4.6 allocation
// order: (1) any free or already-silent-releasing voice, (2) oldest
// voice sharing the request's cut group, (3) oldest voice sharing the
// request's source node, (4) oldest voice overall.
func (m *Manager) allocate(req TriggerRequest) int {
	for i := range m.pool {
		if !m.pool[i].active() {
			return i
		}
	}
	for i := range m.pool {
		if m.pool[i].stage == stageRelease && m.pool[i].env <= silenceThreshold {
			return i
		}
	}

	if req.CutGroup != 0 {
		if idx, ok := m.oldestMatching(func(v *voice) bool { return v.cutGroup == req.CutGroup }); ok {
			return idx
		}
	}
	if idx, ok := m.oldestMatching(func(v *voice) bool { return v.sourceNode == req.SourceNode }); ok {
		return idx
	}
	idx, _ := m.oldestMatching(func(*voice) bool { return true })
	return idx
}

func (m *Manager) oldestMatching(pred func(*voice) bool) (int, bool) {
	best := -1
	var bestGen uint64
	for i := range m.pool {
		v := &m.pool[i]
		if !pred(v) {
			continue
		}
		if best == -1 || v.generation < bestGen {
			best = i
			bestGen = v.generation
		}
	}
	return best, best != -1
}

// Render zeroes out and sums every active voice belonging to
// sourceNode into it, advancing each voice by len(out) samples. It is
// called once per block by the sample-pattern node that owns
// sourceNode (§4.5 step 5).
func (m *Manager) Render(sourceNode graph.NodeID, out []float32) {
	for i := range out {
		out[i] = 0
	}
	for i := range m.pool {
		v := &m.pool[i]
		if !v.active() || v.sourceNode != sourceNode {
			continue
		}
		for s := range out {
			out[s] += v.renderSample()
		}
	}
}

// Panic immediately silences every voice (§5 "panic... clears all
// active voices").
func (m *Manager) Panic() {
	for i := range m.pool {
		m.pool[i] = voice{}
	}
}
