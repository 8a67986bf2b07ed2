// Package sampling implements the sample bank and polyphonic voice
// manager (§3 "Voice", "Sample bank", §4.6). It generalizes the
// teacher's single fixed array of 31 MOD samples, each mixed by one
// dedicated mono/stereo channel struct (player.go's channel,
// mixer_scalar.go's per-sample linear mixing loop), into a
// content-addressed bank of named, reference-counted buffers played by
// a dynamically-triggered, fixed-capacity voice pool.
package sampling

import "sync"

// Buffer is an immutable, shared sample — one "instrument" sample from
// the bank. It is never copied; voices and bank entries hold the same
// pointer (Go's garbage collector is the reference count: a buffer is
// reclaimed once no voice or bank entry points to it anymore, which is
// the idiomatic replacement for manual atomic refcounting here).
type Buffer struct {
	Name     string
	Channels int
	Frames   int
	// Data holds interleaved sample frames, Frames*Channels long,
	// already decoded to float32 in [-1, 1] (WAV/file decoding is an
	// external collaborator, §1 Non-goals: "WAV I/O").
	Data []float32
	// LoopStart/LoopEnd are frame indices; LoopEnd <= LoopStart means
	// the buffer does not loop.
	LoopStart, LoopEnd int
}

func (b *Buffer) frame(i int, ch int) float32 {
	idx := i*b.Channels + ch
	if idx < 0 || idx >= len(b.Data) {
		return 0
	}
	return b.Data[idx]
}

// mono returns the buffer's i'th frame downmixed to mono.
func (b *Buffer) mono(i int) float32 {
	if b.Channels <= 1 {
		return b.frame(i, 0)
	}
	var sum float32
	for ch := 0; ch < b.Channels; ch++ {
		sum += b.frame(i, ch)
	}
	return sum / float32(b.Channels)
}

func (b *Buffer) loops() bool { return b.LoopEnd > b.LoopStart }

// Bank is a content-addressed directory of sample buffers, `name:N`
// selecting index N modulo the named slice's length (§3 "Sample
// bank"). It is safe for concurrent Load/Resolve.
type Bank struct {
	mu      sync.RWMutex
	entries map[string][]*Buffer
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{entries: make(map[string][]*Buffer)}
}

// Load installs (or replaces) the ordered list of buffers for name.
func (b *Bank) Load(name string, buffers []*Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[name] = buffers
}

// Resolve returns the index'th buffer for name, wrapping modulo the
// slice length, per §6 "resolve(name, index) -> shared buffer handle".
func (b *Bank) Resolve(name string, index int) (*Buffer, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	list, ok := b.entries[name]
	if !ok || len(list) == 0 {
		return nil, false
	}
	i := index % len(list)
	if i < 0 {
		i += len(list)
	}
	return list[i], true
}

// Names returns every loaded sample name, used by diagnostics and the
// inspector CLI.
func (b *Bank) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.entries))
	for n := range b.entries {
		names = append(names, n)
	}
	return names
}
