package sampling

import "testing"

func testBuffer(frames int) *Buffer {
	data := make([]float32, frames)
	for i := range data {
		data[i] = 1
	}
	return &Buffer{Name: "t", Channels: 1, Frames: frames, Data: data}
}

func TestBankResolveWrapsIndex(t *testing.T) {
	b := NewBank()
	b1, b2 := testBuffer(10), testBuffer(20)
	b.Load("bd", []*Buffer{b1, b2})

	got, ok := b.Resolve("bd", 2)
	if !ok || got != b1 {
		t.Errorf("expected index 2 to wrap to buffer 0, got %v ok=%v", got, ok)
	}
}

func TestBankResolveMissing(t *testing.T) {
	b := NewBank()
	if _, ok := b.Resolve("missing", 0); ok {
		t.Error("expected missing name to report not-ok")
	}
}

func TestTriggerProducesAudio(t *testing.T) {
	m := NewManager(8, 48000)
	m.Trigger(TriggerRequest{SourceNode: "n", Buffer: testBuffer(100), Gain: 1, Attack: 0, Release: 1, Speed: 1})

	out := make([]float32, 64)
	m.Render("n", out)

	foundNonZero := false
	for _, v := range out {
		if v != 0 {
			foundNonZero = true
			break
		}
	}
	if !foundNonZero {
		t.Error("expected triggered voice to produce non-zero audio")
	}
}

func TestSampleOffsetDelaysOnset(t *testing.T) {
	m := NewManager(8, 48000)
	m.Trigger(TriggerRequest{SourceNode: "n", Buffer: testBuffer(100), Gain: 1, Attack: 0, Release: 1, Speed: 1, SampleOffset: 10})

	out := make([]float32, 20)
	m.Render("n", out)

	for i := 0; i < 10; i++ {
		if out[i] != 0 {
			t.Errorf("sample %d: expected silence before trigger offset, got %v", i, out[i])
		}
	}
	if out[10] == 0 {
		t.Error("expected onset exactly at the sample offset")
	}
}

func TestCapacityOverflowSteals(t *testing.T) {
	m := NewManager(2, 48000)
	buf := testBuffer(1000)
	m.Trigger(TriggerRequest{SourceNode: "n", Buffer: buf, Gain: 1, Release: 1, Speed: 1})
	m.Trigger(TriggerRequest{SourceNode: "n", Buffer: buf, Gain: 1, Release: 1, Speed: 1})
	if m.ActiveCount() != 2 {
		t.Fatalf("expected 2 active voices, got %d", m.ActiveCount())
	}
	// Third trigger at capacity must steal the oldest rather than being dropped.
	m.Trigger(TriggerRequest{SourceNode: "n", Buffer: buf, Gain: 1, Release: 1, Speed: 1})
	if m.ActiveCount() != 2 {
		t.Fatalf("expected stealing to keep active count at capacity 2, got %d", m.ActiveCount())
	}
}

func TestCutGroupFadesPreviousVoice(t *testing.T) {
	m := NewManager(8, 48000)
	buf := testBuffer(10000)
	m.Trigger(TriggerRequest{SourceNode: "n", Buffer: buf, Gain: 1, Release: 1, Speed: 1, CutGroup: 5})

	out := make([]float32, 8)
	m.Render("n", out) // advance past attack so the voice is sounding

	m.Trigger(TriggerRequest{SourceNode: "n", Buffer: buf, Gain: 1, Release: 1, Speed: 1, CutGroup: 5})

	foundCutFade := false
	for i := range m.pool {
		if m.pool[i].stage == stageCutFade {
			foundCutFade = true
		}
	}
	if !foundCutFade {
		t.Error("expected the earlier cut-group voice to enter a forced fade")
	}
}

func TestPanGainsEqualPower(t *testing.T) {
	l, r := panGains(-1)
	if l < 0.99 || r > 0.01 {
		t.Errorf("hard left pan: expected full left / zero right, got l=%v r=%v", l, r)
	}
	l, r = panGains(1)
	if r < 0.99 || l > 0.01 {
		t.Errorf("hard right pan: expected full right / zero left, got l=%v r=%v", l, r)
	}
	l, r = panGains(0)
	if l < 0.7 || r < 0.7 {
		t.Errorf("center pan: expected both channels near sqrt(2)/2, got l=%v r=%v", l, r)
	}
}

func TestPanicClearsVoices(t *testing.T) {
	m := NewManager(4, 48000)
	m.Trigger(TriggerRequest{SourceNode: "n", Buffer: testBuffer(1000), Gain: 1, Release: 1, Speed: 1})
	m.Panic()
	if m.ActiveCount() != 0 {
		t.Errorf("expected panic to clear all voices, got %d active", m.ActiveCount())
	}
}

func TestMissingBufferDropsTriggerSilently(t *testing.T) {
	m := NewManager(4, 48000)
	m.Trigger(TriggerRequest{SourceNode: "n", Buffer: nil})
	if m.ActiveCount() != 0 {
		t.Error("expected a nil-buffer trigger to be silently dropped")
	}
}
