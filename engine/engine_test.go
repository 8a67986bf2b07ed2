package engine

import (
	"testing"
	"time"

	"github.com/phonon-audio/phonon/sampling"
)

func testBank() *sampling.Bank {
	b := sampling.NewBank()
	data := make([]float32, 200)
	for i := range data {
		data[i] = 1
	}
	b.Load("bd", []*sampling.Buffer{{Name: "bd", Channels: 1, Frames: 200, Data: data}})
	return b
}

func newTestEngine() *Engine {
	voices := sampling.NewManager(8, 48000)
	return New(testBank(), voices, 48000, 2)
}

func TestRenderBlockSilentBeforeLoad(t *testing.T) {
	e := newTestEngine()
	out := make([]float32, 256)
	for i := range out {
		out[i] = 1 // poison with non-silence so a no-op render is detectable
	}
	e.RenderBlock(out, 2, 48000, time.Now())
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence at %d before any Load, got %v", i, v)
		}
	}
}

func TestLoadThenRenderProducesOutput(t *testing.T) {
	e := newTestEngine()
	if err := e.Load("~d1 : s \"bd\"\nout: ~d1"); err != nil {
		t.Fatal(err)
	}
	out := make([]float32, 256)
	e.RenderBlock(out, 2, 48000, time.Now())

	nonZero := false
	for _, v := range out {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected at least one non-silent sample after loading a program with a triggered sample")
	}
}

func TestLoadFailureKeepsPreviousGraphRunning(t *testing.T) {
	e := newTestEngine()
	if err := e.Load("~d1 : s \"bd\"\nout: ~d1"); err != nil {
		t.Fatal(err)
	}
	beforeState := e.state.Load()

	if err := e.Load("out: ~nosuchbus"); err == nil {
		t.Fatal("expected a compile error referencing the undefined bus")
	}

	afterState := e.state.Load()
	if afterState != beforeState {
		t.Fatal("expected the previous graph to keep running after a failed reload")
	}
}

func TestHushSilencesOutputWithoutStoppingVoices(t *testing.T) {
	e := newTestEngine()
	if err := e.Load("~d1 : s \"bd\"\nout: ~d1"); err != nil {
		t.Fatal(err)
	}
	e.Hush()

	out := make([]float32, 256)
	e.RenderBlock(out, 2, 48000, time.Now())
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected channel output silenced by Hush, got %v at %d", v, i)
		}
	}
	if e.voices.ActiveCount() == 0 {
		t.Fatal("expected hush to leave triggered voices active")
	}
}

func TestHushNTargetsOneChannel(t *testing.T) {
	e := newTestEngine()
	if err := e.Load("~d1 : s \"bd\"\nout: ~d1\nout1: ~d1"); err != nil {
		t.Fatal(err)
	}
	e.HushN(0)

	out := make([]float32, 256)
	e.RenderBlock(out, 2, 48000, time.Now())
	for f := 0; f < 128; f++ {
		if out[f*2] != 0 {
			t.Fatalf("expected channel 0 silenced, got %v at frame %d", out[f*2], f)
		}
	}
	nonZero := false
	for f := 0; f < 128; f++ {
		if out[f*2+1] != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected channel 1 to keep producing output")
	}

	e.UnhushN(0)
	out2 := make([]float32, 256)
	e.RenderBlock(out2, 2, 48000, time.Now())
	nonZero = false
	for f := 0; f < 128; f++ {
		if out2[f*2] != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected channel 0 to resume producing output after UnhushN")
	}
}

func TestPanicClearsVoicesAndHushesOutput(t *testing.T) {
	e := newTestEngine()
	if err := e.Load("~d1 : s \"bd\"\nout: ~d1"); err != nil {
		t.Fatal(err)
	}
	e.Panic()
	if e.voices.ActiveCount() != 0 {
		t.Fatal("expected Panic to clear every active voice")
	}
	out := make([]float32, 256)
	e.RenderBlock(out, 2, 48000, time.Now())
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected Panic to disable output, got %v at %d", v, i)
		}
	}
}

func TestReloadInheritsClockPosition(t *testing.T) {
	e := newTestEngine()
	if err := e.Load("tempo: 1\n~d1 : s \"bd\"\nout: ~d1"); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	e.SetCycle(now, e.state.Load().clock.Position(now))
	pos := e.state.Load().clock.Position(now)

	if err := e.Load("~d1 : s \"bd\" # gain 0.5\nout: ~d1"); err != nil {
		t.Fatal(err)
	}
	newPos := e.state.Load().clock.Position(now)
	diff := newPos.Float64() - pos.Float64()
	if diff < -0.01 || diff > 0.01 {
		t.Fatalf("expected cycle position to carry across reload, got delta %v", diff)
	}
}

func TestProgramLevelCommandsRunOnLoad(t *testing.T) {
	e := newTestEngine()
	if err := e.Load("~d1 : s \"bd\"\nout: ~d1\nhushN 0"); err != nil {
		t.Fatal(err)
	}
	if e.hushMask.Load()&1 == 0 {
		t.Fatal("expected the in-source hushN command to be applied on Load")
	}
}
