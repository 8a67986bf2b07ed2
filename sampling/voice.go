package sampling

import (
	"math"

	"github.com/phonon-audio/phonon/graph"
)

// LoopMode selects whether a triggered voice honors its buffer's loop
// points or plays once and stops at end of data.
type LoopMode int

const (
	LoopOff LoopMode = iota
	LoopOn
)

type voiceStage int

const (
	stageFree voiceStage = iota
	stageAttack
	stageSustain
	stageRelease
	stageCutFade // forced fast fade from a cut-group steal, overrides Release
)

// silenceThreshold is the envelope level below which a releasing voice
// is considered inaudible and eligible for immediate reclaim (§4.6
// allocation order step 1).
const silenceThreshold = 1e-4

// cutFadeSeconds is the linear cut-group fade-out duration (§4.6 "a
// short linear ramp (1-3 ms)").
const cutFadeSeconds = 0.002

// voice is one polyphonic sample-playback instance (§3 "Voice"). It is
// a plain value, held by the pool; nothing here escapes to the heap
// per-trigger.
type voice struct {
	buf *Buffer

	pos   float64 // fractional frame position
	speed float64 // frames advanced per sample; negative plays backward

	gain       float32
	panL, panR float32
	sourceNode graph.NodeID
	cutGroup   int
	loop       LoopMode
	generation uint64 // monotonic trigger order, for "oldest" stealing

	stage       voiceStage
	env         float64
	attackRate  float64 // envelope units per sample during attack
	releaseRate float64 // envelope units per sample during release/cutFade

	startOffset int // samples to wait silently before the voice begins (sub-block trigger offset)
}

func (v *voice) active() bool { return v.stage != stageFree }

// panGains implements the equal-power (constant-power) pan law over
// pan in [-1, 1] (§4.6 "Panning uses equal-power law"): at center the
// two gains sum above unity (the usual +3 dB center boost of a
// constant-power law), at the extremes only one channel contributes.
func panGains(pan float32) (left, right float32) {
	if pan < -1 {
		pan = -1
	}
	if pan > 1 {
		pan = 1
	}
	theta := float64(pan+1) * math.Pi / 4
	return float32(math.Cos(theta)), float32(math.Sin(theta))
}

// trigger (re)initializes a pool slot as the given request, starting
// its attack stage. sampleRate is needed to convert Attack/Release
// seconds into per-sample envelope rates.
func (v *voice) trigger(req TriggerRequest, sampleRate float64, generation uint64) {
	left, right := panGains(req.Pan)
	*v = voice{
		buf:        req.Buffer,
		pos:        0,
		speed:      req.Speed,
		gain:       req.Gain,
		panL:       left,
		panR:       right,
		sourceNode: req.SourceNode,
		cutGroup:    req.CutGroup,
		loop:        req.LoopMode,
		generation:  generation,
		stage:       stageAttack,
		startOffset: req.SampleOffset,
	}
	if v.speed < 0 {
		v.pos = float64(req.Buffer.Frames - 1)
	}
	v.attackRate = rateFor(req.Attack, sampleRate)
	v.releaseRate = rateFor(req.Release, sampleRate)
}

func rateFor(seconds, sampleRate float64) float64 {
	if seconds <= 0 {
		return 1 // reach target within one sample
	}
	return 1 / (seconds * sampleRate)
}

// beginCutFade forces a fast linear fade-out, used when a new trigger
// steals this voice's cut group (§4.6).
func (v *voice) beginCutFade(sampleRate float64) {
	if v.stage == stageFree {
		return
	}
	v.stage = stageCutFade
	v.releaseRate = rateFor(cutFadeSeconds, sampleRate)
}

// renderSample advances the voice by one sample and returns its
// contribution to the mono source-node mix (pre-panned per §4.6, but
// summed to mono since a sample-pattern node's output is a single
// buffer — see DESIGN.md for the stereo-routing rationale).
func (v *voice) renderSample() float32 {
	if v.stage == stageFree {
		return 0
	}
	if v.startOffset > 0 {
		v.startOffset--
		return 0
	}

	s0 := v.buf.mono(int(math.Floor(v.pos)))
	s1 := v.buf.mono(int(math.Floor(v.pos)) + 1)
	frac := float32(v.pos - math.Floor(v.pos))
	sample := s0 + (s1-s0)*frac

	switch v.stage {
	case stageAttack:
		v.env += v.attackRate
		if v.env >= 1 {
			v.env = 1
			v.stage = stageSustain
		}
	case stageSustain:
		v.env = 1
	case stageRelease, stageCutFade:
		v.env -= v.releaseRate
		if v.env <= 0 {
			v.env = 0
			v.stage = stageFree
		}
	}

	out := sample * float32(v.env) * v.gain * (v.panL + v.panR)

	v.pos += v.speed
	v.advanceLoop()
	return out
}

func (v *voice) advanceLoop() {
	if v.stage == stageFree {
		return
	}
	if v.speed >= 0 {
		end := float64(v.buf.Frames)
		if v.buf.loops() && v.loop == LoopOn {
			loopEnd := float64(v.buf.LoopEnd)
			if v.pos >= loopEnd {
				v.pos = float64(v.buf.LoopStart) + math.Mod(v.pos-loopEnd, loopEnd-float64(v.buf.LoopStart))
			}
		} else if v.pos >= end {
			v.release()
		}
	} else {
		if v.buf.loops() && v.loop == LoopOn {
			loopStart := float64(v.buf.LoopStart)
			if v.pos < loopStart {
				span := float64(v.buf.LoopEnd) - loopStart
				v.pos = float64(v.buf.LoopEnd) - math.Mod(loopStart-v.pos, span)
			}
		} else if v.pos < 0 {
			v.release()
		}
	}
}

// release moves a still-sounding voice into its release stage, e.g.
// when non-looped sample data runs out.
func (v *voice) release() {
	if v.stage == stageFree || v.stage == stageRelease || v.stage == stageCutFade {
		return
	}
	v.stage = stageRelease
}
