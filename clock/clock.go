// Package clock implements the wall-clock-anchored global clock (§3
// "Global clock"). The teacher's Player tracked position purely by
// counting samples (samplesPerTick/tickSamplePos accumulated every
// GenerateAudio call); that scheme loses rhythmic position across any
// gap the audio callback doesn't itself observe (a host underrun, a
// paused callback). Per the REDESIGN FLAGS note on wall-clock
// invariance, position here is always derived from a real timestamp
// instead of an accumulated sample count, so a resume after a stall
// lands exactly where an uninterrupted schedule would have put it.
package clock

import (
	"sync"
	"time"

	"github.com/phonon-audio/phonon/rational"
)

// Clock computes cycle position as cps * (now - sessionStart) +
// cycleOffset. sessionStart, cps and cycleOffset are the only mutable
// state, touched only between blocks or by an explicit command (§5
// "Clock: ... written only between blocks or by explicit commands").
type Clock struct {
	mu sync.Mutex

	sessionStart time.Time
	cycleOffset  rational.Fraction
	cps          rational.Fraction
}

// New creates a Clock anchored to the given start time with the given
// initial cycles-per-second.
func New(start time.Time, cps rational.Fraction) *Clock {
	return &Clock{sessionStart: start, cps: cps}
}

// Position returns the cycle position at wall-clock time now.
func (c *Clock) Position(now time.Time) rational.Fraction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked(now)
}

func (c *Clock) positionLocked(now time.Time) rational.Fraction {
	elapsed := rational.FromFloat64(now.Sub(c.sessionStart).Seconds())
	return elapsed.Mul(c.cps).Add(c.cycleOffset)
}

// Cps returns the current cycles-per-second.
func (c *Clock) Cps() rational.Fraction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cps
}

// SetTempo changes cps without disturbing the cycle position at the
// instant of the change: it re-anchors sessionStart/cycleOffset so that
// Position(now) is continuous across the tempo change (§8 "a block that
// straddles a tempo change: tempo applies at block boundaries").
func (c *Clock) SetTempo(now time.Time, cps rational.Fraction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos := c.positionLocked(now)
	c.sessionStart = now
	c.cycleOffset = pos
	c.cps = cps
}

// ResetCycles sets cycleOffset so that Position(now) becomes exactly 0
// (§5 "resetCycles").
func (c *Clock) ResetCycles(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionStart = now
	c.cycleOffset = rational.FromInt(0)
}

// SetCycle sets cycleOffset so that Position(now) becomes exactly n
// (§5 "setCycle n").
func (c *Clock) SetCycle(now time.Time, n rational.Fraction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionStart = now
	c.cycleOffset = n
}

// Nudge adds a cycles to cycleOffset (§5 "nudge a"), shifting future
// positions without re-anchoring sessionStart.
func (c *Clock) Nudge(a rational.Fraction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycleOffset = c.cycleOffset.Add(a)
}

// SessionStart and CycleOffset expose the anchor pair a live-reload
// hands to the next graph (§4.7 "the new graph inherits the old graph's
// session_start and cycle_offset").
func (c *Clock) SessionStart() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionStart
}

func (c *Clock) CycleOffset() rational.Fraction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycleOffset
}

// Inherit copies another clock's anchor (session start, cycle offset,
// cps) into c, used by the engine when a reload hands rhythmic state
// to the new graph without resetting it.
func (c *Clock) Inherit(prev *Clock) {
	prev.mu.Lock()
	start, offset, cps := prev.sessionStart, prev.cycleOffset, prev.cps
	prev.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionStart = start
	c.cycleOffset = offset
	c.cps = cps
}
