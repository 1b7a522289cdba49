// Package logic contains the pure beep detection and gating state machines.
// This package has NO external dependencies (no GPIO, PWM, MQTT, OS, or sleeping).
// Time is always injected as a millisecond counter.
package logic

import "time"

// Edge is the threshold crossing reported by a single observation.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRise      // reading crossed above threshold while idle
	EdgeFall      // reading fell to or below threshold while in an event
)

func (e Edge) String() string {
	switch e {
	case EdgeRise:
		return "RISE"
	case EdgeFall:
		return "FALL"
	default:
		return "NONE"
	}
}

// Verdict is the policy outcome for a completed beep.
type Verdict string

const (
	VerdictValid    Verdict = "VALID"
	VerdictTooShort Verdict = "TOO_SHORT"
	VerdictTooLong  Verdict = "TOO_LONG"
)

// EventState is the detector's view of the input signal.
type EventState struct {
	// InEvent is false when idle.
	InEvent bool
	// StartMs is the clock value of the rising edge (only meaningful when InEvent).
	StartMs uint32
}

// GateState is the sampling gate. Closed only after a valid event.
type GateState struct {
	Closed     bool
	ReopenAtMs uint32
}

// Observation is the result of feeding one sample to the detector.
type Observation struct {
	Edge      Edge
	Amplitude uint16
	// Duration and Peak are set only on EdgeFall.
	DurationMs uint32
	Peak       uint16
}

// Beep is a completed, classified event.
type Beep struct {
	EndMs      uint32
	DurationMs uint32
	Peak       uint16
	Verdict    Verdict
}

// Counts tracks the number of each outcome since startup.
type Counts struct {
	Detected     int
	Replayed     int
	TooShort     int
	TooLong      int
	GateReopened int
}

// Add records a classified beep.
func (c *Counts) Add(v Verdict) {
	c.Detected++
	switch v {
	case VerdictValid:
		c.Replayed++
	case VerdictTooShort:
		c.TooShort++
	case VerdictTooLong:
		c.TooLong++
	}
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
