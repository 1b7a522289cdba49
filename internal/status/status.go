// Package status provides a thread-safe status tracker for the beep-relay daemon.
// It is written by the sampling loop and read by HTTP handlers and heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/beep-relay/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	SampleIntervalMs  uint32
	Threshold         uint16
	MinBeepMs         uint32
	MaxBeepMs         uint32
	ReplayFreqHz      uint32
	MicDisableDelayMs uint32
	HeartbeatMs       int64
	Broker            string
	HTTPAddr          string
	Input             string
	Output            string
}

// LastBeep is the most recent completed beep and the wall time it ended.
type LastBeep struct {
	At   time.Time
	Beep logic.Beep
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Event         logic.EventState
	Gate          logic.GateState
	Counts        logic.Counts
	LastBeep      *LastBeep
	BootID        string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, boot ID and config.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			BootID:    bootID,
			Config:    cfg,
		},
	}
}

// Update sets detector and gate state plus outcome counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(ev logic.EventState, gate logic.GateState, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Event = ev
	t.snap.Gate = gate
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordBeep stores the most recent completed beep.
func (t *Tracker) RecordBeep(at time.Time, beep logic.Beep) {
	t.mu.Lock()
	t.snap.LastBeep = &LastBeep{At: at, Beep: beep}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastBeep != nil {
		lb := *s.LastBeep
		s.LastBeep = &lb
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
