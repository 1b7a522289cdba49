// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/beep-relay/internal/logic"
)

// Topic is the MQTT topic for beep events.
const Topic = "alerts/beep-relay/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "alerts/beep-relay/system"

// Beep event names derived from the policy verdict.
const (
	EventReplayed     = "REPLAYED"
	EventIgnoredShort = "IGNORED_SHORT"
	EventIgnoredLong  = "IGNORED_LONG"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a beep event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event is a completed beep, stamped with wall-clock time.
type Event struct {
	Timestamp    time.Time
	Beep         logic.Beep
	ReplayFreqHz uint32
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT", "FAULT"
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Beep BeepPayload `json:"beep"`
}

// BeepPayload contains the beep event details.
type BeepPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	DurationMs uint32 `json:"duration_ms"`
	Peak       uint16 `json:"peak"`
	ReplayHz   uint32 `json:"replay_hz,omitempty"`
}

// EventName maps a verdict to its published event name.
func EventName(v logic.Verdict) string {
	switch v {
	case logic.VerdictValid:
		return EventReplayed
	case logic.VerdictTooShort:
		return EventIgnoredShort
	default:
		return EventIgnoredLong
	}
}

// FormatPayload creates the JSON payload for a beep event.
// replay_hz is only present for replayed beeps.
func FormatPayload(event Event) ([]byte, error) {
	p := BeepPayload{
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		Event:      EventName(event.Beep.Verdict),
		DurationMs: event.Beep.DurationMs,
		Peak:       event.Beep.Peak,
	}
	if event.Beep.Verdict == logic.VerdictValid {
		p.ReplayHz = event.ReplayFreqHz
	}
	return json.Marshal(Payload{Beep: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events such as the LWT that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// WillPayload is the retained last-will message the broker publishes if the
// daemon disappears without a clean SHUTDOWN.
func WillPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "CONNECTION_LOST"})
	return data
}
