package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	BootID        string        `json:"boot_id,omitempty"`
	Listening     bool          `json:"listening"`
	InEvent       bool          `json:"in_event"`
	ReopenAtMs    *uint32       `json:"reopen_at_ms,omitempty"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"beep_counts"`
	LastBeep      *LastBeepJSON `json:"last_beep,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of beep counts.
type CountsJSON struct {
	Detected     int `json:"detected"`
	Replayed     int `json:"replayed"`
	TooShort     int `json:"too_short"`
	TooLong      int `json:"too_long"`
	GateReopened int `json:"gate_reopened"`
}

// LastBeepJSON is the JSON representation of the last completed beep.
type LastBeepJSON struct {
	Timestamp  string `json:"timestamp"`
	DurationMs uint32 `json:"duration_ms"`
	Peak       uint16 `json:"peak"`
	Verdict    string `json:"verdict"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SampleIntervalMs  uint32 `json:"sample_interval_ms"`
	Threshold         uint16 `json:"threshold"`
	MinBeepMs         uint32 `json:"min_beep_ms"`
	MaxBeepMs         uint32 `json:"max_beep_ms"`
	ReplayFreqHz      uint32 `json:"replay_freq_hz"`
	MicDisableDelayMs uint32 `json:"mic_disable_delay_ms"`
	HeartbeatMs       int64  `json:"heartbeat_ms"`
	Broker            string `json:"broker"`
	HTTPAddr          string `json:"http_addr"`
	Input             string `json:"input"`
	Output            string `json:"output"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Config
	inner := StatusInner{
		BootID:        snap.BootID,
		Listening:     !snap.Gate.Closed,
		InEvent:       snap.Event.InEvent,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: c.Broker},
		Counts: CountsJSON{
			Detected:     snap.Counts.Detected,
			Replayed:     snap.Counts.Replayed,
			TooShort:     snap.Counts.TooShort,
			TooLong:      snap.Counts.TooLong,
			GateReopened: snap.Counts.GateReopened,
		},
		Config: ConfigJSON{
			SampleIntervalMs:  c.SampleIntervalMs,
			Threshold:         c.Threshold,
			MinBeepMs:         c.MinBeepMs,
			MaxBeepMs:         c.MaxBeepMs,
			ReplayFreqHz:      c.ReplayFreqHz,
			MicDisableDelayMs: c.MicDisableDelayMs,
			HeartbeatMs:       c.HeartbeatMs,
			Broker:            c.Broker,
			HTTPAddr:          c.HTTPAddr,
			Input:             c.Input,
			Output:            c.Output,
		},
	}
	if snap.Gate.Closed {
		at := snap.Gate.ReopenAtMs
		inner.ReopenAtMs = &at
	}
	if lb := snap.LastBeep; lb != nil {
		inner.LastBeep = &LastBeepJSON{
			Timestamp:  lb.At.UTC().Format(time.RFC3339Nano),
			DurationMs: lb.Beep.DurationMs,
			Peak:       lb.Beep.Peak,
			Verdict:    string(lb.Beep.Verdict),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
