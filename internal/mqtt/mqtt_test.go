package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/beep-relay/internal/logic"
)

func testEvent(v logic.Verdict, d uint32) Event {
	return Event{
		Timestamp:    time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
		Beep:         logic.Beep{EndMs: 1000, DurationMs: d, Peak: 2600, Verdict: v},
		ReplayFreqHz: 300,
	}
}

func TestFormatPayloadReplayed(t *testing.T) {
	data, err := FormatPayload(testEvent(logic.VerdictValid, 80))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"beep":{"timestamp":"2026-01-15T10:30:00Z","event":"REPLAYED","duration_ms":80,"peak":2600,"replay_hz":300}}`
	if string(data) != want {
		t.Errorf("payload mismatch:\ngot:  %s\nwant: %s", data, want)
	}
}

func TestFormatPayloadIgnoredOmitsFrequency(t *testing.T) {
	tests := []struct {
		verdict logic.Verdict
		d       uint32
		event   string
	}{
		{logic.VerdictTooShort, 20, EventIgnoredShort},
		{logic.VerdictTooLong, 4000, EventIgnoredLong},
	}
	for _, tt := range tests {
		data, err := FormatPayload(testEvent(tt.verdict, tt.d))
		if err != nil {
			t.Fatal(err)
		}
		var p Payload
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatal(err)
		}
		if p.Beep.Event != tt.event {
			t.Errorf("%s: event got %q, want %q", tt.verdict, p.Beep.Event, tt.event)
		}
		if p.Beep.DurationMs != tt.d {
			t.Errorf("%s: duration got %d, want %d", tt.verdict, p.Beep.DurationMs, tt.d)
		}
		if p.Beep.ReplayHz != 0 {
			t.Errorf("%s: replay_hz should be omitted, got %d", tt.verdict, p.Beep.ReplayHz)
		}
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ev := testEvent(logic.VerdictValid, 80)
	ev.Timestamp = time.Date(2026, 1, 15, 11, 30, 0, 250_000_000, loc)

	data, err := FormatPayload(ev)
	if err != nil {
		t.Fatal(err)
	}
	var p Payload
	json.Unmarshal(data, &p)
	if p.Beep.Timestamp != "2026-01-15T10:30:00.25Z" {
		t.Errorf("timestamp: got %s", p.Beep.Timestamp)
	}
}

func TestEventName(t *testing.T) {
	tests := map[logic.Verdict]string{
		logic.VerdictValid:    "REPLAYED",
		logic.VerdictTooShort: "IGNORED_SHORT",
		logic.VerdictTooLong:  "IGNORED_LONG",
	}
	for v, want := range tests {
		if got := EventName(v); got != want {
			t.Errorf("EventName(%s) = %s, want %s", v, got, want)
		}
	}
}

func TestTopics(t *testing.T) {
	if Topic != "alerts/beep-relay/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "alerts/beep-relay/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}
	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"system":{"timestamp":"2026-02-01T08:00:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(data) != want {
		t.Errorf("payload mismatch:\ngot:  %s\nwant: %s", data, want)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	data, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", data)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	want := `{"system":{"event":"OFFLINE","reason":"CONNECTION_LOST"}}`
	if got := string(WillPayload()); got != want {
		t.Errorf("will payload:\ngot:  %s\nwant: %s", got, want)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	ev := testEvent(logic.VerdictValid, 80)

	if err := f.Publish(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Events) != 1 || len(f.Payloads) != 1 {
		t.Fatalf("expected 1 event and payload, got %d/%d", len(f.Events), len(f.Payloads))
	}
	if f.Events[0].Beep.DurationMs != 80 {
		t.Errorf("unexpected event: %+v", f.Events[0])
	}

	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT", Retained: true}); err != nil {
		t.Fatal(err)
	}
	if names := f.SystemEventNames(); len(names) != 1 || names[0] != "HEARTBEAT" {
		t.Errorf("unexpected system events: %v", names)
	}
	if !f.SystemEvents[0].Retained {
		t.Error("retained flag should be recorded")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(testEvent(logic.VerdictValid, 80)); err == nil {
		t.Error("expected publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected publish system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes must not be recorded")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(testEvent(logic.VerdictValid, 80))
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true

	f.Reset()

	if len(f.Events) != 0 || len(f.SystemEvents) != 0 || len(f.Payloads) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("expected recorded events to be cleared")
	}
	if f.Closed || f.Connected {
		t.Error("expected flags to be cleared")
	}
}
