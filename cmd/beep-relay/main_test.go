package main

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/beep-relay/internal/adc"
	"github.com/sweeney/beep-relay/internal/config"
	"github.com/sweeney/beep-relay/internal/gpio"
	"github.com/sweeney/beep-relay/internal/logic"
	"github.com/sweeney/beep-relay/internal/mqtt"
	"github.com/sweeney/beep-relay/internal/pwm"
	"github.com/sweeney/beep-relay/internal/relay"
	"github.com/sweeney/beep-relay/internal/status"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// steppingClock advances by one millisecond per NowMs call, so every
// controller step lands on the next millisecond.
type steppingClock struct {
	now    uint32
	sleeps []uint32
}

func (c *steppingClock) NowMs() uint32 {
	t := c.now
	c.now++
	return t
}

func (c *steppingClock) Sleep(ms uint32) {
	c.sleeps = append(c.sleeps, ms)
	c.now += ms
}

// beepSamples returns lead quiet samples, n loud samples, then quiet.
func beepSamples(lead, n int) []uint16 {
	out := make([]uint16, 0, lead+n+1)
	for i := 0; i < lead; i++ {
		out = append(out, 100)
	}
	for i := 0; i < n; i++ {
		out = append(out, 2600)
	}
	return append(out, 100)
}

type rig struct {
	sampler *adc.FakeSampler
	emitter *pwm.FakeEmitter
	led     *gpio.FakeIndicator
	clock   *steppingClock
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	ctl     *relay.Controller
}

func newRig(samples []uint16) *rig {
	r := &rig{
		sampler: adc.NewFakeSampler(samples),
		emitter: pwm.NewFakeEmitter(1000),
		led:     gpio.NewFakeIndicator(),
		clock:   &steppingClock{},
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "boot-1", config.Default().Status()),
	}
	r.ctl = relay.New(logic.DefaultPolicy(), r.sampler, r.emitter, r.led, r.clock, zerolog.Nop())
	return r
}

// runRunLoop drives runLoop for nTicks and then delivers signal, returning
// runLoop's error. A nil signal is not sent; use it when the loop is
// expected to stop on its own.
func runRunLoop(t *testing.T, r *rig, heartbeat time.Duration, clock func() time.Time, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(r.ctl, r.pub, r.pub, r.tracker, heartbeat, zerolog.Nop(), clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		select {
		case tick <- time.Time{}:
		case err := <-errCh:
			return err
		}
	}
	if signal == nil {
		return <-errCh
	}
	sig <- signal

	return <-errCh
}

func defaultClock() func() time.Time {
	return fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond)
}

func TestRunLoopQuietInput(t *testing.T) {
	r := newRig([]uint16{100})

	err := runRunLoop(t, r, 0, defaultClock(), 20, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(r.pub.Events) != 0 {
		t.Errorf("expected 0 beep events, got %d", len(r.pub.Events))
	}
	if len(r.emitter.Duties) != 0 {
		t.Errorf("expected emitter untouched, got %v", r.emitter.Duties)
	}
	if len(r.pub.SystemEvents) != 1 || r.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Fatalf("expected single SHUTDOWN event, got %v", r.pub.SystemEventNames())
	}
	if r.pub.SystemEvents[0].Reason != "SIGTERM" || !r.pub.SystemEvents[0].Retained {
		t.Errorf("unexpected shutdown event: %+v", r.pub.SystemEvents[0])
	}
}

func TestRunLoopValidBeepReplayed(t *testing.T) {
	r := newRig(beepSamples(5, 80))

	// 5 quiet + 80 loud + 1 quiet ends the beep; a few more ticks after replay.
	err := runRunLoop(t, r, 0, defaultClock(), 90, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(r.pub.Events) != 1 {
		t.Fatalf("expected 1 beep event, got %d", len(r.pub.Events))
	}
	ev := r.pub.Events[0]
	if ev.Beep.Verdict != logic.VerdictValid || ev.Beep.DurationMs != 80 {
		t.Errorf("unexpected beep: %+v", ev.Beep)
	}
	if ev.ReplayFreqHz != 300 {
		t.Errorf("ReplayFreqHz: got %d, want 300", ev.ReplayFreqHz)
	}
	if len(r.emitter.Duties) != 2 || r.emitter.Duties[0] != 500 || r.emitter.Duties[1] != 0 {
		t.Errorf("emitter duties: got %v, want [500 0]", r.emitter.Duties)
	}
	if len(r.clock.sleeps) != 2 || r.clock.sleeps[0] != 50 || r.clock.sleeps[1] != 80 {
		t.Errorf("sleeps: got %v, want [50 80]", r.clock.sleeps)
	}

	snap := r.tracker.Snapshot()
	if snap.LastBeep == nil || snap.LastBeep.Beep.DurationMs != 80 {
		t.Errorf("tracker last beep: got %+v", snap.LastBeep)
	}
	if snap.Counts.Replayed != 1 || snap.Counts.GateReopened != 1 {
		t.Errorf("tracker counts: got %+v", snap.Counts)
	}
}

func TestRunLoopShortBeepIgnored(t *testing.T) {
	r := newRig(beepSamples(5, 20))

	err := runRunLoop(t, r, 0, defaultClock(), 40, syscall.SIGINT)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(r.pub.Events) != 1 {
		t.Fatalf("expected 1 beep event, got %d", len(r.pub.Events))
	}
	if r.pub.Events[0].Beep.Verdict != logic.VerdictTooShort {
		t.Errorf("verdict: got %s, want TOO_SHORT", r.pub.Events[0].Beep.Verdict)
	}
	if len(r.emitter.Duties) != 0 {
		t.Errorf("ignored beep must not drive the emitter, got %v", r.emitter.Duties)
	}
	if r.tracker.Snapshot().Gate.Closed {
		t.Error("ignored beep must not close the gate")
	}
	if last := r.pub.SystemEvents[len(r.pub.SystemEvents)-1]; last.Reason != "SIGINT" {
		t.Errorf("shutdown reason: got %q, want SIGINT", last.Reason)
	}
}

func TestRunLoopSamplerFaultIsFatal(t *testing.T) {
	r := newRig(nil)
	fault := errors.New("iio read failed")
	r.sampler.ReadError = fault

	err := runRunLoop(t, r, 0, defaultClock(), 3, nil)
	if !errors.Is(err, fault) {
		t.Fatalf("expected sampler fault, got %v", err)
	}

	names := r.pub.SystemEventNames()
	if len(names) != 1 || names[0] != "SHUTDOWN" {
		t.Fatalf("expected SHUTDOWN on fault, got %v", names)
	}
	if r.pub.SystemEvents[0].Reason != "FAULT" {
		t.Errorf("reason: got %q, want FAULT", r.pub.SystemEvents[0].Reason)
	}
	if r.sampler.Reads != 1 {
		t.Errorf("expected loop to stop after first failed read, got %d reads", r.sampler.Reads)
	}
}

func TestRunLoopEmitterFaultPublishesBeepThenStops(t *testing.T) {
	r := newRig(beepSamples(0, 80))
	fault := errors.New("pwm write failed")
	r.emitter.SetDutyError = fault

	err := runRunLoop(t, r, 0, defaultClock(), 100, nil)
	if !errors.Is(err, fault) {
		t.Fatalf("expected emitter fault, got %v", err)
	}
	if len(r.pub.Events) != 1 {
		t.Errorf("expected the completed beep to be published, got %d events", len(r.pub.Events))
	}
}

func TestRunLoopPublishErrorNotFatal(t *testing.T) {
	r := newRig(beepSamples(0, 60))
	r.pub.PublishError = errors.New("broker down")

	err := runRunLoop(t, r, 0, defaultClock(), 80, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(r.emitter.Duties) != 2 {
		t.Errorf("replay should happen despite publish failure, duties=%v", r.emitter.Duties)
	}
	if r.tracker.Snapshot().LastBeep == nil {
		t.Error("tracker should record the beep despite publish failure")
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	r := newRig([]uint16{100})
	// Clock calls: t0 (start), t1..t4 (ticks at +5m..+20m), t5 (shutdown).
	// The heartbeat fires at +15m; the next would be due at +30m.
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 5*time.Minute)

	err := runRunLoop(t, r, 15*time.Minute, clock, 4, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	names := r.pub.SystemEventNames()
	if len(names) != 2 || names[0] != "HEARTBEAT" || names[1] != "SHUTDOWN" {
		t.Fatalf("expected [HEARTBEAT SHUTDOWN], got %v", names)
	}
	if r.pub.SystemEvents[0].Retained {
		t.Error("heartbeat should not be retained")
	}
	if len(r.pub.SystemEvents[0].RawPayload) == 0 {
		t.Error("heartbeat should carry a status snapshot")
	}
}

func TestRunLoopHeartbeatDisabled(t *testing.T) {
	r := newRig([]uint16{100})
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)

	if err := runRunLoop(t, r, 0, clock, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	for _, name := range r.pub.SystemEventNames() {
		if name == "HEARTBEAT" {
			t.Error("heartbeat published while disabled")
		}
	}
}

func TestRunLoopTracksMQTTStatus(t *testing.T) {
	r := newRig([]uint16{100})
	r.pub.Connected = true

	if err := runRunLoop(t, r, 0, defaultClock(), 2, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if !r.tracker.Snapshot().MQTTConnected {
		t.Error("expected tracker to report MQTT connected")
	}
}

func TestOpenBackendsUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.Input = "usb"
	if _, err := openSampler(cfg); err == nil {
		t.Error("expected error for unknown input backend")
	}

	cfg = config.Default()
	cfg.Output = "speaker"
	if _, err := openEmitter(cfg); err == nil {
		t.Error("expected error for unknown output backend")
	}
}

func TestOpenSamplerMissingDevice(t *testing.T) {
	cfg := config.Default()
	cfg.ADCDevice = 9999

	if _, err := openSampler(cfg); err == nil {
		t.Error("expected error for missing IIO device")
	}
}

func TestOpenIndicatorDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.PinLED = -1

	ind, closeFn := openIndicator(cfg, zerolog.Nop())
	defer closeFn()
	if _, ok := ind.(gpio.NopIndicator); !ok {
		t.Errorf("expected NopIndicator, got %T", ind)
	}
}
