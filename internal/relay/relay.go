// Package relay runs one iteration of the beep relay: gate check, sample,
// detect, validate and replay. Hardware is reached only through the
// capability interfaces defined here, so the loop is deterministic under fakes.
package relay

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sweeney/beep-relay/internal/logic"
)

// Sampler reads the current analog signal level.
type Sampler interface {
	// Read returns the current amplitude. An error is a hardware fault.
	Read() (uint16, error)
}

// Emitter drives the buzzer. Its frequency is fixed when it is constructed.
type Emitter interface {
	// SetDuty sets the output duty in the range [0, MaxDuty()].
	SetDuty(duty uint32) error
	// MaxDuty returns the full-scale duty value.
	MaxDuty() uint32
}

// Indicator reflects whether an event is in progress. Failures are non-fatal.
type Indicator interface {
	SetActive(active bool) error
}

// Clock supplies the wrapping millisecond counter and blocking waits.
type Clock interface {
	NowMs() uint32
	Sleep(ms uint32)
}

// Outcome describes what a single Step did.
type Outcome struct {
	NowMs        uint32
	GateReopened bool
	Sampled      bool
	Edge         logic.Edge
	Amplitude    uint16
	// Beep is set when an event ended during this step.
	Beep *logic.Beep
}

// Controller owns the detector and gate state and drives the hardware.
// Not safe for concurrent use; a single loop goroutine calls Step.
type Controller struct {
	policy    logic.Policy
	detector  *logic.Detector
	gate      *logic.Gate
	sampler   Sampler
	emitter   Emitter
	indicator Indicator
	clock     Clock
	log       zerolog.Logger
	counts    logic.Counts
}

// New creates a Controller. A nil indicator is allowed.
func New(policy logic.Policy, sampler Sampler, emitter Emitter, indicator Indicator, clock Clock, log zerolog.Logger) *Controller {
	return &Controller{
		policy:    policy,
		detector:  logic.NewDetector(policy.Threshold),
		gate:      logic.NewGate(),
		sampler:   sampler,
		emitter:   emitter,
		indicator: indicator,
		clock:     clock,
		log:       log,
	}
}

// Step runs one loop iteration. It does not wait for the next sample
// interval; the caller paces the loop. A returned error is a hardware fault
// and should terminate the process.
func (c *Controller) Step() (Outcome, error) {
	now := c.clock.NowMs()
	out := Outcome{NowMs: now}

	open, reopened := c.gate.Tick(now)
	if reopened {
		out.GateReopened = true
		c.counts.GateReopened++
		c.log.Info().Uint32("now", now).Msg("microphone re-enabled")
	}
	if !open {
		return out, nil
	}

	amp, err := c.sampler.Read()
	if err != nil {
		return out, fmt.Errorf("read sampler: %w", err)
	}
	out.Sampled = true
	out.Amplitude = amp

	obs := c.detector.Observe(now, amp)
	out.Edge = obs.Edge

	switch obs.Edge {
	case logic.EdgeRise:
		c.setIndicator(true)
		c.log.Info().Uint16("adc", amp).Msg("beep detected")

	case logic.EdgeFall:
		c.setIndicator(false)
		beep := &logic.Beep{
			EndMs:      now,
			DurationMs: obs.DurationMs,
			Peak:       obs.Peak,
			Verdict:    c.policy.Classify(obs.DurationMs),
		}
		out.Beep = beep
		c.counts.Add(beep.Verdict)

		if beep.Verdict != logic.VerdictValid {
			c.log.Info().
				Uint32("duration_ms", beep.DurationMs).
				Str("verdict", string(beep.Verdict)).
				Msg("beep too short/long, ignored")
			return out, nil
		}

		c.log.Info().Uint32("duration_ms", beep.DurationMs).Uint16("peak", beep.Peak).Msg("valid beep ended")
		if err := c.Replay(now, beep.DurationMs); err != nil {
			return out, err
		}
	}

	return out, nil
}

// Replay closes the gate, waits for the detected beep to decay, then holds
// the emitter at half duty for durationMs. Once entered it runs to completion.
func (c *Controller) Replay(nowMs, durationMs uint32) error {
	reopenAt := c.policy.ReopenAt(nowMs, durationMs)
	c.gate.Close(reopenAt)
	c.log.Debug().Uint32("reopen_at", reopenAt).Msg("microphone disabled")

	c.clock.Sleep(c.policy.MicDisableDelayMs)

	c.log.Info().
		Uint32("duration_ms", durationMs).
		Uint32("freq_hz", c.policy.ReplayFreqHz).
		Msg("replaying beep")

	if err := c.emitter.SetDuty(c.emitter.MaxDuty() / 2); err != nil {
		return fmt.Errorf("start emitter: %w", err)
	}
	c.clock.Sleep(durationMs)
	if err := c.emitter.SetDuty(0); err != nil {
		return fmt.Errorf("stop emitter: %w", err)
	}

	c.log.Info().Msg("beep replay completed")
	return nil
}

func (c *Controller) setIndicator(active bool) {
	if c.indicator == nil {
		return
	}
	if err := c.indicator.SetActive(active); err != nil {
		c.log.Warn().Err(err).Bool("active", active).Msg("indicator update failed")
	}
}

// EventState returns the detector state.
func (c *Controller) EventState() logic.EventState {
	return c.detector.State()
}

// GateState returns the sampling gate state.
func (c *Controller) GateState() logic.GateState {
	return c.gate.State()
}

// Counts returns a copy of the outcome counters.
func (c *Controller) Counts() logic.Counts {
	return c.counts
}

// Policy returns the policy the controller was built with.
func (c *Controller) Policy() logic.Policy {
	return c.policy
}
