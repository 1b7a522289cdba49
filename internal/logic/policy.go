package logic

import "time"

// Default policy values, tuned for a 12-bit ADC microphone sampled at 1kHz.
const (
	DefaultSampleIntervalMs  = 1
	DefaultThreshold         = 2000
	DefaultMinBeepMs         = 50
	DefaultMaxBeepMs         = 3000
	DefaultReplayFreqHz      = 300
	DefaultMicDisableDelayMs = 50
)

// Policy holds the fixed detection and replay constants.
// It is immutable for the process lifetime.
type Policy struct {
	SampleIntervalMs  uint32
	Threshold         uint16
	MinBeepMs         uint32
	MaxBeepMs         uint32
	ReplayFreqHz      uint32
	MicDisableDelayMs uint32
}

// DefaultPolicy returns the stock relay policy.
func DefaultPolicy() Policy {
	return Policy{
		SampleIntervalMs:  DefaultSampleIntervalMs,
		Threshold:         DefaultThreshold,
		MinBeepMs:         DefaultMinBeepMs,
		MaxBeepMs:         DefaultMaxBeepMs,
		ReplayFreqHz:      DefaultReplayFreqHz,
		MicDisableDelayMs: DefaultMicDisableDelayMs,
	}
}

// IsValid reports whether a beep of the given duration should be replayed.
// Both bounds are inclusive.
func (p Policy) IsValid(durationMs uint32) bool {
	return durationMs >= p.MinBeepMs && durationMs <= p.MaxBeepMs
}

// Classify returns the verdict for a beep of the given duration.
func (p Policy) Classify(durationMs uint32) Verdict {
	switch {
	case durationMs < p.MinBeepMs:
		return VerdictTooShort
	case durationMs > p.MaxBeepMs:
		return VerdictTooLong
	default:
		return VerdictValid
	}
}

// ReopenAt returns the clock value at which sampling may resume after a
// valid beep ending at nowMs. Wraps with the clock.
func (p Policy) ReopenAt(nowMs, durationMs uint32) uint32 {
	return nowMs + p.MicDisableDelayMs + durationMs
}

// SampleInterval returns the polling period as a time.Duration.
func (p Policy) SampleInterval() time.Duration {
	return time.Duration(p.SampleIntervalMs) * time.Millisecond
}
