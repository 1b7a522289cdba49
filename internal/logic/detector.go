package logic

// Detector converts a stream of (time, amplitude) samples into begin/end edges.
// It must only be fed samples taken while the gate is open.
type Detector struct {
	threshold uint16
	state     EventState
	peak      uint16
}

// NewDetector creates a detector that treats amplitudes strictly above
// threshold as signal present.
func NewDetector(threshold uint16) *Detector {
	return &Detector{threshold: threshold}
}

// Observe advances the detector with one sample and returns the resulting edge.
// On EdgeFall the duration is the modular difference now-start, so an event
// that spans a clock wrap still reports its true length.
func (d *Detector) Observe(nowMs uint32, amplitude uint16) Observation {
	present := amplitude > d.threshold

	switch {
	case present && !d.state.InEvent:
		d.state = EventState{InEvent: true, StartMs: nowMs}
		d.peak = amplitude
		return Observation{Edge: EdgeRise, Amplitude: amplitude}

	case present:
		if amplitude > d.peak {
			d.peak = amplitude
		}
		return Observation{Edge: EdgeNone, Amplitude: amplitude}

	case d.state.InEvent:
		obs := Observation{
			Edge:       EdgeFall,
			Amplitude:  amplitude,
			DurationMs: Elapsed(d.state.StartMs, nowMs),
			Peak:       d.peak,
		}
		d.state = EventState{}
		d.peak = 0
		return obs
	}

	return Observation{Edge: EdgeNone, Amplitude: amplitude}
}

// State returns the current event state.
func (d *Detector) State() EventState {
	return d.state
}

// Threshold returns the detection threshold.
func (d *Detector) Threshold() uint16 {
	return d.threshold
}

// Elapsed returns to-from on a wrapping uint32 millisecond clock.
func Elapsed(from, to uint32) uint32 {
	return to - from
}
