//go:build linux

package sound

import (
	"fmt"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
)

// PulseSampler reports the peak level of the most recent capture block from
// the default PulseAudio source.
type PulseSampler struct {
	client *pulse.Client
	stream *pulse.RecordStream
	level  atomic.Uint32
}

// NewPulseSampler connects to PulseAudio and starts recording.
func NewPulseSampler() (*PulseSampler, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("beep-relay"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}

	s := &PulseSampler{client: c}
	writer := pulse.Int16Writer(func(buf []int16) (int, error) {
		if len(buf) > 0 {
			s.level.Store(uint32(peakLevel(buf)))
		}
		return len(buf), nil
	})

	stream, err := c.NewRecord(writer,
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordLatency(0.005),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("pulse record: %w", err)
	}
	s.stream = stream
	stream.Start()
	return s, nil
}

// Read returns the latest capture peak in [0, ADCMax].
func (s *PulseSampler) Read() (uint16, error) {
	if err := s.stream.Error(); err != nil {
		return 0, fmt.Errorf("pulse record: %w", err)
	}
	return uint16(s.level.Load()), nil
}

// Close stops recording and disconnects.
func (s *PulseSampler) Close() error {
	s.stream.Stop()
	s.stream.Close()
	s.client.Close()
	return nil
}

// PulseEmitter plays a square wave at a fixed frequency on the default sink.
// Duty controls amplitude; zero duty plays silence.
type PulseEmitter struct {
	client *pulse.Client
	stream *pulse.PlaybackStream
	freqHz uint32
	duty   atomic.Uint32
}

// NewPulseEmitter connects to PulseAudio and starts a silent playback stream.
func NewPulseEmitter(freqHz uint32) (*PulseEmitter, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("beep-relay"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}

	e := &PulseEmitter{client: c, freqHz: freqHz}
	var phase uint64
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		phase = squareWave(buf, phase, e.freqHz, e.duty.Load())
		return len(buf), nil
	})

	stream, err := c.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(SampleRate),
		pulse.PlaybackLatency(0.02),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("pulse playback: %w", err)
	}
	e.stream = stream
	stream.Start()
	return e, nil
}

// SetDuty sets the square wave amplitude as duty/MaxDuty of full scale.
func (e *PulseEmitter) SetDuty(duty uint32) error {
	if err := e.stream.Error(); err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}
	if duty > MaxDuty {
		duty = MaxDuty
	}
	e.duty.Store(duty)
	return nil
}

// MaxDuty returns MaxDuty.
func (e *PulseEmitter) MaxDuty() uint32 {
	return MaxDuty
}

// Close stops playback and disconnects.
func (e *PulseEmitter) Close() error {
	e.stream.Stop()
	e.stream.Close()
	e.client.Close()
	return nil
}
