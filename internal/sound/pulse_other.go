//go:build !linux

package sound

import "errors"

var errUnsupported = errors.New("sound: PulseAudio backend requires Linux")

// PulseSampler is not available on non-Linux platforms.
type PulseSampler struct{}

// NewPulseSampler returns an error on non-Linux platforms.
func NewPulseSampler() (*PulseSampler, error) { return nil, errUnsupported }

// Read is not implemented on non-Linux platforms.
func (s *PulseSampler) Read() (uint16, error) { return 0, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (s *PulseSampler) Close() error { return nil }

// PulseEmitter is not available on non-Linux platforms.
type PulseEmitter struct{}

// NewPulseEmitter returns an error on non-Linux platforms.
func NewPulseEmitter(freqHz uint32) (*PulseEmitter, error) { return nil, errUnsupported }

// SetDuty is not implemented on non-Linux platforms.
func (e *PulseEmitter) SetDuty(duty uint32) error { return errUnsupported }

// MaxDuty returns MaxDuty.
func (e *PulseEmitter) MaxDuty() uint32 { return MaxDuty }

// Close is not implemented on non-Linux platforms.
func (e *PulseEmitter) Close() error { return nil }
