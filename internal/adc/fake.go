package adc

import "errors"

// FakeSampler is a test double that returns scripted amplitudes.
type FakeSampler struct {
	// Samples contains the scripted amplitudes.
	// Each call to Read() consumes the next sample.
	Samples []uint16

	// index tracks current position in Samples
	index int

	// Reads counts successful and failed Read calls.
	Reads int

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeSampler creates a FakeSampler with the given samples.
func NewFakeSampler(samples []uint16) *FakeSampler {
	return &FakeSampler{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSampler) Read() (uint16, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// Reset rewinds to the first sample.
func (f *FakeSampler) Reset() {
	f.index = 0
	f.Reads = 0
}
