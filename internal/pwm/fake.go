package pwm

// FakeEmitter records duty changes for test assertions.
type FakeEmitter struct {
	// Max is returned by MaxDuty.
	Max uint32

	// Duties contains every duty value set, in call order.
	Duties []uint32

	// SetDutyError, if set, will be returned by SetDuty.
	SetDutyError error

	// FailAfter, if > 0, makes SetDuty fail once this many calls have succeeded.
	FailAfter int
}

// NewFakeEmitter creates a FakeEmitter with the given full-scale duty.
func NewFakeEmitter(max uint32) *FakeEmitter {
	return &FakeEmitter{Max: max}
}

// SetDuty records the duty value.
func (f *FakeEmitter) SetDuty(duty uint32) error {
	if f.SetDutyError != nil && (f.FailAfter == 0 || len(f.Duties) >= f.FailAfter) {
		return f.SetDutyError
	}
	f.Duties = append(f.Duties, duty)
	return nil
}

// MaxDuty returns Max.
func (f *FakeEmitter) MaxDuty() uint32 {
	return f.Max
}

// Current returns the most recent duty, or 0 if none was set.
func (f *FakeEmitter) Current() uint32 {
	if len(f.Duties) == 0 {
		return 0
	}
	return f.Duties[len(f.Duties)-1]
}
