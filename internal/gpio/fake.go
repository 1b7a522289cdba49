package gpio

// FakeIndicator is a test double that records indicator changes.
type FakeIndicator struct {
	// States contains every value passed to SetActive, in call order.
	States []bool

	// SetError, if set, will be returned by SetActive (the state is still recorded).
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeIndicator creates a FakeIndicator.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// SetActive records the requested state.
func (f *FakeIndicator) SetActive(active bool) error {
	f.States = append(f.States, active)
	return f.SetError
}

// Active returns the most recent state, false if never set.
func (f *FakeIndicator) Active() bool {
	if len(f.States) == 0 {
		return false
	}
	return f.States[len(f.States)-1]
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded states.
func (f *FakeIndicator) Reset() {
	f.States = nil
	f.Closed = false
}

// NopIndicator discards all updates. Used when no LED pin is configured.
type NopIndicator struct{}

// SetActive does nothing.
func (NopIndicator) SetActive(bool) error { return nil }
