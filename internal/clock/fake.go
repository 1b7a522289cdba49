package clock

// Fake is a test clock. Time only moves when Sleep or Advance is called.
type Fake struct {
	// Now is the current millisecond value.
	Now uint32

	// Sleeps records every Sleep duration in call order.
	Sleeps []uint32
}

// NewFake creates a Fake clock starting at start.
func NewFake(start uint32) *Fake {
	return &Fake{Now: start}
}

// NowMs returns the current fake time.
func (f *Fake) NowMs() uint32 {
	return f.Now
}

// Sleep records the wait and advances time by ms.
func (f *Fake) Sleep(ms uint32) {
	f.Sleeps = append(f.Sleeps, ms)
	f.Now += ms
}

// Advance moves time forward without recording a sleep.
func (f *Fake) Advance(ms uint32) {
	f.Now += ms
}
