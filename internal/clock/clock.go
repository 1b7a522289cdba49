// Package clock provides the millisecond counter and blocking waits used by
// the relay loop. The real clock behaves like a microcontroller tick counter:
// a uint32 that wraps roughly every 49.7 days.
package clock

import "time"

// Real is a wrapping millisecond clock anchored at construction time.
type Real struct {
	epoch time.Time
}

// NewReal creates a clock whose zero is now.
func NewReal() *Real {
	return &Real{epoch: time.Now()}
}

// NowMs returns milliseconds since the epoch, truncated to 32 bits.
func (c *Real) NowMs() uint32 {
	return uint32(time.Since(c.epoch).Milliseconds())
}

// Sleep blocks for ms milliseconds.
func (c *Real) Sleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
