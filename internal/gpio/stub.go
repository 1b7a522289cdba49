//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// LineIndicator is not available on non-Linux platforms.
type LineIndicator struct{}

// NewLineIndicator returns an error on non-Linux platforms.
func NewLineIndicator(pin int) (*LineIndicator, error) {
	return nil, errUnsupported
}

// SetActive is not implemented on non-Linux platforms.
func (i *LineIndicator) SetActive(active bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (i *LineIndicator) Close() error {
	return nil
}

// SoftPWM is not available on non-Linux platforms.
type SoftPWM struct{}

// NewSoftPWM returns an error on non-Linux platforms.
func NewSoftPWM(pin int, freqHz uint32) (*SoftPWM, error) {
	return nil, errUnsupported
}

// SetDuty is not implemented on non-Linux platforms.
func (p *SoftPWM) SetDuty(duty uint32) error {
	return errUnsupported
}

// MaxDuty returns SoftPWMMaxDuty.
func (p *SoftPWM) MaxDuty() uint32 {
	return SoftPWMMaxDuty
}

// Close is not implemented on non-Linux platforms.
func (p *SoftPWM) Close() error {
	return nil
}
