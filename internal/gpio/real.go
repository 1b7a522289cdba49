//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// LineIndicator drives a status LED from a GPIO output line.
type LineIndicator struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewLineIndicator requests pin as an output, initially low.
func NewLineIndicator(pin int) (*LineIndicator, error) {
	chip, err := gpiocdev.NewChip(Chip, gpiocdev.WithConsumer("beep-relay"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pin, err)
	}

	return &LineIndicator{chip: chip, line: line}, nil
}

// SetActive lights or clears the LED.
func (i *LineIndicator) SetActive(active bool) error {
	v := 0
	if active {
		v = 1
	}
	if err := i.line.SetValue(v); err != nil {
		return fmt.Errorf("set LED: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
// Reconfigures the pin to input with pull-down (matching Pi boot defaults)
// before closing.
func (i *LineIndicator) Close() error {
	return closeLine(i.chip, i.line, "LED")
}

// SoftPWM toggles a GPIO line at a fixed frequency to drive a passive buzzer
// when no hardware PWM channel is available.
type SoftPWM struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	t    *toggler
}

// NewSoftPWM requests pin as an output and starts the toggling goroutine
// with the output off.
func NewSoftPWM(pin int, freqHz uint32) (*SoftPWM, error) {
	period := periodFor(freqHz)
	if period == 0 {
		return nil, errors.New("gpio: soft pwm frequency must be positive")
	}

	chip, err := gpiocdev.NewChip(Chip, gpiocdev.WithConsumer("beep-relay"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pin, err)
	}

	return &SoftPWM{chip: chip, line: line, t: startToggler(line.SetValue, period)}, nil
}

// SetDuty sets the high fraction as duty/SoftPWMMaxDuty. It fails once a
// write to the line has failed.
func (p *SoftPWM) SetDuty(duty uint32) error {
	return p.t.setDuty(duty)
}

// MaxDuty returns SoftPWMMaxDuty.
func (p *SoftPWM) MaxDuty() uint32 {
	return SoftPWMMaxDuty
}

// Close stops toggling and releases the line.
func (p *SoftPWM) Close() error {
	p.t.halt()
	return closeLine(p.chip, p.line, "buzzer")
}

func closeLine(chip *gpiocdev.Chip, line *gpiocdev.Line, name string) error {
	var errs []error
	if line != nil {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if chip != nil {
		if err := chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
