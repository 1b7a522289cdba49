// Package pwm drives a passive buzzer from a Linux sysfs PWM channel.
// The period is fixed from the replay frequency when the channel is opened;
// only the duty cycle changes afterwards.
package pwm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SysfsRoot is the standard location of PWM chips.
const SysfsRoot = "/sys/class/pwm"

// DefaultChip and DefaultChannel select pwmchip0/pwm0 (GPIO18 on a Raspberry Pi
// with the pwm overlay enabled).
const (
	DefaultChip    = 0
	DefaultChannel = 0
)

// SysfsEmitter drives one PWM channel. Duty values are nanoseconds of high
// time per period, so MaxDuty equals the period in nanoseconds.
type SysfsEmitter struct {
	dir      string
	periodNs uint32
}

// NewSysfsEmitter exports and configures the channel under SysfsRoot.
func NewSysfsEmitter(chip, channel int, freqHz uint32) (*SysfsEmitter, error) {
	return Open(SysfsRoot, chip, channel, freqHz)
}

// Open configures a PWM channel under root at freqHz with output off.
func Open(root string, chip, channel int, freqHz uint32) (*SysfsEmitter, error) {
	if freqHz == 0 {
		return nil, errors.New("pwm: frequency must be positive")
	}
	chipDir := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel))

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := writeAttr(chipDir, "export", strconv.Itoa(channel)); err != nil {
			return nil, fmt.Errorf("export pwm channel %d: %w", channel, err)
		}
		// udev applies permissions asynchronously after export.
		if err := waitFor(dir, time.Second); err != nil {
			return nil, err
		}
	}

	e := &SysfsEmitter{
		dir:      dir,
		periodNs: uint32(time.Second / time.Duration(freqHz)),
	}

	// duty_cycle must never exceed period, so clear it first.
	if err := writeAttr(dir, "duty_cycle", "0"); err != nil {
		return nil, fmt.Errorf("reset duty: %w", err)
	}
	if err := writeAttr(dir, "period", strconv.FormatUint(uint64(e.periodNs), 10)); err != nil {
		return nil, fmt.Errorf("set period: %w", err)
	}
	if err := writeAttr(dir, "enable", "1"); err != nil {
		return nil, fmt.Errorf("enable pwm: %w", err)
	}
	return e, nil
}

// SetDuty sets the high time in nanoseconds, clamped to the period.
func (e *SysfsEmitter) SetDuty(duty uint32) error {
	if duty > e.periodNs {
		duty = e.periodNs
	}
	if err := writeAttr(e.dir, "duty_cycle", strconv.FormatUint(uint64(duty), 10)); err != nil {
		return fmt.Errorf("set duty: %w", err)
	}
	return nil
}

// MaxDuty returns the period in nanoseconds.
func (e *SysfsEmitter) MaxDuty() uint32 {
	return e.periodNs
}

// Close silences and disables the channel.
func (e *SysfsEmitter) Close() error {
	var errs []error
	if err := writeAttr(e.dir, "duty_cycle", "0"); err != nil {
		errs = append(errs, fmt.Errorf("reset duty: %w", err))
	}
	if err := writeAttr(e.dir, "enable", "0"); err != nil {
		errs = append(errs, fmt.Errorf("disable pwm: %w", err))
	}
	return errors.Join(errs...)
}

func writeAttr(dir, name, value string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(value), 0o644)
}

func waitFor(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pwm: %s did not appear after export", path)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
