// Package gpio drives the status LED and, optionally, a software-PWM buzzer on
// GPIO output lines. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Pin definitions (BCM numbering)
const (
	DefaultPinLED    = 23 // status LED, lit while a beep is in progress
	DefaultPinBuzzer = 18 // passive buzzer (software PWM backend)
)

// Chip is the GPIO character device used on a Raspberry Pi.
const Chip = "gpiochip0"

// SoftPWMMaxDuty is the full-scale duty value of the software PWM emitter.
const SoftPWMMaxDuty = 1000

// splitPeriod returns the high and low times of one PWM period for the given
// duty out of max. duty is clamped to max.
func splitPeriod(period time.Duration, duty, max uint32) (high, low time.Duration) {
	if max == 0 || duty == 0 {
		return 0, period
	}
	if duty > max {
		duty = max
	}
	high = period * time.Duration(duty) / time.Duration(max)
	return high, period - high
}

// periodFor returns the period of freqHz, or zero for a zero frequency.
func periodFor(freqHz uint32) time.Duration {
	if freqHz == 0 {
		return 0
	}
	return time.Second / time.Duration(freqHz)
}

// toggler square-waves an output through set at a fixed period. The first
// set failure stops the output and is returned by every later setDuty.
type toggler struct {
	set    func(v int) error
	period time.Duration
	duty   atomic.Uint32
	fault  atomic.Pointer[error]
	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

// startToggler starts toggling with the output off.
func startToggler(set func(v int) error, period time.Duration) *toggler {
	t := &toggler{
		set:    set,
		period: period,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *toggler) setDuty(duty uint32) error {
	if err := t.err(); err != nil {
		return fmt.Errorf("soft pwm: %w", err)
	}
	if duty > SoftPWMMaxDuty {
		duty = SoftPWMMaxDuty
	}
	t.duty.Store(duty)
	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

func (t *toggler) err() error {
	if e := t.fault.Load(); e != nil {
		return *e
	}
	return nil
}

// write sets the output and reports whether it succeeded.
func (t *toggler) write(v int) bool {
	if err := t.set(v); err != nil {
		t.fault.CompareAndSwap(nil, &err)
		return false
	}
	return true
}

func (t *toggler) run() {
	defer close(t.done)
	for {
		high, low := splitPeriod(t.period, t.duty.Load(), SoftPWMMaxDuty)
		if high == 0 {
			if !t.write(0) {
				<-t.stop
				return
			}
			select {
			case <-t.wake:
				continue
			case <-t.stop:
				return
			}
		}

		if !t.write(1) {
			<-t.stop
			return
		}
		time.Sleep(high)
		if low > 0 {
			if !t.write(0) {
				<-t.stop
				return
			}
			time.Sleep(low)
		}

		select {
		case <-t.stop:
			return
		default:
		}
	}
}

// halt stops toggling and waits for the goroutine to exit.
func (t *toggler) halt() {
	close(t.stop)
	<-t.done
}
