package gpio

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingLine stands in for a GPIO line. It fails every write of failOn
// once armed.
type recordingLine struct {
	mu     sync.Mutex
	values []int
	failOn int
	err    error
	calls  int
}

func (l *recordingLine) set(v int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil && v == l.failOn {
		return l.err
	}
	l.values = append(l.values, v)
	return nil
}

func (l *recordingLine) snapshot() (values []int, calls int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.values...), l.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTogglerSquareWave(t *testing.T) {
	line := &recordingLine{}
	tg := startToggler(line.set, time.Millisecond)
	defer tg.halt()

	if err := tg.setDuty(SoftPWMMaxDuty / 2); err != nil {
		t.Fatalf("setDuty: %v", err)
	}
	waitFor(t, func() bool {
		vals, _ := line.snapshot()
		highs, lows := 0, 0
		for _, v := range vals {
			if v == 1 {
				highs++
			} else {
				lows++
			}
		}
		return highs >= 2 && lows >= 2
	})
}

func TestTogglerOffHoldsLow(t *testing.T) {
	line := &recordingLine{}
	tg := startToggler(line.set, time.Millisecond)

	waitFor(t, func() bool { _, calls := line.snapshot(); return calls > 0 })
	time.Sleep(5 * time.Millisecond)
	tg.halt()

	vals, _ := line.snapshot()
	for _, v := range vals {
		if v != 0 {
			t.Fatalf("output driven high at zero duty: %v", vals)
		}
	}
}

func TestTogglerWriteFailureSurfacesOnSetDuty(t *testing.T) {
	errWrite := errors.New("line write failed")
	line := &recordingLine{failOn: 1, err: errWrite}
	tg := startToggler(line.set, time.Millisecond)
	defer tg.halt()

	if err := tg.setDuty(SoftPWMMaxDuty); err != nil {
		t.Fatalf("setDuty before failure: %v", err)
	}
	waitFor(t, func() bool { return tg.err() != nil })

	err := tg.setDuty(0)
	if !errors.Is(err, errWrite) {
		t.Fatalf("setDuty after failure: got %v, want %v", err, errWrite)
	}
	if err := tg.setDuty(SoftPWMMaxDuty); !errors.Is(err, errWrite) {
		t.Errorf("fault should stay latched, got %v", err)
	}
}

func TestTogglerStopsWritingAfterFailure(t *testing.T) {
	line := &recordingLine{failOn: 1, err: errors.New("first")}
	tg := startToggler(line.set, time.Millisecond)

	tg.setDuty(SoftPWMMaxDuty)
	waitFor(t, func() bool { return tg.err() != nil })

	line.mu.Lock()
	line.err = errors.New("second")
	line.failOn = 0
	line.mu.Unlock()

	_, before := line.snapshot()
	time.Sleep(5 * time.Millisecond)
	_, after := line.snapshot()
	if after != before {
		t.Errorf("line written %d times after failure", after-before)
	}
	if got := tg.err(); got == nil || got.Error() != "first" {
		t.Errorf("latched error: got %v, want first", got)
	}

	done := make(chan struct{})
	go func() {
		tg.halt()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("halt blocked after failure")
	}
}
