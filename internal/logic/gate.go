package logic

// Gate suspends sampling while the device replays a beep, so the buzzer
// output is never detected as a new input event.
type Gate struct {
	state GateState
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{}
}

// Tick reports whether sampling is permitted at nowMs. A closed gate whose
// reopen time has been reached opens and reports reopened=true.
func (g *Gate) Tick(nowMs uint32) (open bool, reopened bool) {
	if !g.state.Closed {
		return true, false
	}
	if !Reached(nowMs, g.state.ReopenAtMs) {
		return false, false
	}
	g.state = GateState{}
	return true, true
}

// Close suspends sampling until the clock reaches reopenAtMs.
func (g *Gate) Close(reopenAtMs uint32) {
	g.state = GateState{Closed: true, ReopenAtMs: reopenAtMs}
}

// State returns the current gate state.
func (g *Gate) State() GateState {
	return g.state
}

// Reached reports whether now is at or past deadline on a wrapping uint32
// clock. Deadlines are assumed to be less than half the clock range
// (~24.8 days) in the future.
func Reached(now, deadline uint32) bool {
	return int32(now-deadline) >= 0
}
