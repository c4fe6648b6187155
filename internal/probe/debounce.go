package probe

import "time"

// hoverDebounce delays a hover until the pointer has rested on the same
// element for the whole window. A new schedule replaces the pending one,
// so rapid sweeps across many elements fire nothing.
type hoverDebounce struct {
	window  time.Duration
	pending *Event
	timer   *time.Timer
	timerCh <-chan time.Time
}

func newHoverDebounce(window time.Duration) *hoverDebounce {
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	return &hoverDebounce{window: window}
}

// schedule arms the timer for ev, discarding any pending hover.
func (h *hoverDebounce) schedule(ev Event) {
	h.pending = &ev
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.NewTimer(h.window)
	h.timerCh = h.timer.C
}

// cancel drops the pending hover, if any.
func (h *hoverDebounce) cancel() {
	h.pending = nil
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
		h.timerCh = nil
	}
}

// timerC returns the channel that fires when the window expires, or nil
// when nothing is pending.
func (h *hoverDebounce) timerC() <-chan time.Time {
	return h.timerCh
}

// take returns the pending hover and clears it. ok is false when the
// timer fired after a cancel raced it.
func (h *hoverDebounce) take() (Event, bool) {
	if h.pending == nil {
		return Event{}, false
	}
	ev := *h.pending
	h.cancel()
	return ev, true
}

// moveThrottle passes at most one move per interval, leading edge. The
// first move after a quiet period always passes.
type moveThrottle struct {
	interval time.Duration
	last     time.Time
}

func newMoveThrottle(interval time.Duration) *moveThrottle {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &moveThrottle{interval: interval}
}

// allow reports whether a move at the given time should pass.
func (m *moveThrottle) allow(at time.Time) bool {
	if !m.last.IsZero() && at.Sub(m.last) < m.interval {
		return false
	}
	m.last = at
	return true
}
