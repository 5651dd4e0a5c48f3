package utils

import "time"

// Timer measures the latency of a single call. It starts on [NewTimer] and is
// frozen by the first [Timer.Stop]; later Stop calls keep the first reading so
// that a stream which reports both an error and its own abandonment records
// one duration.
type Timer struct {
	started  time.Time
	duration time.Duration
	stopped  bool
}

// NewTimer returns a running Timer.
func NewTimer() *Timer {
	return &Timer{started: time.Now()}
}

// Stop freezes the measurement and returns it.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.duration = time.Since(t.started)
		t.stopped = true
	}
	return t.duration
}

// Stopped reports whether Stop has been called.
func (t *Timer) Stopped() bool {
	return t.stopped
}

// Elapsed returns the running time, or the frozen duration once stopped.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.duration
	}
	return time.Since(t.started)
}

// GetDuration returns the frozen duration, zero until Stop is called.
func (t *Timer) GetDuration() time.Duration {
	return t.duration
}
