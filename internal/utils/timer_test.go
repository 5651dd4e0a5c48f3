package utils

import (
	"testing"
	"time"
)

// ========== Timer tests ==========

// TestTimer_StopReturnsDuration checks that Stop reports the time since
// NewTimer and that GetDuration matches it.
func TestTimer_StopReturnsDuration(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)

	got := timer.Stop()
	if got < time.Millisecond {
		t.Errorf("Stop() = %v, want at least 1ms", got)
	}
	if timer.GetDuration() != got {
		t.Errorf("GetDuration() = %v, want %v", timer.GetDuration(), got)
	}
	if !timer.Stopped() {
		t.Error("Stopped() = false after Stop")
	}
}

// TestTimer_GetDurationZeroUntilStopped checks that a running timer reports no
// frozen duration.
func TestTimer_GetDurationZeroUntilStopped(t *testing.T) {
	timer := NewTimer()
	if timer.GetDuration() != 0 || timer.Stopped() {
		t.Errorf("running timer: GetDuration() = %v, Stopped() = %v", timer.GetDuration(), timer.Stopped())
	}
}

// TestTimer_FirstStopWins checks that a second Stop keeps the first reading.
func TestTimer_FirstStopWins(t *testing.T) {
	timer := NewTimer()
	first := timer.Stop()

	time.Sleep(2 * time.Millisecond)
	if second := timer.Stop(); second != first {
		t.Errorf("second Stop() = %v, want first reading %v", second, first)
	}
}

// TestTimer_Elapsed checks that Elapsed runs before Stop and freezes after.
func TestTimer_Elapsed(t *testing.T) {
	timer := NewTimer()
	time.Sleep(2 * time.Millisecond)

	if timer.Elapsed() < 2*time.Millisecond {
		t.Errorf("Elapsed() = %v, want at least 2ms", timer.Elapsed())
	}
	if timer.Stopped() {
		t.Error("Elapsed must not stop the timer")
	}

	frozen := timer.Stop()
	time.Sleep(time.Millisecond)
	if timer.Elapsed() != frozen {
		t.Errorf("Elapsed() after Stop = %v, want %v", timer.Elapsed(), frozen)
	}
}
