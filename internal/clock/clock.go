// Package clock abstracts wall-clock time and timers so the persistence
// engine, activity tracker and reminder scheduler can be driven
// deterministically in tests.
//
// Production code uses Real(). Tests use Fake(), whose time only moves
// when Advance is called; AfterFunc callbacks then run synchronously in
// deadline order on the goroutine calling Advance.
package clock

import "time"

// Clock is the subset of the time package the core depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f after d elapses. If d <= 0, f runs immediately
	// (in a new goroutine for Real, synchronously for Fake).
	AfterFunc(d time.Duration, f func()) *Timer

	// Sleep blocks for at least d.
	Sleep(d time.Duration)
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the timer from firing. It reports whether the call
// stopped the timer; false means it already fired or was stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}
