package writectrl

import "time"

// Clock abstracts the monotonic microsecond clock the controller consumes.
// Production code uses [RealClock]; tests substitute a fake implementation
// to drive the bucket's refill logic deterministically. This is the only
// form of dependency injection the controller exposes, and it is passed
// into [Controller.GetDelay] rather than stored at construction time, so
// that constructing a Controller never commits it to a particular notion
// of time.
type Clock interface {
	// NowMicros returns a monotonically non-decreasing count of
	// microseconds since an arbitrary fixed epoch. GetDelay never calls
	// this on the fast path (a request fully covered by the current
	// balance), so uncontended writes pay no syscall cost.
	NowMicros() uint64
	// NewTimer creates a new [Timer] that fires after duration d. Used by
	// [Do] to perform the caller's sleep in a context-cancellable way; the
	// Controller itself never calls this.
	NewTimer(d time.Duration) Timer
}

// Timer abstracts [time.Timer] so fake clocks can provide controllable
// timers for deterministic testing of [Do]'s cancellable sleep.
type Timer interface {
	// C returns the channel on which the timer's firing time is delivered.
	C() <-chan time.Time
	// Stop prevents the timer from firing and reports whether it was
	// stopped before it fired.
	Stop() bool
	// Reset changes the timer to fire after duration d and reports whether
	// the timer had been active before the reset.
	Reset(d time.Duration) bool
}

// processStart anchors [RealClock]'s microsecond count. Using a fixed
// process-local origin instead of [time.Now].UnixMicro keeps the count
// immune to wall-clock adjustments (NTP steps, leap seconds): [time.Since]
// reads the runtime's monotonic clock reading, not wall time.
var processStart = time.Now()

// RealClock is a zero-value [Clock] backed by the real [time] package. It
// is safe for concurrent use because it holds no mutable state.
type RealClock struct{}

// NowMicros returns microseconds elapsed since this package was initialized
// (processStart), via the monotonic portion of [time.Since].
func (RealClock) NowMicros() uint64 {
	return uint64(time.Since(processStart).Microseconds())
}

// NewTimer creates a real [Timer] that fires after d via [time.NewTimer].
func (RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{inner: time.NewTimer(d)}
}

// realTimer wraps [time.Timer] to satisfy the [Timer] interface.
type realTimer struct {
	inner *time.Timer
}

func (t *realTimer) C() <-chan time.Time        { return t.inner.C }
func (t *realTimer) Stop() bool                 { return t.inner.Stop() }
func (t *realTimer) Reset(d time.Duration) bool { return t.inner.Reset(d) }
