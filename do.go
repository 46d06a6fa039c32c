package writectrl

import (
	"context"
	"fmt"
	"time"
)

func microseconds(us uint64) time.Duration {
	return time.Duration(us) * time.Microsecond
}

// ErrStopped is returned by [Do] when the controller refuses the write
// outright because a StopToken is outstanding.
var ErrStopped error = controllerError("writectrl: write refused, controller is stopped")

// Do is a convenience wrapper around the check-stopped / compute-delay /
// sleep / call sequence a foreground writer performs on every write. It
// refuses immediately if c.IsStopped(), otherwise sleeps for
// c.GetDelay(clk, numBytes) — honoring ctx cancellation during the sleep —
// and then invokes fn.
//
// Do is provided for writers that don't need finer control over the
// sequence (e.g. to check IsStopped separately from computing delay); it
// adds no behavior GetDelay and IsStopped don't already expose.
func Do[T any](ctx context.Context, c *Controller, clk Clock, numBytes uint64, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if c.IsStopped() {
		return zero, ErrStopped
	}

	if sleepUs := c.GetDelay(clk, numBytes); sleepUs > 0 {
		timer := clk.NewTimer(microseconds(sleepUs))
		select {
		case <-timer.C():
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("writectrl: wait for admission: %w", ctx.Err())
		}
	}

	return fn(ctx)
}
