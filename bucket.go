package writectrl

const (
	// refillIntervalUs is the discretization window for bucket refills, per
	// spec.md §4.2. Balance only ever grows in whole multiples of this
	// interval's worth of bytes; a GetDelay call that lands inside a
	// partially-elapsed interval carries the remainder forward rather than
	// crediting it early.
	refillIntervalUs = 1000

	// maxSleepUs is the hard ceiling any single GetDelay call can return,
	// per property P5. A caller that needs to wait longer must call
	// GetDelay again after sleeping this long.
	maxSleepUs = 2_000_000
)

// tokenBucket paces writers at a configured byte rate. It must only be
// accessed while the owning Controller's delayMu is held; unlike Controller
// itself, tokenBucket has no internal synchronization.
//
// Unlike a textbook token bucket, this one deliberately has no burst
// capacity above what the writer already earned: balanceBytes is clamped to
// zero on reset and on a rate change (spec.md §4.2 "Rate changes"), so a
// newly (re)started bucket never lets a burst through at the old,
// possibly-higher rate.
type tokenBucket struct {
	rateBytesPerSec  uint64
	balanceBytes     int64
	lastRefillTimeUs uint64
	// initialized is false immediately after reset, since reset has no
	// Clock of its own (only GetDelay does, per spec.md §6) — the first
	// getDelay call after a reset seeds lastRefillTimeUs from its own nowUs
	// instead of guessing a timestamp from a different clock source.
	initialized bool
}

// reset discards the carried balance and refill clock and adopts a new
// rate. Called whenever a new delay vote registers; releasing a DelayToken
// does not reset the bucket.
func (b *tokenBucket) reset(rateBytesPerSec uint64) {
	b.rateBytesPerSec = rateBytesPerSec
	b.balanceBytes = 0
	b.initialized = false
}

// tryFastPath consumes numBytes directly from the carried balance and
// reports whether it succeeded, without reading the clock. Per spec.md
// §4.2 step 1 and §4.3, this is the only path GetDelay may take without a
// clock read — callers must try this before reading nowUs at all.
func (b *tokenBucket) tryFastPath(numBytes uint64) (ok bool) {
	if b.balanceBytes >= int64(numBytes) {
		b.balanceBytes -= int64(numBytes)
		return true
	}
	return false
}

// getDelay runs the refill-then-consume algorithm from spec.md §4.2 and
// returns the duration the caller should sleep before writing numBytes, the
// pre-clamp needed duration (for hook reporting), and whether clamping
// occurred. Callers must have already tried tryFastPath and failed before
// calling getDelay, since this is the clock-reading slow path. The caller
// must hold delayMu.
func (b *tokenBucket) getDelay(numBytes uint64, nowUs uint64) (sleepUs uint64, neededUs uint64, clamped bool) {
	if !b.initialized {
		b.lastRefillTimeUs = nowUs
		b.initialized = true
	} else if nowUs < b.lastRefillTimeUs {
		// The Clock implementation promised a monotonically non-decreasing
		// counter (clock.go). A caller that violates this has broken a
		// contract GetDelay cannot recover from sensibly, since every
		// downstream calculation assumes elapsed time is non-negative.
		panic("writectrl: clock went backward")
	}

	// Re-check the fast path: the clock read above may have been the first
	// one after a reset, which itself requires no refill math.
	if b.balanceBytes >= int64(numBytes) {
		b.balanceBytes -= int64(numBytes)
		return 0, 0, false
	}

	// Refill in whole refillIntervalUs increments; a partially elapsed
	// interval's worth of time is left in lastRefillTimeUs for the next
	// call to pick up, rather than rounded away.
	if nowUs > b.lastRefillTimeUs {
		elapsedUs := nowUs - b.lastRefillTimeUs
		wholeIntervals := elapsedUs / refillIntervalUs
		if wholeIntervals > 0 {
			refilled := wholeIntervals * refillIntervalUs * b.rateBytesPerSec / 1_000_000
			b.balanceBytes += int64(refilled)
			b.lastRefillTimeUs += wholeIntervals * refillIntervalUs
		}
	}

	if b.balanceBytes >= int64(numBytes) {
		b.balanceBytes -= int64(numBytes)
		return 0, 0, false
	}

	// Still short: go into debt for the request now (so that bookkeeping
	// stays a running total the writer never has to reconcile) and compute
	// how long the shortfall takes to refill at the current rate.
	deficitBytes := int64(numBytes) - b.balanceBytes
	b.balanceBytes -= int64(numBytes)

	neededUs = uint64(deficitBytes) * 1_000_000 / b.rateBytesPerSec
	if neededUs > maxSleepUs {
		return maxSleepUs, neededUs, true
	}
	return neededUs, neededUs, false
}
