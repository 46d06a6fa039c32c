package writectrl

import "github.com/google/uuid"

// Hooks holds optional callback functions for controller lifecycle events.
// All fields are nil by default; callers set only the hooks they care
// about. Once passed to [NewController], a Hooks value must not be
// mutated — emit methods read the function fields without synchronisation,
// which is safe as long as the struct is read-only after construction.
//
// Pattern: Observer — this is the controller's whole observability
// surface. Rather than bolt a logging dependency onto the core, callers
// wire these callbacks to whatever sink they prefer (see the metrics and
// hclogobserver subpackages for ready-made adapters).
type Hooks struct {
	// OnStopVoteAdded fires when a StopToken is minted.
	OnStopVoteAdded func(id uuid.UUID)
	// OnStopVoteReleased fires when a StopToken is released.
	OnStopVoteReleased func(id uuid.UUID)
	// OnDelayVoteAdded fires when a DelayToken is minted, after the bucket
	// reset it causes has already taken effect.
	OnDelayVoteAdded func(id uuid.UUID, rateBytesPerSec uint64)
	// OnDelayVoteReleased fires when a DelayToken is released.
	OnDelayVoteReleased func(id uuid.UUID)
	// OnBucketReset fires whenever a new DelayToken discards the carried
	// balance and refill clock, per spec.md §4.2 "Rate changes".
	OnBucketReset func(previousRateBytesPerSec, newRateBytesPerSec uint64)
	// OnSleepComputed fires on every non-trivial GetDelay call (num_bytes >
	// 0 and the controller delayed) with the resulting sleep duration and
	// the bucket's signed byte balance after the call.
	OnSleepComputed func(numBytes, sleepUs uint64, balanceBytes int64)
	// OnSleepClamped fires when the computed sleep exceeded MAX_SLEEP_US
	// and was clamped, with the pre-clamp needed duration.
	OnSleepClamped func(neededUs uint64)
}

func (h *Hooks) emitStopVoteAdded(id uuid.UUID) {
	if h.OnStopVoteAdded != nil {
		h.OnStopVoteAdded(id)
	}
}

func (h *Hooks) emitStopVoteReleased(id uuid.UUID) {
	if h.OnStopVoteReleased != nil {
		h.OnStopVoteReleased(id)
	}
}

func (h *Hooks) emitDelayVoteAdded(id uuid.UUID, rateBytesPerSec uint64) {
	if h.OnDelayVoteAdded != nil {
		h.OnDelayVoteAdded(id, rateBytesPerSec)
	}
}

func (h *Hooks) emitDelayVoteReleased(id uuid.UUID) {
	if h.OnDelayVoteReleased != nil {
		h.OnDelayVoteReleased(id)
	}
}

func (h *Hooks) emitBucketReset(previousRateBytesPerSec, newRateBytesPerSec uint64) {
	if h.OnBucketReset != nil {
		h.OnBucketReset(previousRateBytesPerSec, newRateBytesPerSec)
	}
}

func (h *Hooks) emitSleepComputed(numBytes, sleepUs uint64, balanceBytes int64) {
	if h.OnSleepComputed != nil {
		h.OnSleepComputed(numBytes, sleepUs, balanceBytes)
	}
}

func (h *Hooks) emitSleepClamped(neededUs uint64) {
	if h.OnSleepClamped != nil {
		h.OnSleepClamped(neededUs)
	}
}
