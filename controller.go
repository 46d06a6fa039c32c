package writectrl

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Controller is the admission-control primitive for a single storage engine
// instance. It accumulates votes from stress-signal producers (full
// memtables, too many level-0 files, pending compaction bytes) and answers
// two questions for foreground writers: should this write be refused
// outright (IsStopped), and if not, how long should it wait before
// proceeding (GetDelay).
//
// A Controller is safe for concurrent use. Per spec.md §9, one Controller
// exists per storage engine instance — it is not process-wide global state,
// though [WithEngineRegistry] lets a process enumerate several.
type Controller struct {
	name  string
	hooks *Hooks

	// configuredRateBytesPerSec is the rate fixed at construction time via
	// [WithConfiguredRate]. Per spec.md §3/§4.1 it never changes after
	// construction and is independent of whatever rate is currently
	// driving the bucket — callers that want to vote "at the default
	// rate" read it via [Controller.DelayedWriteRate] rather than
	// inspecting the active DelayToken.
	configuredRateBytesPerSec uint64

	stopVoteCount atomic.Int64

	// delayMu guards the active delay token's identity and the bucket it
	// drives. It is a separate lock from the vote registry's so that
	// ActiveVotes (a diagnostic path) never contends with GetDelay (the hot
	// path).
	delayMu             sync.Mutex
	delayVoteCount      int64
	activeDelayTokenID  uuid.UUID
	activeDelayTokenSet bool
	bucket              tokenBucket

	stopVotes  *voteRegistry
	delayVotes *voteRegistry

	engineRegistry *EngineRegistry
}

// ControllerOption configures a Controller at construction time.
type ControllerOption func(*Controller)

// WithName attaches a diagnostic name to the Controller, reported by
// [Controller.Name] and [Controller.Status].
func WithName(name string) ControllerOption {
	return func(c *Controller) { c.name = name }
}

// WithHooks wires observability callbacks into the Controller. See [Hooks].
func WithHooks(hooks *Hooks) ControllerOption {
	return func(c *Controller) { c.hooks = hooks }
}

// WithConfiguredRate sets the Controller's configured default delay rate,
// reported by [Controller.DelayedWriteRate]. It has no effect on the
// bucket by itself — a producer that wants to actually pace writers at
// this rate still must mint a DelayToken for it (commonly by calling
// [Controller.DelayedWriteRate] and passing the result to
// [Controller.NewDelayToken]).
func WithConfiguredRate(rateBytesPerSec uint64) ControllerOption {
	return func(c *Controller) { c.configuredRateBytesPerSec = rateBytesPerSec }
}

// WithEngineRegistry registers the Controller with reg as part of
// construction, so it shows up in reg.Controllers(). Registration is purely
// additive bookkeeping for diagnostics; see [EngineRegistry].
func WithEngineRegistry(reg *EngineRegistry) ControllerOption {
	return func(c *Controller) { c.engineRegistry = reg }
}

// NewController constructs a Controller with no outstanding votes.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		hooks:      &Hooks{},
		stopVotes:  newVoteRegistry(),
		delayVotes: newVoteRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hooks == nil {
		c.hooks = &Hooks{}
	}
	if c.engineRegistry != nil {
		c.engineRegistry.register(c)
	}
	return c
}

// Name returns the Controller's diagnostic name, or "" if none was set via
// [WithName].
func (c *Controller) Name() string { return c.name }

// IsStopped reports whether any StopToken is currently outstanding. Per
// invariant I1, this is true if and only if at least one producer holds a
// live stop vote.
func (c *Controller) IsStopped() bool {
	return c.stopVoteCount.Load() > 0
}

// IsDelayed reports whether any DelayToken is currently outstanding.
func (c *Controller) IsDelayed() bool {
	c.delayMu.Lock()
	defer c.delayMu.Unlock()
	return c.delayVoteCount > 0
}

// CurrentDelayRate returns the byte rate currently driving the token
// bucket, and whether any DelayToken is outstanding. If no DelayToken is
// outstanding the second return value is false and the rate is 0. This is
// spec.md §3's current_delay_rate_bytes_per_sec — the most recently
// minted delay vote's rate, not the configured default; see
// [Controller.DelayedWriteRate] for that.
func (c *Controller) CurrentDelayRate() (rateBytesPerSec uint64, delayed bool) {
	c.delayMu.Lock()
	defer c.delayMu.Unlock()
	if c.delayVoteCount == 0 {
		return 0, false
	}
	return c.bucket.rateBytesPerSec, true
}

// DelayedWriteRate returns the Controller's configured default delay
// rate, set at construction via [WithConfiguredRate] (0 if none was
// given). Per spec.md §4.1 this is for callers that want to vote "at the
// default rate" — it is unaffected by whatever DelayToken is currently
// active, and does not itself imply the controller is delayed; see
// [Controller.CurrentDelayRate] for the rate actually driving the bucket
// right now.
func (c *Controller) DelayedWriteRate() uint64 {
	return c.configuredRateBytesPerSec
}

// ActiveVotes returns a diagnostic snapshot of every outstanding stop and
// delay vote. The snapshot is not synchronized with IsStopped/IsDelayed or
// with each other — per spec.md §5, the controller makes no cross-caller
// ordering guarantee, so this is informational only.
func (c *Controller) ActiveVotes() (stop []VoteInfo, delay []VoteInfo) {
	return c.stopVotes.snapshot(), c.delayVotes.snapshot()
}

// StopToken represents one outstanding vote to refuse all foreground
// writes. Producers hold it for as long as their stress condition persists
// and call Release when it clears.
type StopToken struct {
	id         uuid.UUID
	controller *Controller
	once       sync.Once
}

// NewStopToken registers a new stop vote and returns the token that
// controls its lifetime. The controller is stopped (per IsStopped) for as
// long as any StopToken it issued remains unreleased.
func (c *Controller) NewStopToken() *StopToken {
	id := uuid.New()
	c.stopVoteCount.Add(1)
	c.stopVotes.add(VoteInfo{ID: id, Kind: "stop", CreatedAt: time.Now()})
	c.hooks.emitStopVoteAdded(id)
	return &StopToken{id: id, controller: c}
}

// Release withdraws the stop vote. Safe to call more than once or from
// multiple goroutines; only the first call has effect.
func (t *StopToken) Release() {
	t.once.Do(func() {
		t.controller.stopVoteCount.Add(-1)
		t.controller.stopVotes.remove(t.id)
		t.controller.hooks.emitStopVoteReleased(t.id)
	})
}

// DelayToken represents one outstanding vote to pace foreground writes at a
// given byte rate. Per spec.md §4.1, when more than one DelayToken is
// outstanding the most recently minted one's rate drives the bucket — rates
// are not merged or taken as a minimum.
type DelayToken struct {
	id         uuid.UUID
	controller *Controller
	once       sync.Once
}

// NewDelayToken registers a new delay vote at rateBytesPerSec and returns
// the token that controls its lifetime. rateBytesPerSec must be positive;
// otherwise NewDelayToken returns ErrInvalidRate and no token.
//
// Minting a DelayToken resets the token bucket: any balance or debt carried
// under the previous rate (or no rate, if this is the first delay vote) is
// discarded, per spec.md §4.2 "Rate changes".
func (c *Controller) NewDelayToken(rateBytesPerSec uint64) (*DelayToken, error) {
	if rateBytesPerSec == 0 {
		return nil, ErrInvalidRate
	}

	id := uuid.New()
	now := time.Now()

	c.delayMu.Lock()
	previousRate := c.bucket.rateBytesPerSec
	c.delayVoteCount++
	c.activeDelayTokenID = id
	c.activeDelayTokenSet = true
	c.bucket.reset(rateBytesPerSec)
	c.delayMu.Unlock()

	c.delayVotes.add(VoteInfo{ID: id, Kind: "delay", RateBytesPerSec: rateBytesPerSec, CreatedAt: now})
	c.hooks.emitBucketReset(previousRate, rateBytesPerSec)
	c.hooks.emitDelayVoteAdded(id, rateBytesPerSec)

	return &DelayToken{id: id, controller: c}, nil
}

// Release withdraws the delay vote. Safe to call more than once or from
// multiple goroutines; only the first call has effect. Releasing the
// token that is currently driving the bucket does not itself reset the
// bucket — the next DelayToken minted does, per spec.md §4.2.
func (t *DelayToken) Release() {
	t.once.Do(func() {
		c := t.controller
		c.delayMu.Lock()
		c.delayVoteCount--
		if c.activeDelayTokenSet && c.activeDelayTokenID == t.id {
			c.activeDelayTokenSet = false
		}
		c.delayMu.Unlock()

		c.delayVotes.remove(t.id)
		c.hooks.emitDelayVoteReleased(t.id)
	})
}

// GetDelay reports how long the caller should sleep, in microseconds,
// before writing numBytes, given the controller's current delay vote. If no
// DelayToken is outstanding, GetDelay always returns 0 — callers are
// expected to check IsStopped separately, since a stopped controller should
// refuse the write rather than delay it.
//
// clk supplies the monotonic time reading; GetDelay never reads the system
// clock itself on the fast path (a request the bucket's current balance
// already covers), so an uncontended write that isn't being paced pays no
// clock-read cost at all. Per property P5, the returned value never
// exceeds 2,000,000 (2 seconds); a caller that needs to wait longer must
// call GetDelay again after sleeping that long.
func (c *Controller) GetDelay(clk Clock, numBytes uint64) uint64 {
	c.delayMu.Lock()
	defer c.delayMu.Unlock()

	if c.delayVoteCount == 0 {
		return 0
	}
	if numBytes == 0 {
		return 0
	}

	if c.bucket.tryFastPath(numBytes) {
		c.hooks.emitSleepComputed(numBytes, 0, c.bucket.balanceBytes)
		return 0
	}

	now := clk.NowMicros()
	sleepUs, neededUs, clamped := c.bucket.getDelay(numBytes, now)

	c.hooks.emitSleepComputed(numBytes, sleepUs, c.bucket.balanceBytes)
	if clamped {
		c.hooks.emitSleepClamped(neededUs)
	}
	return sleepUs
}
