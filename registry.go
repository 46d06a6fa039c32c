package writectrl

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// VoteInfo describes one outstanding stop or delay vote, for diagnostics.
// It is a read-only snapshot; releasing the token it describes does not
// mutate a VoteInfo already returned to a caller.
type VoteInfo struct {
	ID              uuid.UUID
	Kind            string // "stop" or "delay"
	RateBytesPerSec uint64 // 0 for stop votes
	CreatedAt       time.Time
}

// voteRegistry tracks the outstanding votes of a single Controller so that
// ActiveVotes can report a consistent snapshot without holding a lock across
// the controller's hot paths.
//
// Pattern: copy-on-write registry — adds and removes are serialized by a
// mutex, but readers take an atomic pointer to an immutable slice, so
// ActiveVotes never blocks a concurrent Register/Release.
type voteRegistry struct {
	mu    sync.Mutex
	votes atomic.Pointer[[]VoteInfo]
}

func newVoteRegistry() *voteRegistry {
	r := &voteRegistry{}
	empty := make([]VoteInfo, 0)
	r.votes.Store(&empty)
	return r
}

func (r *voteRegistry) add(v VoteInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.votes.Load()
	updated := make([]VoteInfo, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, v)
	r.votes.Store(&updated)
}

func (r *voteRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.votes.Load()
	updated := make([]VoteInfo, 0, len(old))

	for _, v := range old {
		if v.ID != id {
			updated = append(updated, v)
		}
	}

	r.votes.Store(&updated)
}

func (r *voteRegistry) snapshot() []VoteInfo {
	return *r.votes.Load()
}

// ---------------------------------------------------------------------------
// EngineRegistry — enumerates Controller instances across a process
// ---------------------------------------------------------------------------

// EngineRegistry tracks live Controllers for process-wide diagnostics (e.g.
// a single /debug/vars-style endpoint listing every storage engine's
// admission state). Registration is purely additive bookkeeping — it never
// changes how a Controller counts votes or computes delay, and a Controller
// not registered with any EngineRegistry behaves identically. This keeps
// faith with spec.md §9 ("Global state... one per storage engine instance,
// not process-wide"): the registry enumerates controllers, it does not
// become a second source of truth for any one of them.
type EngineRegistry struct {
	mu          sync.Mutex
	controllers atomic.Pointer[[]*Controller]
}

// NewEngineRegistry creates an empty engine registry.
func NewEngineRegistry() *EngineRegistry {
	r := &EngineRegistry{}
	empty := make([]*Controller, 0)
	r.controllers.Store(&empty)
	return r
}

func (r *EngineRegistry) register(c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.controllers.Load()
	updated := make([]*Controller, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, c)
	r.controllers.Store(&updated)
}

// Controllers returns a snapshot of every Controller registered via
// [WithEngineRegistry].
func (r *EngineRegistry) Controllers() []*Controller {
	return *r.controllers.Load()
}

// defaultEngineRegistryVal is the package-level global registry returned by
// [DefaultEngineRegistry], used by callers that don't need per-tenant
// isolation.
var (
	defaultEngineRegistryOnce sync.Once
	defaultEngineRegistryVal  *EngineRegistry
)

// DefaultEngineRegistry returns the package-level global engine registry,
// creating it on first call.
//
// Pattern: Singleton — lazy initialization via sync.Once ensures exactly
// one global registry exists and is safe for concurrent access.
func DefaultEngineRegistry() *EngineRegistry {
	defaultEngineRegistryOnce.Do(func() {
		defaultEngineRegistryVal = NewEngineRegistry()
	})
	return defaultEngineRegistryVal
}
