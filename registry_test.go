package writectrl

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteRegistry_AddRemoveSnapshot(t *testing.T) {
	r := newVoteRegistry()
	assert.Empty(t, r.snapshot())

	id1 := uuid.New()
	id2 := uuid.New()
	r.add(VoteInfo{ID: id1, Kind: "stop"})
	r.add(VoteInfo{ID: id2, Kind: "delay", RateBytesPerSec: 100})

	snap := r.snapshot()
	require.Len(t, snap, 2)

	r.remove(id1)
	snap = r.snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, id2, snap[0].ID)

	r.remove(id2)
	assert.Empty(t, r.snapshot())
}

func TestVoteRegistry_SnapshotIsolatedFromMutation(t *testing.T) {
	r := newVoteRegistry()
	id := uuid.New()
	r.add(VoteInfo{ID: id, Kind: "stop"})

	snap := r.snapshot()
	r.add(VoteInfo{ID: uuid.New(), Kind: "stop"})

	assert.Len(t, snap, 1, "earlier snapshot must not see later adds")
}

func TestEngineRegistry_RegistersOnConstruction(t *testing.T) {
	reg := NewEngineRegistry()
	assert.Empty(t, reg.Controllers())

	c := NewController(WithEngineRegistry(reg), WithName("engine-1"))
	ctrls := reg.Controllers()
	require.Len(t, ctrls, 1)
	assert.Same(t, c, ctrls[0])
}

func TestDefaultEngineRegistry_Singleton(t *testing.T) {
	a := DefaultEngineRegistry()
	b := DefaultEngineRegistry()
	assert.Same(t, a, b)
}
