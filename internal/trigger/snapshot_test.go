package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmfuzz/firmfuzz/internal/snapshot"
)

func snapshotTestEnv(t *testing.T) (*testEnv, []int) {
	t.Helper()
	env := newTestEnv(t, []uint32{3, 7, 9}, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	handles := make([]int, 0, 3)

	h1, err := env.reg.Register(0x100, 5, 1, 2, FuzzModeFixed, TriggerModeAddress, 0)
	require.NoError(t, err)
	h2, err := env.reg.Register(0x104, 0, 0, 1, FuzzModeRoundRobin, TriggerModeAddress, 0)
	require.NoError(t, err)
	h3, err := env.reg.Register(0, 0, 0, 1, FuzzModeEnabledIndex, TriggerModeTime, 0)
	require.NoError(t, err)

	return env, append(handles, h1, h2, h3)
}

func states(reg *Registry) []State {
	out := make([]State, reg.Count())
	for i := 0; i < reg.Count(); i++ {
		out[i] = reg.Get(i).State
	}
	return out
}

func TestSnapshot_CaptureRestoreIsIdentity(t *testing.T) {
	env, handles := snapshotTestEnv(t)
	for _, h := range handles {
		env.reg.fire(h)
		env.reg.fire(h)
	}

	before := states(env.reg)
	snap := env.reg.CaptureSnapshot()
	env.reg.RestoreSnapshot(snap)

	assert.Equal(t, before, states(env.reg))
}

func TestSnapshot_RestoreRollsBackMutations(t *testing.T) {
	env, handles := snapshotTestEnv(t)

	snap := env.reg.CaptureSnapshot()
	before := states(env.reg)

	for i := 0; i < 10; i++ {
		for _, h := range handles {
			env.reg.fire(h)
		}
	}
	require.NotEqual(t, before, states(env.reg), "firing events must change state")

	env.reg.RestoreSnapshot(snap)
	assert.Equal(t, before, states(env.reg))
}

func TestSnapshot_RestorableMoreThanOnce(t *testing.T) {
	env, handles := snapshotTestEnv(t)
	snap := env.reg.CaptureSnapshot()
	before := states(env.reg)

	for round := 0; round < 3; round++ {
		for _, h := range handles {
			env.reg.fire(h)
		}
		env.reg.RestoreSnapshot(snap)
		assert.Equal(t, before, states(env.reg), "round %d", round)
	}
}

func TestSnapshot_RestoreOnLargerRegistry(t *testing.T) {
	// A snapshot taken before later (setup-phase) registrations only
	// covers the records that existed at capture time.
	env := newTestEnv(t, nil, nil)
	h1, err := env.reg.Register(0x100, 5, 0, 2, FuzzModeFixed, TriggerModeAddress, 0)
	require.NoError(t, err)

	snap := env.reg.CaptureSnapshot()

	h2, err := env.reg.Register(0x104, 6, 0, 2, FuzzModeFixed, TriggerModeAddress, 0)
	require.NoError(t, err)

	env.reg.fire(h1)
	env.reg.fire(h2)
	late := env.reg.Get(h2).State

	env.reg.RestoreSnapshot(snap)
	assert.Equal(t, uint32(0), env.reg.Get(h1).State.CurrPends)
	assert.Equal(t, late, env.reg.Get(h2).State, "records beyond the snapshot are untouched")
}

func TestSnapshot_AttachRegistersWithOrchestrator(t *testing.T) {
	env, handles := snapshotTestEnv(t)
	orc := snapshot.New()
	env.reg.AttachSnapshots(orc)
	require.Equal(t, 1, orc.Subsystems())

	before := states(env.reg)
	set := orc.Capture()
	for _, h := range handles {
		env.reg.fire(h)
	}
	orc.Restore(set)
	assert.Equal(t, before, states(env.reg))

	orc.Discard(set)
}
