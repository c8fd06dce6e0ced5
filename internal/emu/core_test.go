package emu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmfuzz/firmfuzz/internal/timer"
)

func TestExecute_FiresHooksOnHookedBlocksOnly(t *testing.T) {
	c := New(timer.New(1), 1)
	var hits []uint64
	require.NoError(t, c.AddBlockHook(0x100, func(addr uint64) { hits = append(hits, addr) }))

	c.Execute([]uint64{0x100, 0x104, 0x100})
	assert.Equal(t, []uint64{0x100, 0x100}, hits)
}

func TestExecute_MultipleHooksFireInInstallationOrder(t *testing.T) {
	c := New(timer.New(1), 1)
	var order []int
	require.NoError(t, c.AddBlockHook(0x100, func(uint64) { order = append(order, 0) }))
	require.NoError(t, c.AddBlockHook(0x100, func(uint64) { order = append(order, 1) }))

	c.Execute([]uint64{0x100})
	assert.Equal(t, []int{0, 1}, order)
}

func TestAddBlockHook_NilHookIsError(t *testing.T) {
	c := New(timer.New(1), 1)
	assert.Error(t, c.AddBlockHook(0x100, nil))
}

func TestExecute_AdvancesTimersAfterEachBlock(t *testing.T) {
	timers := timer.New(1)
	fired := 0
	id := timers.Add(3, func() { fired++ })
	timers.Start(id)

	c := New(timers, 1)
	c.Execute([]uint64{1, 2, 3, 4, 5, 6})
	assert.Equal(t, 2, fired)
}

func TestExecute_HooksRunBeforeTicksForTheSameBlock(t *testing.T) {
	timers := timer.New(1)
	var order []string
	id := timers.Add(1, func() { order = append(order, "tick") })
	timers.Start(id)

	c := New(timers, 1)
	require.NoError(t, c.AddBlockHook(0x100, func(uint64) { order = append(order, "hook") }))

	c.Execute([]uint64{0x100})
	assert.Equal(t, []string{"hook", "tick"}, order)
}

func TestTicksPerBlockScalesAdvancement(t *testing.T) {
	timers := timer.New(1)
	fired := 0
	id := timers.Add(10, func() { fired++ })
	timers.Start(id)

	c := New(timers, 5)
	c.Execute([]uint64{1, 2})
	assert.Equal(t, 1, fired)
}

func TestRun_RepeatsTrace(t *testing.T) {
	c := New(timer.New(1), 1)
	hits := 0
	require.NoError(t, c.AddBlockHook(0x100, func(uint64) { hits++ }))

	c.Run([]uint64{0x100, 0x104}, 3)
	assert.Equal(t, 3, hits)
}
