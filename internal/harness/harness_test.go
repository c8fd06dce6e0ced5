package harness

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmfuzz/firmfuzz/internal/config"
	"github.com/firmfuzz/firmfuzz/internal/input"
	"github.com/firmfuzz/firmfuzz/internal/trigger"
)

const fuzzedConfig = `
enabled_irqs: [3, 7, 9]
program:
  blocks: [0x100, 0x104]
  loops: 12
interrupt_triggers:
  rx:
    address: 0x104
    fuzz_mode: enabled_index
    num_pends: 1
  poll:
    trigger_mode: time_fuzzed
    fuzz_mode: round_robin
    every_nth_tick: 3
    num_pends: 1
`

func newFuzzedHarness(t *testing.T, data []byte) *Harness {
	t.Helper()
	cfg, err := config.Parse([]byte(fuzzedConfig))
	require.NoError(t, err)
	h, err := New(cfg, input.New(data))
	require.NoError(t, err)
	return h
}

func TestNew_RegistersTriggersInNameOrder(t *testing.T) {
	h := newFuzzedHarness(t, nil)
	require.Equal(t, 2, h.Triggers.Count())

	// "poll" sorts before "rx": handle 0 is the timer trigger.
	assert.Equal(t, trigger.TriggerModeTimeFuzzed, h.Triggers.Get(0).Config.TriggerMode)
	assert.Equal(t, trigger.TriggerModeAddress, h.Triggers.Get(1).Config.TriggerMode)
	assert.Equal(t, 4, h.Snapshots.Subsystems())
}

func TestNew_RejectsBadModeStrings(t *testing.T) {
	cfg, err := config.Parse([]byte(fuzzedConfig))
	require.NoError(t, err)
	cfg.Triggers["rx"] = config.TriggerSpec{Address: 1, FuzzMode: "bogus", TriggerMode: "address"}

	_, err = New(cfg, input.New(nil))
	assert.ErrorContains(t, err, "rx")
}

func TestRunCase_IsDeterministic(t *testing.T) {
	data := []byte{7, 1, 200, 3, 45, 99, 0, 13, 8, 77, 2, 5, 61, 18, 240, 9}
	h := newFuzzedHarness(t, data)

	first := h.RunCase()
	second := h.RunCase()

	require.NotEmpty(t, first)
	assert.True(t, TracesEqual(first, second),
		"same config and input must yield the same trace:\n%s---\n%s",
		RenderTrace(first), RenderTrace(second))
}

func TestRunCase_RestoresInputCursor(t *testing.T) {
	data := []byte{7, 1, 200, 3, 45, 99, 0, 13}
	h := newFuzzedHarness(t, data)

	before := h.Input.Remaining()
	h.RunCase()
	assert.Equal(t, before, h.Input.Remaining())
}

func TestSnapshotMidRun_ReplaysIdentically(t *testing.T) {
	// Run forward once to accumulate state, snapshot, then check that a
	// rollback reproduces the continuation trace byte for byte.
	data := []byte{7, 1, 200, 3, 45, 99, 0, 13, 8, 77, 2, 5, 61, 18, 240, 9}
	h := newFuzzedHarness(t, data)

	h.RunForward()
	set := h.Snapshots.Capture()

	first := h.RunForward()
	h.Snapshots.Restore(set)
	second := h.RunForward()
	h.Snapshots.Discard(set)

	require.NotEmpty(t, first)
	assert.True(t, TracesEqual(first, second),
		"continuation after rollback diverged:\n%s---\n%s",
		RenderTrace(first), RenderTrace(second))
}

func TestTraceEventString(t *testing.T) {
	pend := TraceEvent{Seq: 3, Kind: trigger.EventPend, Trigger: "rx", IRQ: 22}
	assert.Equal(t, "3 set_pending trigger=rx irq=22", pend.String())

	reload := TraceEvent{Seq: 4, Kind: trigger.EventReload, Trigger: "poll", Value: 4000}
	assert.Equal(t, "4 set_reload trigger=poll interval=4000", reload.String())
}

func TestRecorder_ResetAndCopy(t *testing.T) {
	r := &Recorder{names: []string{"a"}}
	r.observe(0, trigger.EventPend, 4, 0)
	r.observe(0, trigger.EventPend, 4, 0)

	events := r.Events()
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Seq)
	assert.Equal(t, 2, events[1].Seq)

	r.Reset()
	assert.Empty(t, r.Events())
	assert.Len(t, events, 2, "returned slice is a copy")
}

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()

	require.NotEqual(t, a, b)
	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}
