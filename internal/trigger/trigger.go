// Package trigger implements the interrupt trigger subsystem: per-trigger
// state machines that decide, on each firing event, whether to skip, ride
// out a pending run, or select and assert an interrupt, steered by fuzzer
// input.
//
// Triggers are created only during harness setup and never removed. All
// mutable state lives in State values inside the registry's arena, which is
// what makes snapshot/restore a plain value copy.
package trigger

// FuzzMode selects how a trigger resolves the IRQ to assert.
type FuzzMode uint32

const (
	// FuzzModeFixed always asserts the configured IRQ.
	FuzzModeFixed FuzzMode = iota
	// FuzzModeEnabledIndex lets a fuzz byte pick among the currently
	// enabled IRQs.
	FuzzModeEnabledIndex
	// FuzzModeRoundRobin cycles through the enabled IRQs without
	// consuming fuzz input.
	FuzzModeRoundRobin
)

// TriggerMode selects the firing source a trigger is bound to.
type TriggerMode uint32

const (
	// TriggerModeAddress fires when execution reaches a watched code
	// address.
	TriggerModeAddress TriggerMode = iota
	// TriggerModeTime fires on a periodic timer at a fixed interval.
	TriggerModeTime
	// TriggerModeTimeFuzzed fires on a periodic timer whose interval is
	// re-chosen from fuzz input at every decision.
	TriggerModeTimeFuzzed
)

const (
	// MaxTriggers is the registry capacity. Exceeding it at registration
	// is a harness misconfiguration and is fatal.
	MaxTriggers = 256

	// DefaultTimerInterval is the tick interval substituted when a
	// time-based trigger is registered with interval zero.
	DefaultTimerInterval = 1000

	reloadChoices = 8
)

// fuzzedReloadVals maps a fuzz byte (mod 8) to a new timer reload interval.
// The fuzzer's byte distribution is heavily biased toward 0x00 and 0xff, so
// near-default intervals sit at index 0 and the last slots while the extreme
// multipliers occupy the middle.
var fuzzedReloadVals = [reloadChoices]uint64{
	DefaultTimerInterval,
	DefaultTimerInterval >> 1,
	DefaultTimerInterval >> 2,
	1,
	DefaultTimerInterval << 2,
	DefaultTimerInterval << 3,
	DefaultTimerInterval << 4,
	DefaultTimerInterval << 1,
}

// Config is fixed at registration and never mutated afterwards.
type Config struct {
	// IRQ is the configured interrupt number; 0 means "none selected".
	IRQ uint32

	// TimesToSkip is the number of firing events to wait out between
	// pending runs.
	TimesToSkip uint32

	// TimesToPend is the length of a pending run.
	TimesToPend uint32

	// FuzzMode selects the IRQ-resolution policy.
	FuzzMode FuzzMode

	// TriggerMode selects the firing source.
	TriggerMode TriggerMode

	// Addr is the watched code address for TriggerModeAddress.
	Addr uint64
}

// State is the mutable part of a trigger and the unit of snapshot capture.
//
// INVARIANTS: CurrSkips <= Config.TimesToSkip and
// CurrPends <= Config.TimesToPend at all times between firing events.
type State struct {
	// CurrSkips counts events skipped since the last reset. Pre-seeded
	// to TimesToSkip at registration so the very first firing event goes
	// straight to the decision phase.
	CurrSkips uint32

	// CurrPends counts interrupts asserted in the current pending run.
	CurrPends uint32

	// SkipNext is a one-shot guard suppressing the next firing event,
	// set when a pending run completes.
	SkipNext bool

	// RoundRobinIndex is the cursor for FuzzModeRoundRobin, reduced
	// modulo the enabled count at lookup time.
	RoundRobinIndex uint32

	// ResolvedIRQ is the IRQ last chosen by the mode policy. It is what
	// a mid-run event re-asserts, and may differ from Config.IRQ in
	// non-fixed modes.
	ResolvedIRQ uint32

	// TimerID is the bound timer for time-based triggers. An opaque
	// handle; the timer's own state is owned by the timer service.
	TimerID int
}

// Trigger pairs immutable configuration with mutable run state.
type Trigger struct {
	Config Config
	State  State
}
