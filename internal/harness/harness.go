// Package harness assembles the emulation core, interrupt controller,
// timers, fuzz input and trigger registry into a runnable fuzzing target,
// and drives the per-test-case capture/execute/restore loop.
package harness

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/firmfuzz/firmfuzz/internal/config"
	"github.com/firmfuzz/firmfuzz/internal/emu"
	"github.com/firmfuzz/firmfuzz/internal/input"
	"github.com/firmfuzz/firmfuzz/internal/nvic"
	"github.com/firmfuzz/firmfuzz/internal/snapshot"
	"github.com/firmfuzz/firmfuzz/internal/timer"
	"github.com/firmfuzz/firmfuzz/internal/trigger"
)

// Harness owns one complete instance of the interrupt-injection subsystem
// and its collaborators. Created once per process at startup and torn down
// at exit; the trigger set never changes after New returns.
type Harness struct {
	cfg *config.Config

	Core      *emu.Core
	NVIC      *nvic.Controller
	Timers    *timer.Service
	Input     *input.Source
	Triggers  *trigger.Registry
	Snapshots *snapshot.Orchestrator

	rec *Recorder
}

// New builds a harness from a validated config and a fuzz input source,
// registers all configured triggers (in sorted name order, so handles are
// deterministic), and wires every stateful subsystem into the snapshot
// orchestrator.
func New(cfg *config.Config, src *input.Source) (*Harness, error) {
	timers := timer.New(cfg.TickScale)
	core := emu.New(timers, cfg.TicksPerBlock)
	intc := nvic.New()
	for _, irq := range cfg.EnabledIRQs {
		intc.Enable(irq)
	}

	rec := &Recorder{}
	reg := trigger.NewRegistry(core, intc, timers, src, trigger.WithObserver(rec.observe))

	for _, name := range cfg.TriggerNames() {
		spec := cfg.Triggers[name]
		fuzzMode, err := config.ParseFuzzMode(spec.FuzzMode)
		if err != nil {
			return nil, fmt.Errorf("trigger %q: %w", name, err)
		}
		trigMode, err := config.ParseTriggerMode(spec.TriggerMode)
		if err != nil {
			return nil, fmt.Errorf("trigger %q: %w", name, err)
		}

		handle, err := reg.Register(spec.Address, spec.IRQ, spec.NumSkips, spec.NumPends, fuzzMode, trigMode, spec.EveryNthTick)
		if err != nil {
			return nil, fmt.Errorf("trigger %q: %w", name, err)
		}
		rec.names = append(rec.names, name)
		slog.Debug("trigger registered", "name", name, "handle", handle)
	}

	orc := snapshot.New()
	reg.AttachSnapshots(orc)
	timers.AttachSnapshots(orc)
	intc.AttachSnapshots(orc)
	src.AttachSnapshots(orc)

	return &Harness{
		cfg:       cfg,
		Core:      core,
		NVIC:      intc,
		Timers:    timers,
		Input:     src,
		Triggers:  reg,
		Snapshots: orc,
		rec:       rec,
	}, nil
}

// RunCase executes one test case: capture all mutable state, run the
// program, collect the trace, then roll everything back so the next case
// starts from the same point.
func (h *Harness) RunCase() []TraceEvent {
	set := h.Snapshots.Capture()
	h.rec.Reset()

	h.Core.Run(h.cfg.Program.Blocks, h.cfg.Program.Loops)
	events := h.rec.Events()

	h.Snapshots.Restore(set)
	h.Snapshots.Discard(set)
	return events
}

// RunForward executes the program without snapshotting, accumulating state.
// Used by tests that need to observe behavior across a rollback boundary.
func (h *Harness) RunForward() []TraceEvent {
	h.rec.Reset()
	h.Core.Run(h.cfg.Program.Blocks, h.cfg.Program.Loops)
	return h.rec.Events()
}

// NewRunID returns a time-sortable UUIDv7 run identifier.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
