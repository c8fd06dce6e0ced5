package trigger

import (
	"fmt"
	"log/slog"
	"os"
)

// Registry owns the trigger arena and the collaborator services every
// decision runs against.
//
// Entries are appended during harness setup and never removed; handles are
// arena indices and stay valid for the life of the process. One registry
// exists per harness instance.
type Registry struct {
	core   CodeHooker
	intc   InterruptController
	timers TimerService
	input  InputSource

	triggers []Trigger

	// fatalf reports harness misconfiguration (capacity exhausted, hook
	// binding failure). The default terminates the process; tests
	// substitute a recorder via WithFatalf.
	fatalf func(format string, args ...any)

	// observe, when set, is told about every externally visible action a
	// decision takes. The harness uses it to build replay traces.
	observe ObserverFunc
}

// EventKind labels an observed decision action.
type EventKind string

const (
	// EventPend is an IRQ asserted pending on the controller.
	EventPend EventKind = "set_pending"
	// EventReload is a fuzzed timer interval change.
	EventReload EventKind = "set_reload"
)

// ObserverFunc receives decision actions as they happen. For EventPend,
// irq is the asserted interrupt; for EventReload, value is the new interval.
type ObserverFunc func(handle int, kind EventKind, irq uint32, value uint64)

// Option configures a Registry.
type Option func(*Registry)

// WithFatalf overrides the handler for fatal registration failures.
func WithFatalf(f func(format string, args ...any)) Option {
	return func(r *Registry) {
		r.fatalf = f
	}
}

// WithObserver attaches a decision-action observer.
func WithObserver(fn ObserverFunc) Option {
	return func(r *Registry) {
		r.observe = fn
	}
}

// NewRegistry creates an empty registry bound to its collaborator services.
func NewRegistry(core CodeHooker, intc InterruptController, timers TimerService, in InputSource, opts ...Option) *Registry {
	r := &Registry{
		core:     core,
		intc:     intc,
		timers:   timers,
		input:    in,
		triggers: make([]Trigger, 0, MaxTriggers),
		fatalf: func(format string, args ...any) {
			slog.Error(fmt.Sprintf(format, args...))
			os.Exit(1)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Count returns the number of registered triggers.
func (r *Registry) Count() int {
	return len(r.triggers)
}

// Get returns the trigger for a handle. The pointer stays valid forever;
// entries are never removed.
func (r *Registry) Get(handle int) *Trigger {
	return &r.triggers[handle]
}

// Register creates a trigger and arms its firing source.
//
// An unrecognized trigger mode is a caller contract violation: it returns an
// error and leaves the registry untouched. Capacity exhaustion and hook
// binding failure are harness misconfiguration and fatal.
//
// CurrSkips is pre-seeded to numSkips so the first firing event is treated
// as "skip budget already satisfied" and decides immediately.
func (r *Registry) Register(addr uint64, irq uint32, numSkips, numPends uint32, fuzzMode FuzzMode, trigMode TriggerMode, everyNthTick uint64) (int, error) {
	switch trigMode {
	case TriggerModeAddress, TriggerModeTime, TriggerModeTimeFuzzed:
	default:
		return 0, fmt.Errorf("register trigger: unknown trigger mode %d", trigMode)
	}

	if len(r.triggers) >= MaxTriggers {
		r.fatalf("register trigger: maximum number of interrupt triggers (%d) exhausted", MaxTriggers)
		return 0, fmt.Errorf("register trigger: registry full")
	}

	slog.Debug("registering interrupt trigger",
		"addr", fmt.Sprintf("%#x", addr),
		"irq", irq,
		"fuzz_mode", fuzzMode,
		"trigger_mode", trigMode,
	)

	handle := len(r.triggers)
	r.triggers = append(r.triggers, Trigger{
		Config: Config{
			IRQ:         irq,
			TimesToSkip: numSkips,
			TimesToPend: numPends,
			FuzzMode:    fuzzMode,
			TriggerMode: trigMode,
			Addr:        addr,
		},
		State: State{
			CurrSkips: numSkips,
			TimerID:   -1,
		},
	})

	switch trigMode {
	case TriggerModeAddress:
		if err := r.core.AddBlockHook(addr, func(uint64) { r.fire(handle) }); err != nil {
			r.fatalf("register trigger: adding block hook at %#x: %v", addr, err)
			return 0, fmt.Errorf("register trigger: block hook: %w", err)
		}

	case TriggerModeTime, TriggerModeTimeFuzzed:
		if everyNthTick == 0 {
			everyNthTick = DefaultTimerInterval
		}
		id := r.timers.Add(r.timers.Scale()*everyNthTick, func() { r.timerFire(handle) })
		r.triggers[handle].State.TimerID = id
		r.timers.Start(id)
	}

	return handle, nil
}
