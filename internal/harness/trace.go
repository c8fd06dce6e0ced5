package harness

import (
	"fmt"
	"strings"

	"github.com/firmfuzz/firmfuzz/internal/trigger"
)

// TraceEvent is one observed controller interaction, in firing order. The
// sequence of TraceEvents is the observable a run's determinism is judged
// by: identical config and input must yield an identical trace.
type TraceEvent struct {
	Seq     int
	Kind    trigger.EventKind
	Trigger string
	IRQ     uint32
	Value   uint64
}

func (ev TraceEvent) String() string {
	switch ev.Kind {
	case trigger.EventReload:
		return fmt.Sprintf("%d %s trigger=%s interval=%d", ev.Seq, ev.Kind, ev.Trigger, ev.Value)
	default:
		return fmt.Sprintf("%d %s trigger=%s irq=%d", ev.Seq, ev.Kind, ev.Trigger, ev.IRQ)
	}
}

// Recorder collects trigger decision actions into an ordered trace.
type Recorder struct {
	names  []string
	events []TraceEvent
}

// observe is wired into the trigger registry via trigger.WithObserver.
func (r *Recorder) observe(handle int, kind trigger.EventKind, irq uint32, value uint64) {
	name := ""
	if handle >= 0 && handle < len(r.names) {
		name = r.names[handle]
	}
	r.events = append(r.events, TraceEvent{
		Seq:     len(r.events) + 1,
		Kind:    kind,
		Trigger: name,
		IRQ:     irq,
		Value:   value,
	})
}

// Events returns a copy of the recorded trace.
func (r *Recorder) Events() []TraceEvent {
	out := make([]TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Reset clears the trace for the next test case.
func (r *Recorder) Reset() {
	r.events = r.events[:0]
}

// RenderTrace produces the canonical one-event-per-line text form used by
// golden files and the trace subcommand.
func RenderTrace(events []TraceEvent) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString(ev.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// TracesEqual compares two traces event by event.
func TracesEqual(a, b []TraceEvent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
