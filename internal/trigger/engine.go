package trigger

import "log/slog"

// fire runs the per-trigger state machine for one firing event.
//
// Exactly one of four paths runs: the one-shot skip guard, the pending run,
// the skip-wait phase, or the decision phase. The completion check at the
// bottom runs after every path except the skip guard, which returns without
// further evaluation.
//
// Fuzz-input exhaustion inside the decision phase aborts the event with no
// state change at all; the next firing event retries. IRQ resolution is
// therefore staged in locals and committed only after every input read has
// succeeded.
func (r *Registry) fire(handle int) {
	t := &r.triggers[handle]

	if t.State.SkipNext {
		// Still on the block that produced the interrupt; don't let it
		// re-trigger before the interrupt is serviced.
		t.State.SkipNext = false
		return
	} else if t.State.CurrPends > 0 {
		// Already on the pending train, follow it.
		r.intc.SetPending(t.State.ResolvedIRQ)
		r.note(handle, EventPend, t.State.ResolvedIRQ, 0)
		t.State.CurrPends++
	} else if t.State.CurrSkips < t.Config.TimesToSkip {
		t.State.CurrSkips++
	} else {
		irq, rrAdvance, ok := r.resolveIRQ(t)
		if !ok {
			return
		}

		if t.Config.TriggerMode == TriggerModeTimeFuzzed {
			b, err := r.input.ReadByte()
			if err != nil {
				logInputExhausted(err)
				return
			}
			reload := fuzzedReloadVals[int(b)%reloadChoices]
			r.timers.SetReload(t.State.TimerID, reload)
			r.note(handle, EventReload, 0, reload)
		}

		t.State.ResolvedIRQ = irq
		if rrAdvance {
			t.State.RoundRobinIndex++
		}
		if irq != 0 {
			r.intc.SetPending(irq)
			r.note(handle, EventPend, irq, 0)
			t.State.CurrPends++
		}
	}

	if t.State.CurrPends == t.Config.TimesToPend {
		t.State.CurrPends = 0
		t.State.CurrSkips = 0
		t.State.SkipNext = true
	}
}

// resolveIRQ applies the trigger's fuzz mode and returns the IRQ to assert
// (0 for none), whether the round-robin cursor should advance, and whether
// resolution completed. ok is false only when fuzz input ran out, in which
// case nothing may be committed.
func (r *Registry) resolveIRQ(t *Trigger) (irq uint32, rrAdvance bool, ok bool) {
	switch t.Config.FuzzMode {
	case FuzzModeFixed:
		return t.Config.IRQ, false, true

	case FuzzModeEnabledIndex:
		n := r.intc.NumEnabled()
		if n == 0 {
			return 0, false, true
		}
		// A single enabled IRQ needs no fuzzer decision; don't burn
		// input on it.
		idx := 0
		if n != 1 {
			b, err := r.input.ReadByte()
			if err != nil {
				logInputExhausted(err)
				return 0, false, false
			}
			idx = int(b) % n
		}
		return r.intc.NthEnabled(idx), false, true

	case FuzzModeRoundRobin:
		n := r.intc.NumEnabled()
		if n == 0 {
			return 0, false, true
		}
		return r.intc.NthEnabled(int(t.State.RoundRobinIndex)), true, true

	default:
		return 0, false, true
	}
}

// timerFire is the firing callback for time-based triggers. A timer tick
// has no return-address collision the way an address watch does, so any
// skip guard set within this invocation must not suppress the next
// independent tick.
func (r *Registry) timerFire(handle int) {
	r.fire(handle)
	r.triggers[handle].State.SkipNext = false
}

func (r *Registry) note(handle int, kind EventKind, irq uint32, value uint64) {
	if r.observe != nil {
		r.observe(handle, kind, irq, value)
	}
}

func logInputExhausted(err error) {
	// Running out of input is a normal end-of-test-case condition, kept
	// at debug so campaign logs stay readable.
	slog.Debug("fuzz input exhausted during decision", "error", err)
}
