package trigger

// The registry consumes its collaborators through these interfaces. The
// harness wires the real nvic/timer/input/emu implementations; tests wire
// fakes.

// InterruptController is the NVIC surface the decision engine needs.
type InterruptController interface {
	// SetPending asserts an IRQ as pending.
	SetPending(irq uint32)
	// NumEnabled returns the count of currently enabled IRQs.
	NumEnabled() int
	// NthEnabled returns the i-th enabled IRQ in ascending numeric order,
	// cyclic over the enabled count.
	NthEnabled(i int) uint32
}

// TimerService schedules periodic firing callbacks measured in emulated
// ticks.
type TimerService interface {
	// Add schedules a stopped periodic timer and returns its id.
	Add(reloadTicks uint64, fn func()) int
	// Start arms a timer.
	Start(id int)
	// SetReload changes a timer's interval and restarts its countdown.
	SetReload(id int, reloadTicks uint64)
	// Scale is the hardware-tick scale applied to configured intervals.
	Scale() uint64
}

// InputSource yields the fuzzer's byte stream. ReadByte fails once the
// test case is exhausted; the engine treats that as a silent no-op for the
// current firing event.
type InputSource interface {
	ReadByte() (byte, error)
}

// CodeHooker installs a callback on a code address, fired each time
// execution enters the corresponding block.
type CodeHooker interface {
	AddBlockHook(addr uint64, fn func(addr uint64)) error
}
