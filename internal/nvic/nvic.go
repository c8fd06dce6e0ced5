// Package nvic models the interrupt controller surface the trigger
// subsystem consumes: which IRQs are enabled, which are pending.
//
// This is deliberately not a faithful Cortex-M NVIC. Priorities, preemption
// and active state are out of scope; the fuzzing harness only needs the
// enabled set for interrupt-source selection and the pending set as the
// observable effect of an injection.
package nvic

import (
	"math/bits"

	"github.com/firmfuzz/firmfuzz/internal/snapshot"
)

// NumIRQs is the number of interrupt lines tracked (IRQ 0..255).
// IRQ 0 is reserved as "none selected" by the trigger subsystem and is never
// asserted; it still occupies a bit so IRQ numbers map directly to bits.
const NumIRQs = 256

const words = NumIRQs / 64

type bitmap [words]uint64

func (b *bitmap) set(irq uint32)      { b[irq/64] |= 1 << (irq % 64) }
func (b *bitmap) clear(irq uint32)    { b[irq/64] &^= 1 << (irq % 64) }
func (b *bitmap) test(irq uint32) bool { return b[irq/64]&(1<<(irq%64)) != 0 }

func (b *bitmap) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Controller tracks enabled and pending IRQ sets.
//
// The enabled set is topology: the firmware configuration decides it before
// fuzzing begins. The pending set is mutable run state and participates in
// snapshot/restore.
type Controller struct {
	enabled bitmap
	pending bitmap
}

// New creates a controller with no IRQs enabled or pending.
func New() *Controller {
	return &Controller{}
}

// Enable marks an IRQ as enabled.
func (c *Controller) Enable(irq uint32) {
	c.enabled.set(irq)
}

// Disable removes an IRQ from the enabled set.
func (c *Controller) Disable(irq uint32) {
	c.enabled.clear(irq)
}

// Enabled reports whether an IRQ is enabled.
func (c *Controller) Enabled(irq uint32) bool {
	return c.enabled.test(irq)
}

// NumEnabled returns the count of currently enabled IRQs.
func (c *Controller) NumEnabled() int {
	return c.enabled.count()
}

// NthEnabled returns the i-th enabled IRQ in ascending numeric order.
// Indexing is cyclic: i wraps modulo the enabled count. Returns 0 when no
// IRQs are enabled.
func (c *Controller) NthEnabled(i int) uint32 {
	n := c.enabled.count()
	if n == 0 {
		return 0
	}
	i %= n
	for irq := uint32(0); irq < NumIRQs; irq++ {
		if !c.enabled.test(irq) {
			continue
		}
		if i == 0 {
			return irq
		}
		i--
	}
	return 0
}

// SetPending asserts an IRQ as pending.
func (c *Controller) SetPending(irq uint32) {
	c.pending.set(irq)
}

// ClearPending deasserts a pending IRQ, as servicing it would.
func (c *Controller) ClearPending(irq uint32) {
	c.pending.clear(irq)
}

// IsPending reports whether an IRQ is pending.
func (c *Controller) IsPending(irq uint32) bool {
	return c.pending.test(irq)
}

// Pending returns the pending IRQs in ascending order.
func (c *Controller) Pending() []uint32 {
	var out []uint32
	for irq := uint32(0); irq < NumIRQs; irq++ {
		if c.pending.test(irq) {
			out = append(out, irq)
		}
	}
	return out
}

// AttachSnapshots registers the pending set with the orchestrator. The
// enabled set is fixed topology and is not captured.
func (c *Controller) AttachSnapshots(orc *snapshot.Orchestrator) {
	orc.Register(snapshot.Hooks{
		Name:    "nvic-pending",
		Capture: func() any { return c.pending },
		Restore: func(blob any) { c.pending = blob.(bitmap) },
	})
}
