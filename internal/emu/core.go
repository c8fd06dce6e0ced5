// Package emu is the execution core the harness drives triggers with.
//
// The real target runs under a full CPU emulator; this core replays a
// recorded basic-block trace instead. That is all the trigger subsystem can
// observe anyway: it hooks block addresses and consumes tick advancement,
// so a block trace exercises it exactly as instruction-level emulation
// would, while staying deterministic and dependency-free.
package emu

import (
	"log/slog"

	"github.com/firmfuzz/firmfuzz/internal/timer"
)

// BlockFn is invoked when execution reaches a hooked block address.
type BlockFn func(addr uint64)

// Core dispatches block hooks over a basic-block trace and advances the
// timer service as emulated time passes.
type Core struct {
	hooks         map[uint64][]BlockFn
	timers        *timer.Service
	ticksPerBlock uint64
}

// New creates a core that accounts ticksPerBlock emulated ticks to every
// executed block.
func New(timers *timer.Service, ticksPerBlock uint64) *Core {
	if ticksPerBlock == 0 {
		ticksPerBlock = 1
	}
	return &Core{
		hooks:         make(map[uint64][]BlockFn),
		timers:        timers,
		ticksPerBlock: ticksPerBlock,
	}
}

// AddBlockHook installs a hook fired every time execution enters the block
// at addr. Multiple hooks on one address fire in installation order.
func (c *Core) AddBlockHook(addr uint64, fn func(addr uint64)) error {
	if fn == nil {
		return errNilHook
	}
	c.hooks[addr] = append(c.hooks[addr], fn)
	return nil
}

// Execute runs one pass over a block trace: for each block, fire its hooks,
// then advance timers. Hooks and timer callbacks run synchronously on the
// caller's goroutine; there is no parallelism between firing events.
func (c *Core) Execute(blocks []uint64) {
	for _, addr := range blocks {
		for _, fn := range c.hooks[addr] {
			fn(addr)
		}
		c.timers.Tick(c.ticksPerBlock)
	}
}

// Run executes the trace loops times.
func (c *Core) Run(blocks []uint64, loops int) {
	slog.Debug("executing block trace", "blocks", len(blocks), "loops", loops)
	for i := 0; i < loops; i++ {
		c.Execute(blocks)
	}
}
