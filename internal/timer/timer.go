// Package timer provides the deterministic periodic-callback service used
// by time-based interrupt triggers.
//
// Timers count emulated ticks, not wall-clock time. The execution core
// advances the service by the number of ticks each basic block accounts for,
// and due timers fire synchronously from that same call, in timer-id order.
// This keeps firing order fully reproducible across runs.
package timer

import (
	"github.com/firmfuzz/firmfuzz/internal/snapshot"
)

// DefaultScale is the hardware-tick scale applied when the config does not
// override it: one emulated tick per counted tick.
const DefaultScale = 1

// state is the mutable, snapshot-visible part of a timer.
type state struct {
	reload    uint64
	countdown uint64
	started   bool
}

type record struct {
	state
	fn func()
}

// Service owns all timers for one harness instance.
type Service struct {
	scale  uint64
	timers []record
}

// New creates a service with the given hardware-tick scale.
func New(scale uint64) *Service {
	if scale == 0 {
		scale = DefaultScale
	}
	return &Service{scale: scale}
}

// Scale returns the hardware-tick scale. Registration multiplies configured
// intervals by this before scheduling.
func (s *Service) Scale() uint64 {
	return s.scale
}

// Add schedules a periodic callback every reload ticks and returns its id.
// The timer is created stopped; call Start to arm it.
func (s *Service) Add(reload uint64, fn func()) int {
	if reload == 0 {
		reload = 1
	}
	s.timers = append(s.timers, record{
		state: state{reload: reload, countdown: reload},
		fn:    fn,
	})
	return len(s.timers) - 1
}

// Start arms a timer.
func (s *Service) Start(id int) {
	s.timers[id].started = true
}

// Stop disarms a timer. Its countdown is preserved.
func (s *Service) Stop(id int) {
	s.timers[id].started = false
}

// SetReload changes a timer's reload interval and restarts its countdown
// from the new value.
func (s *Service) SetReload(id int, reload uint64) {
	if reload == 0 {
		reload = 1
	}
	s.timers[id].reload = reload
	s.timers[id].countdown = reload
}

// Reload returns a timer's current reload interval.
func (s *Service) Reload(id int) uint64 {
	return s.timers[id].reload
}

// Started reports whether a timer is armed.
func (s *Service) Started(id int) bool {
	return s.timers[id].started
}

// Tick advances all armed timers by n ticks. A timer whose countdown
// reaches zero fires and reloads; with n larger than the interval it fires
// once per elapsed interval. Callbacks run synchronously, in timer-id order
// within each tick.
func (s *Service) Tick(n uint64) {
	for ; n > 0; n-- {
		for id := range s.timers {
			t := &s.timers[id]
			if !t.started {
				continue
			}
			t.countdown--
			if t.countdown == 0 {
				t.countdown = t.reload
				t.fn()
			}
		}
	}
}

// AttachSnapshots registers the mutable timer state (countdowns, reload
// values, armed flags) with the orchestrator. Callbacks and the scale are
// topology and are not captured.
func (s *Service) AttachSnapshots(orc *snapshot.Orchestrator) {
	orc.Register(snapshot.Hooks{
		Name: "timers",
		Capture: func() any {
			states := make([]state, len(s.timers))
			for i := range s.timers {
				states[i] = s.timers[i].state
			}
			return states
		},
		Restore: func(blob any) {
			states := blob.([]state)
			for i := range states {
				s.timers[i].state = states[i]
			}
		},
	})
}
