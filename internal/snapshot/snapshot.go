// Package snapshot coordinates state capture and rollback across the
// harness subsystems.
//
// Each subsystem with mutable state (trigger registry, timers, NVIC pending
// bits, fuzz input cursor) registers a set of Hooks once at harness
// initialization. The outer fuzzing loop then captures and restores all of
// them as a unit between test-case executions.
//
// Execution is single-threaded and cooperative: capture/restore/discard are
// only called while the emulation core is paused, never concurrently with a
// firing event, so no locking is needed.
package snapshot

import "log/slog"

// Hooks is the capture/restore/discard contract a subsystem registers with
// the orchestrator. Blobs are opaque to the orchestrator; a subsystem gets
// back exactly the value its Capture returned.
type Hooks struct {
	// Name identifies the subsystem in logs.
	Name string

	// Capture returns an opaque copy of the subsystem's mutable state.
	Capture func() any

	// Restore overwrites the subsystem's mutable state from a blob
	// previously returned by Capture.
	Restore func(blob any)

	// Discard releases a blob without restoring it. May be nil if the
	// subsystem has nothing to release beyond garbage collection.
	Discard func(blob any)
}

// Orchestrator holds the registered subsystems in registration order.
//
// INVARIANT: registration order never changes after harness setup. Capture
// and Restore walk the same order, so a Set's blobs always line up with the
// subsystems that produced them.
type Orchestrator struct {
	subs []Hooks
}

// New creates an empty orchestrator.
func New() *Orchestrator {
	return &Orchestrator{}
}

// Register adds a subsystem. Called once per subsystem during harness
// initialization, before the first Capture.
func (o *Orchestrator) Register(h Hooks) {
	o.subs = append(o.subs, h)
	slog.Debug("snapshot subsystem registered", "name", h.Name, "total", len(o.subs))
}

// Subsystems returns the number of registered subsystems.
func (o *Orchestrator) Subsystems() int {
	return len(o.subs)
}

// Set is one captured snapshot across all subsystems. It is exclusively
// owned by the caller until passed to Restore or Discard.
type Set struct {
	blobs []any
}

// Capture takes a snapshot of every registered subsystem.
func (o *Orchestrator) Capture() *Set {
	s := &Set{blobs: make([]any, len(o.subs))}
	for i, sub := range o.subs {
		s.blobs[i] = sub.Capture()
	}
	return s
}

// Restore rolls every subsystem back to the captured state. The set remains
// valid and may be restored from again.
func (o *Orchestrator) Restore(s *Set) {
	for i, sub := range o.subs {
		sub.Restore(s.blobs[i])
	}
}

// Discard releases a set. The set must not be used afterwards.
func (o *Orchestrator) Discard(s *Set) {
	for i, sub := range o.subs {
		if sub.Discard != nil {
			sub.Discard(s.blobs[i])
		}
	}
	s.blobs = nil
}
