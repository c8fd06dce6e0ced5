package trigger

import "github.com/firmfuzz/firmfuzz/internal/snapshot"

// Snapshot is a value copy of every trigger's mutable state at capture
// time. The set of triggers never changes after setup, so restore is a
// positional overwrite with no reconciliation.
//
// Ownership: the caller holding the snapshot owns it exclusively until it
// is restored from or discarded; the registry keeps no reference.
type Snapshot struct {
	states []State
}

// CaptureSnapshot copies the mutable state of all registered triggers.
// Must only be called between firing events (the emulation is paused for
// snapshot operations).
func (r *Registry) CaptureSnapshot() *Snapshot {
	states := make([]State, len(r.triggers))
	for i := range r.triggers {
		states[i] = r.triggers[i].State
	}
	return &Snapshot{states: states}
}

// RestoreSnapshot overwrites trigger state from a snapshot taken on this
// registry. The snapshot stays valid and can be restored from again.
func (r *Registry) RestoreSnapshot(s *Snapshot) {
	for i := range s.states {
		r.triggers[i].State = s.states[i]
	}
}

// DiscardSnapshot releases a snapshot. It must not be used afterwards.
func (r *Registry) DiscardSnapshot(s *Snapshot) {
	s.states = nil
}

// AttachSnapshots wires the registry into the harness-wide snapshot
// orchestrator. Called once at harness initialization.
func (r *Registry) AttachSnapshots(orc *snapshot.Orchestrator) {
	orc.Register(snapshot.Hooks{
		Name:    "interrupt-triggers",
		Capture: func() any { return r.CaptureSnapshot() },
		Restore: func(blob any) { r.RestoreSnapshot(blob.(*Snapshot)) },
		Discard: func(blob any) { r.DiscardSnapshot(blob.(*Snapshot)) },
	})
}
