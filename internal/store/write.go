package store

import (
	"context"
	"fmt"
)

// Run identifies one test-case execution.
type Run struct {
	ID         string
	ConfigPath string
	InputPath  string
	CreatedAt  string
}

// TraceEvent is one persisted controller interaction.
type TraceEvent struct {
	Seq     int
	Kind    string
	Trigger string
	IRQ     uint32
	Value   uint64
}

// WriteRun inserts a run record. Duplicate IDs are silently ignored so a
// re-run with the same id is idempotent.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, config_path, input_path)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.ConfigPath, run.InputPath)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	return nil
}

// WriteTraceEvents inserts a run's trace in one transaction, in sequence
// order. Duplicate (run, seq) pairs are silently ignored.
func (s *Store) WriteTraceEvents(ctx context.Context, runID string, events []TraceEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write trace %s: %w", runID, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace_events (run_id, seq, kind, trigger_name, irq, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write trace %s: %w", runID, err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, runID, ev.Seq, ev.Kind, ev.Trigger, ev.IRQ, int64(ev.Value)); err != nil {
			return fmt.Errorf("write trace %s seq %d: %w", runID, ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write trace %s: %w", runID, err)
	}
	return nil
}
