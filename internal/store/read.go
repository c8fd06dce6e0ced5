package store

import (
	"context"
	"fmt"
)

// ReadTrace returns a run's trace events in sequence order.
func (s *Store) ReadTrace(ctx context.Context, runID string) ([]TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, trigger_name, irq, value
		FROM trace_events
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", runID, err)
	}
	defer rows.Close()

	var events []TraceEvent
	for rows.Next() {
		var ev TraceEvent
		var value int64
		if err := rows.Scan(&ev.Seq, &ev.Kind, &ev.Trigger, &ev.IRQ, &value); err != nil {
			return nil, fmt.Errorf("read trace %s: %w", runID, err)
		}
		ev.Value = uint64(value)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trace %s: %w", runID, err)
	}
	return events, nil
}

// ReadRun returns a run record by id.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, config_path, input_path, created_at
		FROM runs
		WHERE id = ?
	`, runID).Scan(&run.ID, &run.ConfigPath, &run.InputPath, &run.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, config_path, input_path, created_at
		FROM runs
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ConfigPath, &run.InputPath, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
