package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestWriteRun_DuplicateIDIgnored(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := Run{ID: "run-1", ConfigPath: "config.yaml", InputPath: "case.bin"}
	require.NoError(t, s.WriteRun(ctx, run))

	run.ConfigPath = "other.yaml"
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", got.ConfigPath, "first write wins")
	assert.NotEmpty(t, got.CreatedAt)
}

func TestReadRun_MissingIsError(t *testing.T) {
	s := testStore(t)
	_, err := s.ReadRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestTraceRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-1", ConfigPath: "c", InputPath: "i"}))

	events := []TraceEvent{
		{Seq: 1, Kind: "set_pending", Trigger: "uart_rx", IRQ: 22},
		{Seq: 2, Kind: "set_reload", Trigger: "systick", Value: 4000},
		{Seq: 3, Kind: "set_pending", Trigger: "systick", IRQ: 3},
	}
	require.NoError(t, s.WriteTraceEvents(ctx, "run-1", events))

	got, err := s.ReadTrace(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestWriteTraceEvents_DuplicateSeqIgnored(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-1", ConfigPath: "c", InputPath: "i"}))
	first := []TraceEvent{{Seq: 1, Kind: "set_pending", Trigger: "a", IRQ: 4}}
	require.NoError(t, s.WriteTraceEvents(ctx, "run-1", first))
	require.NoError(t, s.WriteTraceEvents(ctx, "run-1", []TraceEvent{
		{Seq: 1, Kind: "set_pending", Trigger: "b", IRQ: 9},
	}))

	got, err := s.ReadTrace(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestReadTrace_EmptyRun(t *testing.T) {
	s := testStore(t)
	got, err := s.ReadTrace(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-a", ConfigPath: "c", InputPath: "i"}))
	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-b", ConfigPath: "c", InputPath: "i"}))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{"run-a", "run-b"}, ids)
}
