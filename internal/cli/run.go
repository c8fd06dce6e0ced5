package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/config"
	"github.com/firmfuzz/firmfuzz/internal/harness"
	"github.com/firmfuzz/firmfuzz/internal/input"
	"github.com/firmfuzz/firmfuzz/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	InputPath  string
	Database   string
	Cases      int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute test cases with interrupt injection",
		Long: `Run the configured firmware block trace with fuzzer-steered interrupt
injection. Each test case executes between a snapshot capture and restore, so
cases are independent. Traces are persisted when --db is given.

Example:
  firmfuzz run --config harness.yaml --input case.bin --db runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCampaign(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to harness config (required)")
	cmd.Flags().StringVar(&opts.InputPath, "input", "", "path to fuzz input file (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to run database (optional)")
	cmd.Flags().IntVar(&opts.Cases, "cases", 1, "number of test cases to run")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runCampaign(cmd *cobra.Command, opts *RunOptions) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	src, err := input.FromFile(opts.InputPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fuzz input", err)
	}

	h, err := harness.New(cfg, src)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build harness", err)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for i := 0; i < opts.Cases; i++ {
		events := h.RunCase()
		slog.Info("test case executed", "case", i, "trace_events", len(events))

		if st == nil {
			continue
		}
		runID := harness.NewRunID()
		if err := persistRun(ctx, st, runID, opts, events); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist run", err)
		}
		if err := out.Success(runSummary{RunID: runID, Case: i, TraceEvents: len(events)}); err != nil {
			return err
		}
	}

	return nil
}

type runSummary struct {
	RunID       string `json:"run_id"`
	Case        int    `json:"case"`
	TraceEvents int    `json:"trace_events"`
}

func (s runSummary) String() string {
	return "run " + s.RunID
}

func persistRun(ctx context.Context, st *store.Store, runID string, opts *RunOptions, events []harness.TraceEvent) error {
	if err := st.WriteRun(ctx, store.Run{
		ID:         runID,
		ConfigPath: opts.ConfigPath,
		InputPath:  opts.InputPath,
	}); err != nil {
		return err
	}
	return st.WriteTraceEvents(ctx, runID, toStoreEvents(events))
}

func toStoreEvents(events []harness.TraceEvent) []store.TraceEvent {
	out := make([]store.TraceEvent, len(events))
	for i, ev := range events {
		out[i] = store.TraceEvent{
			Seq:     ev.Seq,
			Kind:    string(ev.Kind),
			Trigger: ev.Trigger,
			IRQ:     ev.IRQ,
			Value:   ev.Value,
		}
	}
	return out
}
