package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/config"
	"github.com/firmfuzz/firmfuzz/internal/harness"
	"github.com/firmfuzz/firmfuzz/internal/input"
	"github.com/firmfuzz/firmfuzz/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute a recorded run and verify its trace",
		Long: `Re-run a persisted test case with the same config and fuzz input, then
compare the fresh trace against the stored one. Any divergence means the
harness lost determinism and exits with status 1.

Example:
  firmfuzz replay --db runs.db --run 0190d3a0-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayRun(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to run database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to replay (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func replayRun(cmd *cobra.Command, opts *ReplayOptions) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	recorded, err := st.ReadTrace(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	cfg, err := config.Load(run.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	src, err := input.FromFile(run.InputPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fuzz input", err)
	}

	h, err := harness.New(cfg, src)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build harness", err)
	}

	fresh := toStoreEvents(h.RunCase())
	if diff := firstTraceDiff(recorded, fresh); diff != "" {
		if err := out.Error(diff); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("replay of run %s diverged: %s", run.ID, diff))
	}

	return out.Success(fmt.Sprintf("replay of run %s is deterministic (%d trace events)", run.ID, len(fresh)))
}

// firstTraceDiff returns a description of the first divergence between a
// recorded and a fresh trace, or "" if they match.
func firstTraceDiff(recorded, fresh []store.TraceEvent) string {
	if len(recorded) != len(fresh) {
		return fmt.Sprintf("trace length changed: recorded %d, replayed %d", len(recorded), len(fresh))
	}
	for i := range recorded {
		if recorded[i] != fresh[i] {
			return fmt.Sprintf("trace diverges at seq %d: recorded %+v, replayed %+v",
				recorded[i].Seq, recorded[i], fresh[i])
		}
	}
	return ""
}
