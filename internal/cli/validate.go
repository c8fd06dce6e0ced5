package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a harness config",
		Long: `Check a harness config against the schema and semantic rules without
running anything.

Example:
  firmfuzz validate harness.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			cfg, err := config.Load(args[0])
			if err != nil {
				if outErr := out.Error(err.Error()); outErr != nil {
					return outErr
				}
				return WrapExitError(ExitFailure, "config validation failed", err)
			}

			return out.Success(fmt.Sprintf("%s: valid (%d triggers, %d blocks)",
				args[0], len(cfg.Triggers), len(cfg.Program.Blocks)))
		},
	}
	return cmd
}
