package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/config"
)

// NewTriggersCommand creates the triggers command.
func NewTriggersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "triggers <config>",
		Short:         "Print the parsed interrupt trigger table",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			cfg, err := config.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}

			if rootOpts.Format == "json" {
				return out.Success(cfg.Triggers)
			}
			return out.Success(renderTriggerTable(cfg))
		},
	}
	return cmd
}

func renderTriggerTable(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-12s %-14s %10s %5s %6s %6s %10s\n",
		"NAME", "TRIGGER", "FUZZ", "ADDRESS", "IRQ", "SKIPS", "PENDS", "INTERVAL")
	for _, name := range cfg.TriggerNames() {
		spec := cfg.Triggers[name]
		fmt.Fprintf(&b, "%-20s %-12s %-14s %#10x %5d %6d %6d %10d\n",
			name, spec.TriggerMode, spec.FuzzMode, spec.Address, spec.IRQ,
			spec.NumSkips, spec.NumPends, spec.EveryNthTick)
	}
	return strings.TrimRight(b.String(), "\n")
}
