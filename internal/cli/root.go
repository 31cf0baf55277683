// Package cli implements the hearth command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/lbaylis/hearth/internal/config"
)

var (
	configPath      string
	workspaceFlag   string
	autoApproveFlag string
	maxStepsFlag    int
	providerFlag    string
	verboseFlag     bool
)

// NewRootCmd creates the top-level hearth CLI command with all subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hearth",
		Short: "A tool-calling agent with approval gating and sandboxed skills",
		Long: `Hearth runs a tool-calling agent loop: the model requests tools over a
JSON protocol, risky calls wait for your approval, and new skills are
tested in a sandbox before they join the tool set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.config/hearth/config.yaml)")
	flags.StringVar(&workspaceFlag, "workspace", "", "workspace root the agent is confined to")
	flags.StringVar(&autoApproveFlag, "auto-approve", "", "auto-approve level: none, read-only, or all")
	flags.IntVar(&maxStepsFlag, "max-steps", 0, "model call cap per conversation turn")
	flags.StringVar(&providerFlag, "provider", "", "model provider: echo or gemini")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "debug-level logging")

	cmd.AddCommand(
		newChatCmd(),
		newServeCmd(),
		newSkillsCmd(),
	)

	return cmd
}

// applyFlagOverrides layers command-line flags on top of the loaded file
// configuration. Unset flags leave the file values alone.
func applyFlagOverrides(cfg *config.Config) {
	if workspaceFlag != "" {
		cfg.WorkspaceRoot = workspaceFlag
	}
	if autoApproveFlag != "" {
		cfg.Agent.AutoApprove = autoApproveFlag
	}
	if maxStepsFlag > 0 {
		cfg.Agent.MaxSteps = maxStepsFlag
	}
	if providerFlag != "" {
		cfg.Provider.Kind = providerFlag
	}
	if verboseFlag {
		cfg.Log.Level = "debug"
	}
}
