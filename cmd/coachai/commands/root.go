// Package commands defines all Cobra CLI commands for the coachai binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/edukit/coachai-go/internal/audit"
	"github.com/edukit/coachai-go/internal/config"
	"github.com/edukit/coachai-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coachai",
		Short: "CoachAI — an instructional coaching assistant for educators",
		Long: `CoachAI is a retrieval-augmented coaching assistant for K-12 educators.

It answers professional-learning and curriculum-planning questions grounded
in an ingested library of education texts, citing the passages it draws on.
Two coaching personas are available: a PLC facilitation coach and a
standards-based curriculum planning coach.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.coachai/config.yaml).
See 'coachai --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.coachai/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAgentsCmd(),
		NewVersionCmd(),
	)

	return root
}
