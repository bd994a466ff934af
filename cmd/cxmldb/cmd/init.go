package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/config"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		force    bool
		printKey bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file with a generated API key",
		Long: `Init writes a configuration file with defaults and a freshly generated
API key for the REST server.

Examples:
  cxmldb init
  cxmldb init --config ./cxmldb.yaml --data-dir ./data --print-key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ConfigExists(a.configPath) && !force {
				cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", a.configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(a.configPath, a.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("failed to bootstrap config: %w", err)
			}

			cmd.Printf("Configuration created at %s\n", a.configPath)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			if printKey {
				cmd.Printf("API key: %s\n", cfg.Security.APIKey)
			}
			cmd.Printf("\nYou can now start the server with:\n")
			cmd.Printf("  cxmldb serve --config %s\n", a.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&printKey, "print-key", false, "Print the generated API key")
	return cmd
}
