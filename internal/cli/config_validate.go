package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/VeganGarden/MyGarden-sub002/internal/engine/cache"
)

// NewConfigShowCmd creates the config show command.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Prints the configuration after defaults, the config file and MENUCARBON_* variables are applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := yaml.Marshal(configFrom(cmd.Context()))
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the configuration for semantic correctness.

This includes:
- L1 allocation ratios summing to 1
- Known default tier, meal type and energy type
- Positive result ceiling, gas flow divisor, cache TTLs and batch size`,
		Example: `  # Validate current configuration
  menucarbon config validate

  # Validate and show detailed information
  menucarbon config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd.Context())
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			cmd.Println("Configuration is valid")

			if verbose {
				cmd.Println()
				cmd.Println("Configuration details:")
				cmd.Printf("  Store: %s\n", cfg.Store.Path)
				cmd.Printf("  Default tier: %s\n", cfg.Engine.DefaultLevel)
				cmd.Printf("  Default factor region: %s\n", cfg.Engine.DefaultFactorRegion)
				cmd.Printf("  Cache TTLs: config %s, factors %s\n",
					cache.FormatDuration(cfg.Cache.ConfigTTL), cache.FormatDuration(cfg.Cache.FactorTTL))
				cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}
