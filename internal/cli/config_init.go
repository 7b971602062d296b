package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VeganGarden/MyGarden-sub002/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
func NewConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values at
$MENUCARBON_HOME/config.yaml (default ~/.menucarbon/config.yaml).`,
		Example: `  # Create the default configuration
  menucarbon config init

  # Create configuration elsewhere, overwriting an existing file
  menucarbon config init --path ./menucarbon.yaml --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultPath()
			}
			if !force {
				_, err := os.Stat(path)
				if err == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(err) {
					return fmt.Errorf("cannot access config path %s: %w", path, err)
				}
			}

			if err := config.New().Save(path); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			cmd.Printf("Configuration initialized at %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().StringVar(&path, "path", "", "file to write (default $MENUCARBON_HOME/config.yaml)")

	return cmd
}
