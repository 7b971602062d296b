package cli

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/VeganGarden/MyGarden-sub002/internal/config"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// isFdTerminal checks if the given file descriptor is a terminal.
func isFdTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

type configKey struct{}

// configFrom returns the configuration loaded by the root command.
func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.New()
}

// NewRootCmd creates the root Cobra command for the menucarbon CLI.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithLoader(ver, config.Load)
}

// NewRootCmdWithLoader creates the root command with an explicit config loader
// for testability.
func NewRootCmdWithLoader(ver string, load func(path string) (*config.Config, error)) *cobra.Command {
	var (
		configPath string
		logResult  *logging.LogResult
	)

	cmd := &cobra.Command{
		Use:           "menucarbon",
		Short:         "Carbon footprint engine for restaurant menu items",
		Long:          "menucarbon: Calculate, classify and recalculate the carbon footprint of menu items",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(configPath)
			if err != nil {
				return err
			}
			if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
				cfg.Store.Path = dbPath
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))

			result := setupLogging(cmd, cfg)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $MENUCARBON_HOME/config.yaml)")
	cmd.PersistentFlags().String("db", "", "SQLite store path (overrides config and MENUCARBON_DB_PATH)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.AddCommand(
		NewCalculateCmd(), NewRecalculateCmd(), NewFactorsCmd(),
		NewServeCmd(), newStoreCmd(), newConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Load emission factors, baselines and menu items
  menucarbon store import seed.yaml

  # Calculate the footprint of one dish
  menucarbon calculate -f request.json

  # Recalculate every menu item of a restaurant
  menucarbon recalculate --restaurant r1

  # Look up emission factors
  menucarbon factors --region CN-East Tofu Rice:ingredient

  # Serve the tools over HTTP
  menucarbon serve --listen 127.0.0.1:8089

  # Show the effective configuration
  menucarbon config show`

// ExitError carries a process exit code out of a command.
type ExitError struct {
	ExitCode int
	Reason   string
}

func (e *ExitError) Error() string {
	return e.Reason
}

// ExitCodeOf returns the exit code for err: 0 for nil, the carried code for
// an ExitError, 1 otherwise.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}
	return 1
}

// newStoreCmd creates the store command group.
func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "store", Short: "Document store commands"}
	cmd.AddCommand(NewStoreImportCmd())
	return cmd
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}
