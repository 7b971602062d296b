package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/VeganGarden/MyGarden-sub002/internal/server"
)

// NewServeCmd creates the "serve" command.
func NewServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculation tools over HTTP",
		Long: `Serve calculate_menu_item_carbon, recalculate_menu_items and
get_carbon_factors as MCP tool calls. POST a CallToolRequest to /; metrics are
on /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := configFrom(ctx)
			if listen == "" {
				listen = cfg.Server.Listen
			}

			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.service, listen, a.registry)
			logger.Info().Ctx(ctx).Strs("tools", srv.Names()).Str("store", cfg.Store.Path).Msg("starting tool server")
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}
