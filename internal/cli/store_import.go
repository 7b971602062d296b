package cli

import (
	"github.com/spf13/cobra"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
)

// NewStoreImportCmd creates the "store import" command.
func NewStoreImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a YAML seed into the store",
		Long: `Import emission factors, factor regions, configuration entries, baselines,
restaurants, recipes and menu items from a YAML seed. Rows with the same key
are replaced.`,
		Example: `  menucarbon store import seed.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.store.ImportFile(ctx, args[0])
			if err != nil {
				return err
			}
			cmd.Printf("Imported %s rows (%d factors, %d baselines, %d menu items)\n",
				carbon.FormatNumber(int64(res.Total())), res.Factors, res.Baselines, res.MenuItems)
			return nil
		},
	}
}
