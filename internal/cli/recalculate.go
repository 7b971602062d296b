package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRecalculateCmd creates the "recalculate" command.
func NewRecalculateCmd() *cobra.Command {
	var (
		restaurantID string
		itemIDs      []string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Recalculate stored menu items of a restaurant",
		Long: `Recalculate the stored menu items of a restaurant with their stored
parameters and write the results back. A failing item is reported and the
run continues.`,
		Example: `  # Every menu item of restaurant r1
  menucarbon recalculate --restaurant r1

  # Only two items, as JSON
  menucarbon recalculate --restaurant r1 --item m1 --item m2 --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			format, err := resolveOutput(cmd.OutOrStdout(), output)
			if err != nil {
				return err
			}

			a, err := openApp(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer a.Close()

			resp := a.service.RecalculateMenuItems(ctx, restaurantID, itemIDs)
			if err := renderBatchSummary(cmd.OutOrStdout(), format, resp); err != nil {
				return err
			}
			if !resp.OK() {
				return &ExitError{ExitCode: ExitCodeRejected, Reason: fmt.Sprintf("recalculation failed (%d): %s", resp.Code, resp.Error)}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant ID")
	cmd.Flags().StringArrayVar(&itemIDs, "item", nil, "menu item ID (repeatable, default all)")
	cmd.Flags().StringVar(&output, "output", outputAuto, "Output format (table, json)")
	_ = cmd.MarkFlagRequired("restaurant")

	return cmd
}
