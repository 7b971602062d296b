package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
)

// NewFactorsCmd creates the "factors" diagnostic command.
func NewFactorsCmd() *cobra.Command {
	var (
		region string
		output string
	)

	cmd := &cobra.Command{
		Use:   "factors NAME[:CATEGORY]...",
		Short: "Look up emission factors for ingredients",
		Example: `  # Two ingredients in East China
  menucarbon factors --region CN-East Tofu Rice

  # With a category hint
  menucarbon factors --region CN 豆腐:ingredient`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			resp := a.service.GetCarbonFactors(ctx, ParseLookupItems(args), region)
			if err := renderFactors(cmd.OutOrStdout(), format, resp); err != nil {
				return err
			}
			if !resp.OK() {
				return &ExitError{ExitCode: ExitCodeRejected, Reason: fmt.Sprintf("lookup failed (%d): %s", resp.Code, resp.Error)}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "factor region code")
	cmd.Flags().StringVar(&output, "output", outputAuto, "Output format (table, json)")
	_ = cmd.MarkFlagRequired("region")

	return cmd
}

// ParseLookupItems turns NAME[:CATEGORY] arguments into lookup items.
func ParseLookupItems(args []string) []factor.LookupItem {
	items := make([]factor.LookupItem, 0, len(args))
	for _, arg := range args {
		name, category, _ := strings.Cut(arg, ":")
		items = append(items, factor.LookupItem{Name: strings.TrimSpace(name), Category: strings.TrimSpace(category)})
	}
	return items
}
