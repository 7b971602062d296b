package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
	"github.com/VeganGarden/MyGarden-sub002/internal/validation"
)

// Exit codes of calculate.
const (
	ExitCodeRejected = 2
	ExitCodeHigh     = 3
)

// CalculateParams holds the parameters of the calculate command.
type CalculateParams struct {
	File       string
	Output     string
	ExitOnHigh bool
	ExitCode   int
}

// NewCalculateCmd creates the "calculate" command.
func NewCalculateCmd() *cobra.Command {
	var params CalculateParams

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the footprint of one menu item",
		Long: `Calculate the carbon footprint of a menu item from a JSON request.

The request is validated against the request schema, the restaurant's region
is filled in from the store, and the result is classified against the
applicable baseline.`,
		Example: `  # Calculate from a file
  menucarbon calculate -f request.json

  # Read the request from stdin and print JSON
  cat request.json | menucarbon calculate -f - --output json

  # Fail the pipeline when the dish is above its baseline
  menucarbon calculate -f request.json --exit-on-high`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeCalculate(cmd, params)
		},
	}

	cmd.Flags().StringVarP(&params.File, "file", "f", "", "request JSON file, - for stdin")
	cmd.Flags().StringVar(&params.Output, "output", outputAuto, "Output format (table, json)")
	cmd.Flags().BoolVar(&params.ExitOnHigh, "exit-on-high", false, "exit non-zero when the carbon level is high")
	cmd.Flags().IntVar(&params.ExitCode, "exit-code", ExitCodeHigh, "exit code used by --exit-on-high")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func executeCalculate(cmd *cobra.Command, params CalculateParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	raw, err := readInput(cmd.InOrStdin(), params.File)
	if err != nil {
		return err
	}

	format, err := resolveOutput(cmd.OutOrStdout(), params.Output)
	if err != nil {
		return err
	}

	var resp engine.Response[*engine.Data]
	req, err := validation.DecodeRequest(raw)
	if err != nil {
		resp = engine.Response[*engine.Data]{Code: engine.CodeInvalid, Message: "invalid request", Error: err.Error()}
	} else {
		a, openErr := openApp(ctx, configFrom(ctx))
		if openErr != nil {
			return openErr
		}
		defer a.Close()
		resp = a.service.CalculateMenuItemCarbon(ctx, req)
	}

	if err := renderCalculation(cmd.OutOrStdout(), format, resp); err != nil {
		return err
	}
	if !resp.OK() {
		log.Debug().Ctx(ctx).Int("code", resp.Code).Str("error", resp.Error).Msg("calculation rejected")
		return &ExitError{ExitCode: ExitCodeRejected, Reason: fmt.Sprintf("calculation failed (%d): %s", resp.Code, resp.Error)}
	}
	if params.ExitOnHigh && resp.Data.CarbonLevel == carbon.CarbonHigh {
		return &ExitError{ExitCode: params.ExitCode, Reason: resp.Data.OptimizationFlag.WarningMessage}
	}
	return nil
}

// readInput reads path, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("--file is required")
	}
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	return raw, nil
}
