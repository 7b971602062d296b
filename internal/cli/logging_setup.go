package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/VeganGarden/MyGarden-sub002/internal/config"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// setupLogging configures logging based on the loaded config and CLI flags.
func setupLogging(cmd *cobra.Command, cfg *config.Config) logging.LogResult {
	loggingCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logging.OutputStderr,
	}
	if cfg.Logging.File != "" {
		loggingCfg.Output = logging.OutputFile
		loggingCfg.File = cfg.Logging.File
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.Output = logging.OutputStderr
		loggingCfg.File = ""
	}

	if loggingCfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(loggingCfg.File), 0o700); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
		}
	}

	result := logging.NewLoggerWithPath(loggingCfg)
	logger = logging.ComponentLogger(result.Logger, "cli")
	logging.SetDefault(result.Logger)

	if result.UsingFile {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Logging to %s\n", result.FilePath)
	} else if result.FallbackUsed {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not open log file, logging to stderr: %s\n",
			result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Info().Ctx(ctx).Str("command", cmd.Name()).Msg("command started")

	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(_ *cobra.Command, logResult *logging.LogResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
