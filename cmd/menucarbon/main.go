package main

import (
	"context"
	"fmt"
	"os"

	"github.com/VeganGarden/MyGarden-sub002/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // Set by the linker.

func main() {
	os.Exit(extractExitCode(run()))
}

func run() error {
	root := cli.NewRootCmd(version)
	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// extractExitCode maps the command error to the process exit code.
func extractExitCode(err error) int {
	return cli.ExitCodeOf(err)
}
