// Command taskloom is the CLI entry point: a worker-pool executor,
// Prometheus metrics, and a demo future/stream pipeline built on pkg/task.
package main

import (
	"log/slog"
	"os"

	"github.com/taskloom/taskloom/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		slog.Error("taskloom exited with error", "err", err)
		os.Exit(1)
	}
}
