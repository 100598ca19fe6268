// ============================================================================
// Taskloom CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: user-facing entry point built on Cobra, mirroring the teacher's
// BuildCLI/subcommand structure (internal/cli/cli.go) with the persistence
// and distributed-mode flags removed.
//
// Command Structure:
//   taskloom
//   ├── run      # Start the worker-pool executor, metrics server, and a
//   │            # demo future/stream pipeline
//   │   └── --config, -c
//   ├── wait     # Run the blocking driver (task.WaitFuture) on one demo
//   │            # future and print the result
//   ├── status   # Report executor queue depth / dispatch counts
//   └── --version / --help
//
// Signal Handling:
//   run captures SIGINT/SIGTERM and gracefully stops the executor, carried
//   in idiom from the teacher's runControllerNode/runWorkerNode.
//
// ============================================================================

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskloom/taskloom/internal/executor"
	"github.com/taskloom/taskloom/pkg/task"
)

var (
	configFile string

	// runningPool mirrors the teacher's globalCtrl: the CLI is a single
	// process demo, so status (when invoked after run in the same process,
	// e.g. interactively via a future Cobra subshell) reads the pool run
	// most recently started. It is nil until run executes.
	runningPool *executor.Pool
)

// BuildCLI assembles the root Cobra command.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskloom",
		Short: "taskloom: a cooperative task-execution substrate",
		Long: `taskloom drives lazily-polled futures and streams to completion
via a task/poll/notify protocol (see pkg/task), backed here by a
worker-pool executor and Prometheus metrics.`,
		Version: "0.1.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (YAML)")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildWaitCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the executor, metrics server, and a demo pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystem()
		},
	}
	return cmd
}

func runSystem() error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := slog.Default()
	log.Info("starting taskloom", "workers", cfg.Executor.WorkerCount, "queue_buffer", cfg.Executor.QueueBuffer)

	var metrics *executor.Metrics
	if cfg.Metrics.Enabled {
		metrics = executor.NewMetrics()
		go func() {
			log.Info("starting metrics server", "port", cfg.Metrics.Port)
			if err := executor.StartServer(cfg.Metrics.Port); err != nil {
				log.Error("metrics server error", "err", err)
			}
		}()
	}

	pool := executor.NewPool(cfg.Executor.QueueBuffer, metrics)
	if err := pool.Start(cfg.Executor.WorkerCount); err != nil {
		return fmt.Errorf("failed to start executor: %w", err)
	}
	runningPool = pool

	// Demo pipeline: a countdown future driven through the executor, and a
	// tick stream drained on its own goroutine with the blocking driver.
	f := countdownFuture(5, 200*time.Millisecond)
	futureFunc := task.FutureFunc[struct{}](func() task.Poll[struct{}] {
		p := f.Poll()
		if p.IsPending() {
			return task.Pending[struct{}]()
		}
		v, err := p.Result()
		if err != nil {
			return task.ReadyErr[struct{}](err)
		}
		log.Info("demo countdown future completed", "result", v)
		return task.Ready(struct{}{})
	})
	task.Execute(task.NewFuture[struct{}](futureFunc), pool)

	go drainStream("demo-ticks", task.NewStream[int](tickStream(5, 300*time.Millisecond)))

	log.Info("taskloom running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("received shutdown signal, stopping gracefully")
	pool.Stop()
	log.Info("taskloom stopped")
	return nil
}

func buildWaitCommand() *cobra.Command {
	var steps int
	var delayMs int

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Run the blocking driver on one demo future and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			sp := task.NewFuture[int](countdownFuture(steps, time.Duration(delayMs)*time.Millisecond))
			v, err := task.WaitFuture[int](sp)
			if err != nil {
				return fmt.Errorf("future failed: %w", err)
			}
			fmt.Printf("future completed with: %d\n", v)
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 3, "number of times the demo future parks before completing")
	cmd.Flags().IntVar(&delayMs, "delay-ms", 100, "delay in milliseconds before each wakeup")

	return cmd
}

func buildStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show executor status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus()
		},
	}
	return cmd
}

func showStatus() error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Taskloom status")
	fmt.Printf("  config file:     %s\n", displayConfigPath())
	fmt.Printf("  worker count:    %d\n", cfg.Executor.WorkerCount)
	fmt.Printf("  queue buffer:    %d\n", cfg.Executor.QueueBuffer)

	if runningPool == nil {
		fmt.Println("  executor:        not running (run 'taskloom run' to start)")
		return nil
	}

	fmt.Println("  executor:        running")
	fmt.Printf("  queue depth:     %d\n", runningPool.QueueDepth())
	fmt.Printf("  runs submitted:  %d\n", runningPool.SubmittedCount())
	fmt.Printf("  runs dispatched: %d\n", runningPool.DispatchedCount())
	fmt.Printf("  wake events:     %d distinct reasons observed\n", demoWakeEvents.Len())

	if cfg.Metrics.Enabled {
		fmt.Printf("  metrics:         http://localhost:%d/metrics\n", cfg.Metrics.Port)
	} else {
		fmt.Println("  metrics:         disabled")
	}

	return nil
}

func displayConfigPath() string {
	if configFile == "" {
		return "(defaults)"
	}
	return configFile
}
