package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/taskmill/internal/runlog"
	"github.com/aatumaykin/taskmill/internal/runner"
)

var runConfigPath string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:     "run <job>",
	Aliases: []string{"run-now"},
	Short:   "Run a job immediately, outside its schedule",
	Long: `Execute the named job right now with the same timeout, retry and
overlap semantics as a scheduled run. The outcome is appended to the run
log and notifications fire as usual.

Exit codes: 0 on success, 1 on failure or timeout, 2 when the job is unknown.`,
	Args: cobra.ExactArgs(1),
	Run:  runHandler,
}

func runHandler(cmd *cobra.Command, args []string) {
	jobName := args[0]

	cfg := loadConfig(runConfigPath)
	log := newLogger(cfg)
	registry, _ := loadJobs(cfg)

	j, err := registry.Lookup(jobName)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		fmt.Println("Known jobs:")
		for _, name := range registry.SortedNames() {
			fmt.Printf("  - %s\n", name)
		}
		os.Exit(2)
	}

	store := runlog.NewStore(cfg.Workspace.Path, log)
	redactor := buildRedactor(cfg)
	notifySvc := buildNotifier(cfg, redactor, log)

	run := runner.New(store, notifySvc, redactor, nil, log, runner.Config{
		MaxAttempts:    cfg.Runner.MaxAttempts,
		InitialBackoff: time.Duration(cfg.Runner.InitialBackoffSeconds) * time.Second,
		MaxBackoff:     time.Duration(cfg.Runner.MaxBackoffSeconds) * time.Second,
	})

	// Ctrl+C cancels the run; the outcome is still recorded.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("▶️  Running job %s (timeout %s)\n", j.Name, j.Timeout)

	rec, err := run.Run(ctx, j)
	// Notifications deliver asynchronously; drain them before exiting.
	run.Wait()
	if err != nil {
		fmt.Printf("❌ Failed to record run outcome: %v\n", err)
		os.Exit(1)
	}

	switch rec.Status {
	case runlog.StatusSuccess:
		fmt.Printf("✅ %s succeeded in %s (attempts: %d)\n", j.Name, rec.Duration().Round(time.Millisecond), rec.AttemptCount)
		if rec.Output != "" {
			fmt.Println(rec.Output)
		}
	case runlog.StatusTimedOut:
		fmt.Printf("⏰ %s timed out after %s\n", j.Name, j.Timeout)
		os.Exit(1)
	default:
		fmt.Printf("❌ %s failed after %d attempts: %s\n", j.Name, rec.AttemptCount, rec.ErrorMessage)
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
}
