package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aatumaykin/taskmill/internal/logger"
	"github.com/aatumaykin/taskmill/internal/metrics"
	"github.com/aatumaykin/taskmill/internal/runlog"
	"github.com/aatumaykin/taskmill/internal/runner"
	"github.com/aatumaykin/taskmill/internal/schedule"
	"github.com/aatumaykin/taskmill/internal/scheduler"
	"github.com/aatumaykin/taskmill/internal/version"
	"github.com/aatumaykin/taskmill/internal/workers"
)

var (
	serveConfigPath string
	serveLogLevel   string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Taskmill scheduler (main command)",
	Long: `Start the scheduler daemon: load job manifests, check schedules on the
configured poll interval and execute due jobs through the worker pool.
Handles graceful shutdown on SIGINT/SIGTERM.`,
	Run: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) {
	cfg := loadConfig(serveConfigPath)

	// Override log level if flag is set
	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}

	log := newLogger(cfg)

	log.Info("🚀 "+version.FormatStartupMessage(),
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "workspace", Value: cfg.Workspace.Path},
		logger.Field{Key: "poll_interval_seconds", Value: cfg.Scheduler.PollIntervalSeconds},
	)

	registry, schedules := loadJobs(cfg)
	if registry.Len() == 0 {
		log.Warn("no jobs registered, nothing to schedule",
			logger.Field{Key: "jobs_dir", Value: cfg.Workspace.JobsDir()})
	}
	log.Info("📋 Jobs loaded",
		logger.Field{Key: "jobs", Value: registry.Len()},
		logger.Field{Key: "schedules", Value: len(schedules)})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var m *metrics.Metrics
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		m = metrics.Init("taskmill", nil)
		m.SetJobsRegistered(registry.Len())

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}

		go func() {
			log.Info("📊 Metrics endpoint listening",
				logger.Field{Key: "addr", Value: cfg.Metrics.Listen})
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", err)
			}
		}()
	}

	store := runlog.NewStore(cfg.Workspace.Path, log)
	redactor := buildRedactor(cfg)
	notifySvc := buildNotifier(cfg, redactor, log)

	run := runner.New(store, notifySvc, redactor, m, log, runner.Config{
		MaxAttempts:    cfg.Runner.MaxAttempts,
		InitialBackoff: time.Duration(cfg.Runner.InitialBackoffSeconds) * time.Second,
		MaxBackoff:     time.Duration(cfg.Runner.MaxBackoffSeconds) * time.Second,
	})

	pool := workers.NewPool(cfg.Workers.PoolSize, cfg.Workers.QueueSize, log)
	pool.Start()

	trigger := schedule.NewTrigger(schedules, time.Now())
	sched := scheduler.New(trigger, registry, run, pool,
		log, time.Duration(cfg.Scheduler.PollIntervalSeconds)*time.Second)

	if err := sched.Start(ctx); err != nil {
		log.Error("Failed to start scheduler", err)
		os.Exit(1)
	}

	exitCode := 0
	select {
	case sig := <-sigChan:
		log.Info("🛑 Shutdown signal received",
			logger.Field{Key: "signal", Value: sig.String()})
	case err := <-sched.Errors():
		log.Error("scheduler stopped on fatal error", err)
		exitCode = 1
	}

	cancel()
	sched.Stop()
	pool.Stop()
	run.Wait()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	log.Info("👋 Taskmill stopped")
	os.Exit(exitCode)
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	serveCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
}
