package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aatumaykin/taskmill/internal/config"
	"github.com/aatumaykin/taskmill/internal/job"
	"github.com/aatumaykin/taskmill/internal/logger"
	"github.com/aatumaykin/taskmill/internal/notifier"
	"github.com/aatumaykin/taskmill/internal/redact"
	"github.com/aatumaykin/taskmill/internal/schedule"
)

const defaultConfigPath = "./config.toml"

// loadConfig loads and validates the configuration, exiting on any problem.
func loadConfig(path string) *config.Config {
	if path == "" {
		path = defaultConfigPath
	}

	if err := config.LoadEnvOptional("./.env"); err != nil {
		fmt.Printf("❌ Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if errors := cfg.Validate(); len(errors) > 0 {
		fmt.Printf("❌ Configuration validation failed:\n")
		for _, e := range errors {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}

	return cfg
}

// newLogger builds the logger from config, exiting on failure.
func newLogger(cfg *config.Config) *logger.Logger {
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Printf("❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	return log
}

// loadJobs reads every manifest under the workspace jobs.d directory,
// exiting with all collected errors when any manifest is broken.
func loadJobs(cfg *config.Config) (*job.Registry, []schedule.Schedule) {
	registry, schedules, errs := job.LoadDir(cfg.Workspace.JobsDir())
	if len(errs) > 0 {
		fmt.Printf("❌ Failed to load job manifests from %s:\n", cfg.Workspace.JobsDir())
		for _, e := range errs {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}
	return registry, schedules
}

// buildRedactor assembles the secret masker from configured literals plus
// the secrets the configuration itself carries.
func buildRedactor(cfg *config.Config) *redact.Redactor {
	secrets := append([]string{}, cfg.Redact.Secrets...)
	if cfg.Notify.Telegram.Token != "" {
		secrets = append(secrets, cfg.Notify.Telegram.Token)
	}
	return redact.New(secrets...)
}

// buildNotifier assembles the notification service from enabled sinks.
func buildNotifier(cfg *config.Config, redactor *redact.Redactor, log *logger.Logger) *notifier.Service {
	var sinks []notifier.Notifier

	if cfg.Notify.Webhook.Enabled {
		hook, err := notifier.NewWebhook(cfg.Notify.Webhook.URL, redactor)
		if err != nil {
			fmt.Printf("❌ Failed to initialize webhook notifier: %v\n", err)
			os.Exit(1)
		}
		sinks = append(sinks, hook)
	}

	if cfg.Notify.Telegram.Enabled {
		tg, err := notifier.NewTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID, redactor)
		if err != nil {
			fmt.Printf("❌ Failed to initialize telegram notifier: %v\n", err)
			os.Exit(1)
		}
		sinks = append(sinks, tg)
	}

	timeout := time.Duration(cfg.Notify.Webhook.TimeoutSeconds) * time.Second
	return notifier.NewService(sinks, redactor, log, timeout)
}
