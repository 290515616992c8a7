// Package config provides configuration loading and validation for Taskmill.
// It supports TOML configuration files with environment variable expansion,
// default values, and comprehensive validation.
//
// Configuration structure:
//   - [workspace]: Workspace directory holding jobs.d/ and the run log
//   - [logging]: Logging level, format, and output
//   - [scheduler]: Poll interval for schedule checks
//   - [runner]: Retry attempts and backoff bounds
//   - [workers]: Worker pool sizing
//   - [metrics]: Prometheus endpoint
//   - [notify]: Outcome notification sinks (webhook, Telegram)
//   - [redact]: Extra literal secrets to mask in records and notifications
//
// Environment variables:
// Environment variables can be referenced using ${VAR} or ${VAR:default} syntax.
// For example: token = "${TASKMILL_TELEGRAM_TOKEN}"
package config

import "path/filepath"

// Config represents the main application configuration.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Logging   LoggingConfig   `toml:"logging"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Runner    RunnerConfig    `toml:"runner"`
	Workers   WorkersConfig   `toml:"workers"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Notify    NotifyConfig    `toml:"notify"`
	Redact    RedactConfig    `toml:"redact"`
}

const (
	// JobsSubdirectory is the subdirectory with job manifests within workspace
	JobsSubdirectory = "jobs.d"
)

// WorkspaceConfig holds the workspace directory settings.
type WorkspaceConfig struct {
	Path string `toml:"path"`
}

// JobsDir returns the path to the job manifest directory.
func (c *WorkspaceConfig) JobsDir() string {
	return filepath.Join(c.Path, JobsSubdirectory)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// SchedulerConfig holds the poll loop settings.
type SchedulerConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
}

// RunnerConfig holds retry settings applied to every job run.
type RunnerConfig struct {
	MaxAttempts           int `toml:"max_attempts"`
	InitialBackoffSeconds int `toml:"initial_backoff_seconds"`
	MaxBackoffSeconds     int `toml:"max_backoff_seconds"`
}

// WorkersConfig holds worker pool sizing.
type WorkersConfig struct {
	PoolSize  int `toml:"pool_size"`
	QueueSize int `toml:"queue_size"`
}

// MetricsConfig holds the prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// NotifyConfig holds notification sink settings.
type NotifyConfig struct {
	Webhook  WebhookConfig        `toml:"webhook"`
	Telegram TelegramNotifyConfig `toml:"telegram"`
}

// WebhookConfig holds the HTTP webhook sink settings.
type WebhookConfig struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TelegramNotifyConfig holds the Telegram sink settings.
type TelegramNotifyConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
	ChatID  int64  `toml:"chat_id"`
}

// RedactConfig lists literal secrets to mask anywhere they would surface.
type RedactConfig struct {
	Secrets []string `toml:"secrets"`
}
