package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads, parses and prepares a configuration file. Defaults are applied
// before environment expansion; validation is the caller's step.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errors []error

	if c.Workspace.Path == "" {
		errors = append(errors, fmt.Errorf("workspace.path is required"))
	} else if err := validatePath(c.Workspace.Path, "workspace.path"); err != nil {
		errors = append(errors, err)
	}

	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Scheduler.PollIntervalSeconds < 1 {
		errors = append(errors, fmt.Errorf("scheduler.poll_interval_seconds must be >= 1"))
	}

	if c.Runner.MaxAttempts < 1 {
		errors = append(errors, fmt.Errorf("runner.max_attempts must be >= 1"))
	}
	if c.Runner.InitialBackoffSeconds < 1 {
		errors = append(errors, fmt.Errorf("runner.initial_backoff_seconds must be >= 1"))
	}
	if c.Runner.MaxBackoffSeconds < c.Runner.InitialBackoffSeconds {
		errors = append(errors, fmt.Errorf("runner.max_backoff_seconds must be >= runner.initial_backoff_seconds"))
	}

	if c.Workers.PoolSize < 1 {
		errors = append(errors, fmt.Errorf("workers.pool_size must be >= 1"))
	}
	if c.Workers.QueueSize < 1 {
		errors = append(errors, fmt.Errorf("workers.queue_size must be >= 1"))
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errors = append(errors, fmt.Errorf("metrics.listen is required when metrics are enabled"))
	}

	if c.Notify.Webhook.Enabled {
		if c.Notify.Webhook.URL == "" {
			errors = append(errors, fmt.Errorf("notify.webhook.url is required when webhook is enabled"))
		} else if err := validateURL(c.Notify.Webhook.URL, "notify.webhook.url"); err != nil {
			errors = append(errors, err)
		}
	}

	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.Token == "" {
			errors = append(errors, fmt.Errorf("notify.telegram.token is required when telegram is enabled"))
		} else if err := validateTelegramToken(c.Notify.Telegram.Token); err != nil {
			errors = append(errors, err)
		}
		if c.Notify.Telegram.ChatID == 0 {
			errors = append(errors, fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled"))
		}
	}

	return errors
}

// Helper validation functions
func validateURL(raw, fieldName string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme", fieldName)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host", fieldName)
	}
	return nil
}

func validateTelegramToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("telegram token has invalid format (expected format: <bot_id>:<token>, got: %s)", maskSecret(token))
	}

	botID := parts[0]
	botToken := parts[1]

	if len(botID) < 3 || len(botID) > 15 {
		return fmt.Errorf("telegram token has invalid bot ID length (expected 3-15 digits, got %d digits)", len(botID))
	}

	for _, r := range botID {
		if r < '0' || r > '9' {
			return fmt.Errorf("telegram token has invalid bot ID (expected digits only, got: %s)", botID)
		}
	}

	if len(botToken) < 10 || len(botToken) > 50 {
		return fmt.Errorf("telegram token has invalid token length (expected 10-50 characters, got %d)", len(botToken))
	}

	return nil
}

func validatePath(path, fieldName string) error {
	if strings.HasPrefix(path, "~") {
		return nil
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}
	return nil
}

// applyDefaults fills in default values for unset fields.
func applyDefaults(c *Config) {
	if c.Workspace.Path == "" {
		c.Workspace.Path = "~/.taskmill"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Scheduler.PollIntervalSeconds == 0 {
		c.Scheduler.PollIntervalSeconds = 30
	}

	if c.Runner.MaxAttempts == 0 {
		c.Runner.MaxAttempts = 3
	}
	if c.Runner.InitialBackoffSeconds == 0 {
		c.Runner.InitialBackoffSeconds = 1
	}
	if c.Runner.MaxBackoffSeconds == 0 {
		c.Runner.MaxBackoffSeconds = 30
	}

	if c.Workers.PoolSize == 0 {
		c.Workers.PoolSize = 4
	}
	if c.Workers.QueueSize == 0 {
		c.Workers.QueueSize = 64
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9090"
	}

	if c.Notify.Webhook.TimeoutSeconds == 0 {
		c.Notify.Webhook.TimeoutSeconds = 10
	}
}

// expandEnvVars expands environment references and ~ in the configuration.
func expandEnvVars(c *Config) {
	if strings.HasPrefix(c.Workspace.Path, "${") {
		c.Workspace.Path = expandEnv(c.Workspace.Path)
	}
	c.Workspace.Path = expandHome(c.Workspace.Path)

	if strings.HasPrefix(c.Notify.Webhook.URL, "${") {
		c.Notify.Webhook.URL = expandEnv(c.Notify.Webhook.URL)
	}

	if strings.HasPrefix(c.Notify.Telegram.Token, "${") {
		c.Notify.Telegram.Token = expandEnv(c.Notify.Telegram.Token)
	}

	for i, s := range c.Redact.Secrets {
		if strings.HasPrefix(s, "${") {
			c.Redact.Secrets[i] = expandEnv(s)
		}
	}
}

// expandEnv expands an environment reference of the form ${VAR:default}.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	return os.Getenv(s[2:end])
}

// expandHome expands a leading ~ in a path.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
