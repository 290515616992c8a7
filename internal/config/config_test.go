package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[workspace]
path = "/var/lib/taskmill"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/taskmill", cfg.Workspace.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30, cfg.Scheduler.PollIntervalSeconds)
	assert.Equal(t, 3, cfg.Runner.MaxAttempts)
	assert.Equal(t, 1, cfg.Runner.InitialBackoffSeconds)
	assert.Equal(t, 30, cfg.Runner.MaxBackoffSeconds)
	assert.Equal(t, 4, cfg.Workers.PoolSize)
	assert.Equal(t, 64, cfg.Workers.QueueSize)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.False(t, cfg.Metrics.Enabled)

	assert.Empty(t, cfg.Validate())
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
[workspace]
path = "/srv/taskmill"

[logging]
level = "debug"
format = "text"
output = "stderr"

[scheduler]
poll_interval_seconds = 5

[runner]
max_attempts = 5
initial_backoff_seconds = 2
max_backoff_seconds = 60

[workers]
pool_size = 8
queue_size = 128

[metrics]
enabled = true
listen = ":9123"

[notify.webhook]
enabled = true
url = "https://hooks.example.com/taskmill"

[notify.telegram]
enabled = true
token = "123456789:AAF0abcdEFGHijklMNOPqrstUVWXyz12345"
chat_id = -100123456

[redact]
secrets = ["supersecretvalue"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Scheduler.PollIntervalSeconds)
	assert.Equal(t, 5, cfg.Runner.MaxAttempts)
	assert.Equal(t, ":9123", cfg.Metrics.Listen)
	assert.True(t, cfg.Notify.Webhook.Enabled)
	assert.Equal(t, 10, cfg.Notify.Webhook.TimeoutSeconds)
	assert.Equal(t, int64(-100123456), cfg.Notify.Telegram.ChatID)
	assert.Equal(t, []string{"supersecretvalue"}, cfg.Redact.Secrets)
	assert.Equal(t, filepath.Join("/srv/taskmill", "jobs.d"), cfg.Workspace.JobsDir())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadInvalidTOML(t *testing.T) {
	path := writeConfig(t, `[workspace`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"
	cfg.Notify.Webhook.Enabled = true
	cfg.Notify.Telegram.Enabled = true
	cfg.Notify.Telegram.Token = "not-a-token"

	errs := cfg.Validate()
	require.NotEmpty(t, errs)

	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}

	joined := ""
	for _, m := range messages {
		joined += m + "\n"
	}

	assert.Contains(t, joined, "workspace.path is required")
	assert.Contains(t, joined, "invalid logging.level")
	assert.Contains(t, joined, "invalid logging.format")
	assert.Contains(t, joined, "notify.webhook.url is required")
	assert.Contains(t, joined, "telegram token has invalid format")
	assert.Contains(t, joined, "notify.telegram.chat_id is required")
}

func TestValidateRejectsBadValues(t *testing.T) {
	path := writeConfig(t, `
[workspace]
path = "/srv/taskmill"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Scheduler.PollIntervalSeconds = 0
	cfg.Runner.MaxAttempts = -1
	cfg.Runner.InitialBackoffSeconds = 10
	cfg.Runner.MaxBackoffSeconds = 5
	cfg.Notify.Webhook.Enabled = true
	cfg.Notify.Webhook.URL = "ftp://example.com/hook"

	errs := cfg.Validate()
	joined := ""
	for _, e := range errs {
		joined += e.Error() + "\n"
	}

	assert.Contains(t, joined, "scheduler.poll_interval_seconds must be >= 1")
	assert.Contains(t, joined, "runner.max_attempts must be >= 1")
	assert.Contains(t, joined, "runner.max_backoff_seconds must be >= runner.initial_backoff_seconds")
	assert.Contains(t, joined, "must use http or https scheme")
}

func TestValidatePathTraversal(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Workspace.Path = "/srv/../etc/taskmill"

	errs := cfg.Validate()
	joined := ""
	for _, e := range errs {
		joined += e.Error() + "\n"
	}
	assert.Contains(t, joined, "path traversal")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TASKMILL_TEST_TOKEN", "123456789:AAF0abcdEFGHijklMNOPqrstUVWXyz12345")
	t.Setenv("TASKMILL_TEST_SECRET", "envsecretvalue")

	path := writeConfig(t, `
[workspace]
path = "/srv/taskmill"

[notify.telegram]
enabled = true
token = "${TASKMILL_TEST_TOKEN}"
chat_id = 42

[notify.webhook]
url = "${TASKMILL_TEST_HOOK:https://fallback.example.com/hook}"

[redact]
secrets = ["${TASKMILL_TEST_SECRET}"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123456789:AAF0abcdEFGHijklMNOPqrstUVWXyz12345", cfg.Notify.Telegram.Token)
	assert.Equal(t, "https://fallback.example.com/hook", cfg.Notify.Webhook.URL)
	assert.Equal(t, []string{"envsecretvalue"}, cfg.Redact.Secrets)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "abcd****ijkl", maskSecret("abcdefghijkl"))
}
