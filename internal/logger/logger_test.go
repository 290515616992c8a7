package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewValidConfigs(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug json", "debug", "json"},
		{"info text", "info", "text"},
		{"warn json", "warn", "json"},
		{"error text", "error", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(Config{Level: tt.level, Format: tt.format, Output: "stdout"})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if log == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose", Format: "json", Output: "stdout"})
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
	if !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewInvalidFormat(t *testing.T) {
	_, err := New(Config{Level: "info", Format: "xml", Output: "stdout"})
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestNewFileOutput(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "taskmill.log")

	log, err := New(Config{Level: "info", Format: "json", Output: logPath})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Info("test message", Field{Key: "job", Value: "backup"})

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "test message") {
		t.Errorf("log file does not contain message: %s", data)
	}
	if !strings.Contains(string(data), "backup") {
		t.Errorf("log file does not contain field value: %s", data)
	}
}

func TestWith(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	log, err := New(Config{Level: "debug", Format: "text", Output: logPath})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.With(Field{Key: "component", Value: "runner"}).Debug("attached")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "component=runner") {
		t.Errorf("log output missing attached field: %s", data)
	}
}
