package main

import (
	"testing"
)

func TestServeCmdFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantConfig string
		wantLevel  string
	}{
		{
			name:       "with config flag",
			args:       []string{"--config", "test.toml"},
			wantConfig: "test.toml",
			wantLevel:  "",
		},
		{
			name:       "with log level flag",
			args:       []string{"--log-level", "debug"},
			wantConfig: "",
			wantLevel:  "debug",
		},
		{
			name:       "short flags",
			args:       []string{"-c", "test.toml", "-l", "warn"},
			wantConfig: "test.toml",
			wantLevel:  "warn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags
			serveConfigPath = ""
			serveLogLevel = ""

			serveCmd.SetArgs(tt.args)
			_ = serveCmd.ParseFlags(tt.args)

			if serveConfigPath != tt.wantConfig {
				t.Errorf("serveConfigPath = %v, want %v", serveConfigPath, tt.wantConfig)
			}
			if serveLogLevel != tt.wantLevel {
				t.Errorf("serveLogLevel = %v, want %v", serveLogLevel, tt.wantLevel)
			}
		})
	}
}

func TestHistoryCmdFlags(t *testing.T) {
	historyConfigPath = ""
	historySince = 0
	historyLimit = 0

	args := []string{"--since", "24h", "--limit", "10"}
	historyCmd.SetArgs(args)
	if err := historyCmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	if historySince.Hours() != 24 {
		t.Errorf("historySince = %v, want 24h", historySince)
	}
	if historyLimit != 10 {
		t.Errorf("historyLimit = %v, want 10", historyLimit)
	}
}

func TestCommandStructure(t *testing.T) {
	want := map[string]bool{
		"version": false,
		"config":  false,
		"serve":   false,
		"run":     false,
		"jobs":    false,
		"history": false,
	}

	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRunCmdAliases(t *testing.T) {
	hasAlias := func(aliases []string, want string) bool {
		for _, a := range aliases {
			if a == want {
				return true
			}
		}
		return false
	}

	if !hasAlias(runCmd.Aliases, "run-now") {
		t.Error("run command must keep the run-now alias")
	}
	if !hasAlias(jobsCmd.Aliases, "list-jobs") {
		t.Error("jobs command must keep the list-jobs alias")
	}
}
