package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/taskmill/internal/config"
	"github.com/aatumaykin/taskmill/internal/job"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate and manage Taskmill configuration.`,
}

// configCheckCmd represents the config check command
var configCheckCmd = &cobra.Command{
	Use:     "check [config-file]",
	Aliases: []string{"validate"},
	Short:   "Validate the configuration and job manifests",
	Long:    `Load the configuration file and every job manifest, reporting all problems found.`,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath := defaultConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("❌ Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		failed := false
		if errors := cfg.Validate(); len(errors) > 0 {
			fmt.Printf("❌ Configuration validation failed:\n")
			for _, e := range errors {
				fmt.Printf("  - %v\n", e)
			}
			failed = true
		}

		registry, schedules, errs := job.LoadDir(cfg.Workspace.JobsDir())
		if len(errs) > 0 {
			fmt.Printf("❌ Job manifest validation failed:\n")
			for _, e := range errs {
				fmt.Printf("  - %v\n", e)
			}
			failed = true
		}

		if failed {
			os.Exit(1)
		}

		fmt.Printf("✅ Configuration is valid (%d jobs, %d schedules)\n", registry.Len(), len(schedules))
	},
}

func init() {
	configCmd.AddCommand(configCheckCmd)
}
