package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/taskmill/internal/schedule"
)

var jobsConfigPath string

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:     "jobs",
	Aliases: []string{"list-jobs"},
	Short:   "List registered jobs and their schedules",
	Run:     jobsHandler,
}

func jobsHandler(cmd *cobra.Command, args []string) {
	cfg := loadConfig(jobsConfigPath)
	newLogger(cfg)
	registry, schedules := loadJobs(cfg)

	if registry.Len() == 0 {
		fmt.Println("No jobs registered.")
		return
	}

	byJob := make(map[string][]schedule.Schedule)
	for _, s := range schedules {
		byJob[s.JobName] = append(byJob[s.JobName], s)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tTIMEOUT\tSCHEDULES")
	for _, name := range registry.SortedNames() {
		j, _ := registry.Get(name)

		scheds := byJob[name]
		if len(scheds) == 0 {
			fmt.Fprintf(w, "%s\t%s\t%s\n", j.Name, j.Timeout, "(manual only)")
			continue
		}
		for i, s := range scheds {
			if i == 0 {
				fmt.Fprintf(w, "%s\t%s\t%s\n", j.Name, j.Timeout, s.String())
			} else {
				fmt.Fprintf(w, "\t\t%s\n", s.String())
			}
		}
	}
	w.Flush()
}

func init() {
	jobsCmd.Flags().StringVarP(&jobsConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
}
