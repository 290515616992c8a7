package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/taskmill/internal/runlog"
)

var (
	historyConfigPath string
	historySince      time.Duration
	historyLimit      int
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <job>",
	Short: "Show past run outcomes for a job",
	Long: `Show the recorded outcomes of a job, oldest first. Use --since to
restrict the window and --limit to cap the number of rows.`,
	Args: cobra.ExactArgs(1),
	Run:  historyHandler,
}

func historyHandler(cmd *cobra.Command, args []string) {
	jobName := args[0]

	cfg := loadConfig(historyConfigPath)
	log := newLogger(cfg)
	registry, _ := loadJobs(cfg)

	if _, err := registry.Lookup(jobName); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(2)
	}

	store := runlog.NewStore(cfg.Workspace.Path, log)

	q := runlog.Query{JobName: jobName}
	if historySince > 0 {
		q.Since = time.Now().Add(-historySince)
	}

	records, err := store.Records(q)
	if err != nil {
		fmt.Printf("❌ Failed to read run history: %v\n", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Printf("No recorded runs for %s.\n", jobName)
		return
	}

	if historyLimit > 0 && len(records) > historyLimit {
		records = records[len(records)-historyLimit:]
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tATTEMPTS\tDURATION\tERROR")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			rec.StartedAt.Local().Format(time.RFC3339),
			rec.Status,
			rec.AttemptCount,
			rec.Duration().Round(time.Millisecond),
			rec.ErrorMessage)
	}
	w.Flush()
}

func init() {
	historyCmd.Flags().StringVarP(&historyConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "Only show runs newer than this duration (e.g. 24h)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Cap the number of rows shown (0 = all)")
}
