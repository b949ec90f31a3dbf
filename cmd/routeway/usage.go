package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	usageDays  int
	usageLimit int
	usagePrune bool
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage from the local ledger",
	Long: `Show token usage recorded in the local SQLite ledger.

The ledger is populated automatically when usage recording is enabled
in the config file. By default a per-model summary is printed; with
--limit, the most recent individual records are shown instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ledger, err := openLedger(cfg)
		if err != nil {
			return err
		}
		defer ledger.Close()

		ctx := cmd.Context()

		if usagePrune {
			deleted, err := ledger.Prune(ctx, cfg.Usage.RetentionDays)
			if err != nil {
				return err
			}
			fmt.Printf("pruned %d records\n", deleted)
			return nil
		}

		if usageLimit > 0 {
			records, err := ledger.Recent(ctx, usageLimit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tMODEL\tSTREAMED\tPROMPT\tCOMPLETION\tTOTAL")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%v\t%d\t%d\t%d\n",
					r.RecordedAt.Format(time.RFC3339), r.Model, r.Streamed,
					r.PromptTokens, r.CompletionTokens, r.TotalTokens)
			}
			return w.Flush()
		}

		var since time.Time
		if usageDays > 0 {
			since = time.Now().AddDate(0, 0, -usageDays)
		}
		summaries, err := ledger.Summary(ctx, since)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("no usage recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tREQUESTS\tPROMPT\tCOMPLETION\tTOTAL")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
				s.Model, s.Requests, s.PromptTokens, s.CompletionTokens, s.TotalTokens)
		}
		return w.Flush()
	},
}

func init() {
	usageCmd.Flags().IntVar(&usageDays, "days", 0, "restrict the summary to the last N days")
	usageCmd.Flags().IntVar(&usageLimit, "limit", 0, "show the N most recent records instead of a summary")
	usageCmd.Flags().BoolVar(&usagePrune, "prune", false, "delete records older than the configured retention")

	rootCmd.AddCommand(usageCmd)
}
