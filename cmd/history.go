package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/sntest/cmd/helpers"
	"github.com/zinc-sig/sntest/internal/history"
	"github.com/zinc-sig/sntest/internal/report"
)

var (
	historyPath   string
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history --history <file> [-n N]",
	Short: "Show recorded runs",
	Long:  `Show the most recent runs recorded with 'sntest run --history', newest first.`,
	Example: `  sntest history --history .sntest/history.db
  sntest history --history .sntest/history.db -n 5 --format json`,
	RunE: historyCommand,
}

func historyCommand(cmd *cobra.Command, args []string) error {
	if historyPath == "" {
		return helpers.UsageError(fmt.Errorf("required flag 'history' not set"))
	}
	if historyLimit <= 0 {
		return helpers.UsageError(fmt.Errorf("-n must be positive, got %d", historyLimit))
	}
	if err := helpers.ValidateFormat(historyFormat); err != nil {
		return helpers.UsageError(err)
	}

	store, err := history.Open(historyPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if historyFormat == helpers.FormatJSON {
		return report.WriteJSON(cmd.OutOrStdout(), runs, true)
	}
	return printRuns(cmd.OutOrStdout(), runs)
}

func printRuns(w io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No recorded runs.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tRESULT\tPASSED\tFAILED\tSKIPPED\tPASS RATE\tDURATION")
	for _, r := range runs {
		result := "FAIL"
		if r.OK {
			result = "PASS"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s%%\t%s\n",
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			result,
			r.Passed,
			r.Failed,
			r.Skipped,
			r.PassRate.StringFixed(2),
			(time.Duration(r.DurationMs) * time.Millisecond).String(),
		)
	}
	return tw.Flush()
}

func init() {
	historyCmd.Flags().StringVar(&historyPath, "history", "", "SQLite run history file (required)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
	historyCmd.Flags().StringVar(&historyFormat, "format", helpers.FormatText, "Output format: text or json")
}
