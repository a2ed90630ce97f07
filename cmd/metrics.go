package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/MateoRodr13/qa-test-generator/internal/cli"
	"github.com/MateoRodr13/qa-test-generator/internal/metrics"
	"github.com/MateoRodr13/qa-test-generator/internal/store"
	"github.com/MateoRodr13/qa-test-generator/internal/tui"
)

var (
	flagLive      bool
	flagRecent    int
	flagPruneDays int
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show API call metrics from past runs",
	RunE:  runMetrics,
}

func init() {
	metricsCmd.Flags().BoolVar(&flagLive, "live", false, "Open the live dashboard")
	metricsCmd.Flags().IntVar(&flagRecent, "recent", 10, "Number of recent calls to list")
	metricsCmd.Flags().IntVar(&flagPruneDays, "prune", 0, "Delete records older than this many days before reporting")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	history, err := store.Open(store.DefaultPath())
	if err != nil {
		return fmt.Errorf("opening metrics history: %w", err)
	}
	defer history.Close()

	if flagPruneDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -flagPruneDays)
		if err := history.Prune(cutoff); err != nil {
			return fmt.Errorf("pruning metrics history: %w", err)
		}
	}

	if flagLive {
		return tui.Run(func() (tui.Snapshot, error) {
			return loadSnapshot(history)
		})
	}

	snap, err := loadSnapshot(history)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderTitle("API Call Metrics"))

	keys := make([]string, 0, len(snap.Aggregates))
	for k := range snap.Aggregates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		agg := snap.Aggregates[k]
		rate := 0.0
		if agg.TotalCalls > 0 {
			rate = float64(agg.SuccessfulCalls) / float64(agg.TotalCalls)
		}
		rows = append(rows, []string{
			k,
			cli.FormatNumber(int64(agg.TotalCalls)),
			cli.FormatPercent(rate),
			cli.FormatDuration(agg.AvgDuration),
			cli.FormatNumber(int64(agg.CacheHits)),
			cli.FormatNumber(int64(agg.RateLimitHits)),
		})
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, cli.Info("no calls recorded yet"))
		return nil
	}

	fmt.Fprintln(out, cli.RenderTable(cli.Table{
		Title:   "By provider and operation",
		Headers: []string{"Key", "Calls", "Success rate", "Avg", "Cached", "Limited"},
		Rows:    rows,
	}))

	recentRows := make([][]string, 0, len(snap.Recent))
	for _, r := range snap.Recent {
		status := "ok"
		switch {
		case r.RateLimited:
			status = "rate limited"
		case !r.Success:
			status = "failed"
		case r.Cached:
			status = "cached"
		}
		recentRows = append(recentRows, []string{
			r.StartTime.Local().Format("2006-01-02 15:04:05"),
			metrics.FormatKey(r.Provider, r.Operation),
			status,
			cli.FormatDuration(r.Duration),
		})
	}
	fmt.Fprintln(out, cli.RenderTable(cli.Table{
		Title:   "Recent calls",
		Headers: []string{"Time", "Key", "Status", "Duration"},
		Rows:    recentRows,
	}))
	return nil
}

func loadSnapshot(history *store.History) (tui.Snapshot, error) {
	aggs, err := history.LoadAggregates()
	if err != nil {
		return tui.Snapshot{}, fmt.Errorf("loading aggregates: %w", err)
	}
	recent, err := history.RecentRecords(flagRecent)
	if err != nil {
		return tui.Snapshot{}, fmt.Errorf("loading recent calls: %w", err)
	}
	count, err := history.CallCount()
	if err != nil {
		return tui.Snapshot{}, fmt.Errorf("counting calls: %w", err)
	}
	return tui.Snapshot{Aggregates: aggs, Recent: recent, CallCount: count}, nil
}
