package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/h66840/graph-toucan-sub001/internal/store"
	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsSince string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded FSP generation runs",
	Long: `runs lists past generation runs from the catalog, newest first,
with their parameters and aggregate statistics.`,
	Example: `  toucan runs
  toucan runs --limit 5
  toucan runs --since 2026-08-01 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return fmt.Errorf("open run catalog: %w", err)
		}
		defer s.Close()

		opts := store.ListOpts{Limit: runsLimit}
		if runsSince != "" {
			t, err := parseSince(runsSince)
			if err != nil {
				return fmt.Errorf("invalid --since value %q: %w", runsSince, err)
			}
			opts.Since = t
		}

		runs, err := s.ListRuns(context.Background(), opts)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded yet. Run toucan fsp to create one.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  %s\n", shortID(r.ID), humanize.Time(r.CreatedAt))
			fmt.Printf("  output: %s\n", r.OutputPath)
			fmt.Printf("  params: merge=%.2f insert=%.2f longdep=%.2f split=%.2f seed=%d\n",
				r.Params.MergeProbability, r.Params.InsertProbability,
				r.Params.LongDependencyProbability, r.Params.SplitProbability, r.Params.Seed)
			fmt.Printf("  result: %d paths, %d merges, %d inserts, %d splits\n\n",
				r.Statistics.TotalPaths, r.Statistics.TotalMerges,
				r.Statistics.TotalInserts, r.Statistics.TotalSplits)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 0, "maximum number of runs to show")
	runsCmd.Flags().StringVar(&runsSince, "since", "", "only show runs after this time (RFC3339 or YYYY-MM-DD)")
	rootCmd.AddCommand(runsCmd)
}

// parseSince parses a time string in RFC3339 or date-only format.
func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("expected RFC3339 (e.g. 2026-01-01T00:00:00Z) or date (e.g. 2026-01-01)")
}

// shortID returns the first 8 characters of a run ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
