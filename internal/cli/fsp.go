package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/h66840/graph-toucan-sub001/internal/pipeline"
	"github.com/h66840/graph-toucan-sub001/internal/store"
	"github.com/spf13/cobra"
)

var (
	fspInput    string
	fspGraph    string
	fspOutput   string
	fspMerge    float64
	fspInsert   float64
	fspLongDep  float64
	fspSplit    float64
	fspSeed     int64
	fspWorkers  int
	fspNoRecord bool
)

var fspCmd = &cobra.Command{
	Use:   "fsp",
	Short: "Augment random-walk paths into an FSP document",
	Long: `fsp loads a dependency graph and a random-walk path file, then applies
merge, insert and split to every path:

  merge   fuses adjacent turns into multi-call turns
  insert  adds nested helper calls picked from the graph adjacency,
          either into the same turn (short dependency) or a later one
          (long dependency)
  split   inserts empty turns marking missing-information gaps

The augmented document, with every intermediate stage and operation log,
is written as a single JSON file. Identical inputs, probabilities and seed
always produce an identical document, for any --workers value.`,
	Example: `  toucan fsp --input path_v1.json --graph graph_v1.json --output fsp_v2.json
  toucan fsp --input path_v1.json --graph graph_v1.json --output fsp_v2.json \
    --merge-prob 0.3 --insert-prob 0.5 --long-dep-prob 0.3 --split-prob 0.15 --seed 42
  toucan fsp --input path_v1.json --graph graph_v1.json --output fsp_v2.json --workers 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := paramsFromFlags(cmd)
		if params.InputPath == "" || params.GraphPath == "" || params.OutputPath == "" {
			return fmt.Errorf("--input, --graph and --output are required (or set path_file/graph_path/output_path in config)")
		}

		doc, err := pipeline.Generate(params, newLogger())
		if err != nil {
			return err
		}
		if err := doc.WriteFile(params.OutputPath); err != nil {
			return err
		}

		if !fspNoRecord {
			recordRun(params, doc)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc.Statistics)
		}
		printRunSummary(params, doc)
		return nil
	},
}

func init() {
	fspCmd.Flags().StringVar(&fspInput, "input", "", "random-walk path file (JSON)")
	fspCmd.Flags().StringVar(&fspGraph, "graph", "", "dependency graph file (JSON)")
	fspCmd.Flags().StringVar(&fspOutput, "output", "", "output FSP document path")
	fspCmd.Flags().Float64Var(&fspMerge, "merge-prob", pipeline.DefaultMergeProbability, "probability of merging each adjacent turn pair")
	fspCmd.Flags().Float64Var(&fspInsert, "insert-prob", pipeline.DefaultInsertProbability, "probability of attempting an insert per call")
	fspCmd.Flags().Float64Var(&fspLongDep, "long-dep-prob", pipeline.DefaultLongDependencyProbability, "probability an insert becomes a long dependency")
	fspCmd.Flags().Float64Var(&fspSplit, "split-prob", pipeline.DefaultSplitProbability, "probability of splitting after each turn")
	fspCmd.Flags().Int64Var(&fspSeed, "seed", pipeline.DefaultSeed, "random seed")
	fspCmd.Flags().IntVar(&fspWorkers, "workers", 1, "number of node groups processed concurrently")
	fspCmd.Flags().BoolVar(&fspNoRecord, "no-record", false, "skip recording the run in the catalog")
	rootCmd.AddCommand(fspCmd)
}

// paramsFromFlags merges flag values with config-file defaults. Flags win
// when set explicitly.
func paramsFromFlags(cmd *cobra.Command) pipeline.Params {
	params := pipeline.DefaultParams()
	params.InputPath = fspInput
	params.GraphPath = fspGraph
	params.OutputPath = fspOutput
	params.MergeProbability = fspMerge
	params.InsertProbability = fspInsert
	params.LongDependencyProbability = fspLongDep
	params.SplitProbability = fspSplit
	params.Seed = fspSeed
	params.Workers = fspWorkers

	if params.InputPath == "" {
		params.InputPath = cfg.PathFile
	}
	if params.GraphPath == "" {
		params.GraphPath = cfg.GraphPath
	}
	if params.OutputPath == "" {
		params.OutputPath = cfg.OutputPath
	}
	if !cmd.Flags().Changed("merge-prob") && cfg.MergeProb != 0 {
		params.MergeProbability = cfg.MergeProb
	}
	if !cmd.Flags().Changed("insert-prob") && cfg.InsertProb != 0 {
		params.InsertProbability = cfg.InsertProb
	}
	if !cmd.Flags().Changed("long-dep-prob") && cfg.LongDepProb != 0 {
		params.LongDependencyProbability = cfg.LongDepProb
	}
	if !cmd.Flags().Changed("split-prob") && cfg.SplitProb != 0 {
		params.SplitProbability = cfg.SplitProb
	}
	if !cmd.Flags().Changed("seed") && cfg.Seed != 0 {
		params.Seed = cfg.Seed
	}
	return params
}

// recordRun stores the run in the catalog. A catalog failure never discards
// the generated document, so it only warns.
func recordRun(params pipeline.Params, doc *pipeline.Document) {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: open run catalog: %v\n", err)
		return
	}
	defer s.Close()

	run := store.Run{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now(),
		InputPath:  params.InputPath,
		GraphPath:  params.GraphPath,
		OutputPath: params.OutputPath,
		Params: store.RunParams{
			MergeProbability:          params.MergeProbability,
			InsertProbability:         params.InsertProbability,
			LongDependencyProbability: params.LongDependencyProbability,
			SplitProbability:          params.SplitProbability,
			Seed:                      params.Seed,
		},
		Statistics: doc.Statistics,
	}
	if err := s.RecordRun(context.Background(), run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: record run: %v\n", err)
	}
}

func printRunSummary(params pipeline.Params, doc *pipeline.Document) {
	st := doc.Statistics

	fmt.Printf("Wrote %s\n\n", params.OutputPath)
	fmt.Printf("Paths:              %s\n", humanize.Comma(int64(st.TotalPaths)))
	fmt.Println()
	fmt.Printf("Turns initial:      %s\n", humanize.Comma(int64(st.TotalTurnsBefore)))
	fmt.Printf("Turns after merge:  %s\n", humanize.Comma(int64(st.TotalTurnsAfterMerge)))
	fmt.Printf("Turns after insert: %s\n", humanize.Comma(int64(st.TotalTurnsAfterInsert)))
	fmt.Printf("Turns final:        %s\n", humanize.Comma(int64(st.TotalTurnsFinal)))
	fmt.Println()
	fmt.Printf("Functions initial:  %s\n", humanize.Comma(int64(st.TotalFunctionsBefore)))
	fmt.Printf("Functions final:    %s\n", humanize.Comma(int64(st.TotalFunctionsFinal)))
	fmt.Println()
	fmt.Printf("Merges:             %s\n", humanize.Comma(int64(st.TotalMerges)))
	fmt.Printf("Inserts:            %s (short %s, long %s)\n",
		humanize.Comma(int64(st.TotalInserts)),
		humanize.Comma(int64(st.ShortDependencyInserts)),
		humanize.Comma(int64(st.LongDependencyInserts)))
	fmt.Printf("Splits:             %s\n", humanize.Comma(int64(st.TotalSplits)))

	if st.TotalPaths > 0 {
		fmt.Println()
		fmt.Printf("Avg turns/path:     %.2f\n", float64(st.TotalTurnsFinal)/float64(st.TotalPaths))
		fmt.Printf("Avg functions/path: %.2f\n", float64(st.TotalFunctionsFinal)/float64(st.TotalPaths))
	}
}
