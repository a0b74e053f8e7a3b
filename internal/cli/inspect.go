package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/h66840/graph-toucan-sub001/internal/analyze"
	"github.com/h66840/graph-toucan-sub001/internal/fsp"
	"github.com/h66840/graph-toucan-sub001/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	inspectFSP     string
	inspectSamples int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [node]",
	Short: "Summarize an FSP document or a single node's augmented paths",
	Long: `inspect reads a generated FSP document. Without arguments it prints
the document's aggregate statistics. With a node argument (index or tool
name) it shows that node's augmented paths, including merge, insert and
split details. Unknown tool names get fuzzy-matched suggestions.`,
	Example: `  toucan inspect --fsp fsp_v2.json
  toucan inspect --fsp fsp_v2.json get_weather_by_coordinates
  toucan inspect --fsp fsp_v2.json 17 --samples 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectFSP == "" {
			inspectFSP = cfg.OutputPath
		}
		if inspectFSP == "" {
			return fmt.Errorf("--fsp is required (or set output_path in config)")
		}

		doc, err := pipeline.ReadDocument(inspectFSP)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(doc.Statistics)
			}
			printDocumentSummary(doc)
			return nil
		}

		nr, err := resolveNode(doc, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(nr)
		}
		printNodePaths(nr, inspectSamples)
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFSP, "fsp", "", "FSP document to inspect")
	inspectCmd.Flags().IntVar(&inspectSamples, "samples", 3, "maximum paths to display per node")
	rootCmd.AddCommand(inspectCmd)
}

// resolveNode finds a node result by index or tool name. A miss on an exact
// name falls back to similarity suggestions.
func resolveNode(doc *pipeline.Document, arg string) (*pipeline.NodeResult, error) {
	if _, err := strconv.Atoi(arg); err == nil {
		if nr, ok := doc.NodeResults[arg]; ok {
			return nr, nil
		}
		return nil, fmt.Errorf("no paths recorded for node index %s", arg)
	}

	var names []string
	for _, nr := range doc.NodeResults {
		if nr.NodeName == arg {
			return nr, nil
		}
		names = append(names, nr.NodeName)
	}

	sort.Strings(names)
	suggestions := analyze.Suggest(arg, names)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("unknown tool %q", arg)
	}
	msg := fmt.Sprintf("unknown tool %q, did you mean:", arg)
	for _, s := range suggestions {
		msg += fmt.Sprintf("\n  %s (%.2f)", s.Name, s.Score)
	}
	return nil, fmt.Errorf("%s", msg)
}

func printDocumentSummary(doc *pipeline.Document) {
	st := doc.Statistics
	fmt.Printf("Input:     %s\n", doc.Meta.InputPath)
	fmt.Printf("Graph:     %s\n", doc.Meta.GraphPath)
	fmt.Printf("Seed:      %d\n", doc.Meta.Seed)
	fmt.Println()
	fmt.Printf("Nodes:     %d\n", len(doc.NodeResults))
	fmt.Printf("Paths:     %d\n", st.TotalPaths)
	fmt.Printf("Turns:     %d initial, %d final\n", st.TotalTurnsBefore, st.TotalTurnsFinal)
	fmt.Printf("Functions: %d initial, %d final\n", st.TotalFunctionsBefore, st.TotalFunctionsFinal)
	fmt.Printf("Ops:       %d merges, %d inserts (%d short, %d long), %d splits\n",
		st.TotalMerges, st.TotalInserts,
		st.ShortDependencyInserts, st.LongDependencyInserts, st.TotalSplits)
}

func printNodePaths(nr *pipeline.NodeResult, samples int) {
	fmt.Printf("Node %d: %s (%d paths)\n", nr.NodeIdx, nr.NodeName, nr.NumPaths)

	for i, p := range nr.Paths {
		if samples > 0 && i >= samples {
			fmt.Printf("\n... %d more paths\n", nr.NumPaths-samples)
			break
		}

		fmt.Printf("\nPath %d (%d functions, %d turns):\n",
			p.PathIdx, p.Statistics.FunctionsFinal, p.Statistics.TurnsFinal)
		for turnIdx, names := range p.FSPFinalNames {
			if len(names) == 0 {
				fmt.Printf("  Turn %d: [] (information missing)\n", turnIdx)
				continue
			}
			fmt.Printf("  Turn %d: %v\n", turnIdx, names)
		}

		for _, l := range p.MergeLogs {
			fmt.Printf("  merge  -> turn %d: %v\n", l.TurnIdx, l.MergedNames)
		}
		for _, l := range p.InsertLogs {
			arrow := "same turn"
			if l.InsertType == fsp.LongDependency {
				arrow = fmt.Sprintf("turn %d", l.TargetTurnIdx)
			}
			fmt.Printf("  insert -> %s pulls in %s (%s, %s)\n",
				l.SourceFuncName, l.NestedFuncName, l.InsertType, arrow)
		}
		for _, l := range p.SplitLogs {
			fmt.Printf("  split  -> empty turn after %d (%s)\n", l.InsertPosition, l.MissType)
		}
	}
}
