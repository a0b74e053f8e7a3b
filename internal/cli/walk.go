package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/h66840/graph-toucan-sub001/internal/graph"
	"github.com/h66840/graph-toucan-sub001/internal/walk"
	"github.com/spf13/cobra"
)

var (
	walkGraph    string
	walkOutput   string
	walkMaxSteps int
	walkPerNode  int
	walkSeed     int64
)

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Generate random-walk paths over the dependency graph",
	Long: `walk starts an acyclic random walk from every node in the graph,
following "can invoke" edges for at most --max-steps hops. Per-node
duplicates are removed. The resulting path file is the input for
toucan fsp.`,
	Example: `  toucan walk --graph graph_v1.json --output path_v1.json
  toucan walk --graph graph_v1.json --output path_v1.json --max-steps 5 --walks-per-node 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		graphPath := walkGraph
		if graphPath == "" {
			graphPath = cfg.GraphPath
		}
		if graphPath == "" || walkOutput == "" {
			return fmt.Errorf("--graph and --output are required (or set graph_path in config)")
		}

		g, err := graph.Load(graphPath)
		if err != nil {
			return err
		}

		seed := walkSeed
		if !cmd.Flags().Changed("seed") && cfg.Seed != 0 {
			seed = cfg.Seed
		}

		doc := walk.Run(g, graphPath, walk.Options{
			MaxSteps:     walkMaxSteps,
			WalksPerNode: walkPerNode,
			Seed:         seed,
		}, newLogger())

		if err := doc.WriteFile(walkOutput); err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc.Meta)
		}
		fmt.Printf("Wrote %s (%d nodes, %d walks per node, max %d steps)\n",
			walkOutput, len(doc.NodeResults), walkPerNode, walkMaxSteps)
		return nil
	},
}

func init() {
	walkCmd.Flags().StringVar(&walkGraph, "graph", "", "dependency graph file (JSON)")
	walkCmd.Flags().StringVar(&walkOutput, "output", "", "output path file")
	walkCmd.Flags().IntVar(&walkMaxSteps, "max-steps", 5, "maximum hops per walk")
	walkCmd.Flags().IntVar(&walkPerNode, "walks-per-node", 5, "walks started from each node")
	walkCmd.Flags().Int64Var(&walkSeed, "seed", 42, "random seed")
	rootCmd.AddCommand(walkCmd)
}
