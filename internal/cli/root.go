// Package cli defines the cobra command tree for the toucan CLI.
package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/h66840/graph-toucan-sub001/internal/config"
	"github.com/h66840/graph-toucan-sub001/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	jsonOutput bool
	configPath string
	verbose    bool

	// cfg is the loaded config file, available to all commands.
	cfg = &config.Config{}
)

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "runs.db"
	}
	return filepath.Join(home, ".toucan", "runs.db")
}

// rootCmd is the top-level toucan command.
var rootCmd = &cobra.Command{
	Use:   "toucan",
	Short: "Toucan - augment tool-call traces with graph random walks",
	Long: `toucan builds the flow-sequence-plan (FSP) stage of a synthetic
tool-use corpus. It walks a tool dependency graph to produce call paths,
then augments each path with merge, insert and split operations: merging
adjacent turns into multi-call turns, inserting nested helper calls from
the graph adjacency, and splitting in empty turns that mark
missing-information gaps.

Generation runs are recorded in a SQLite catalog at ~/.toucan/runs.db
(configurable via --db or toucan config db_path). Output commands support
--json for machine-readable output.`,
	Example: `  # Generate random-walk paths from a graph
  toucan walk --graph graph_v1.json --output path_v1.json

  # Augment the paths into an FSP document
  toucan fsp --input path_v1.json --graph graph_v1.json --output fsp_v2.json

  # Review past runs and inspect the result
  toucan runs
  toucan inspect --fsp fsp_v2.json --samples 3`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.LoadFrom(configPath)
		if err != nil {
			return
		}
		cfg = loaded
		if cfg.DBPath != "" && !cmd.Flags().Changed("db") {
			dbPath = cfg.DBPath
		}
		if cfg.DefaultFormat == "json" && !cmd.Flags().Changed("json") {
			jsonOutput = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "path to the SQLite run catalog")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// openStore opens the local SQLite run catalog.
func openStore() (store.Store, error) {
	return store.New(dbPath)
}

// newLogger builds the slog logger commands hand to the pipeline. Progress
// goes to stderr so stdout stays clean for --json output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
