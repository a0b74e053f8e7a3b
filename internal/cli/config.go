package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/h66840/graph-toucan-sub001/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Manage toucan configuration stored in ~/.toucan/config.toml.

With no arguments, lists all settings. With a key, prints its value.
With a key and value, sets the key.

Valid keys: ` + strings.Join(config.ValidKeys(), ", "),
	Example: `  toucan config
  toucan config graph_path
  toucan config graph_path /data/graph/graph_v1.json
  toucan config merge_probability 0.3`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		switch len(args) {
		case 0:
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			for _, key := range config.ValidKeys() {
				val, err := cfg.Get(key)
				if err != nil {
					return err
				}
				if val != "" {
					fmt.Printf("%s = %s\n", key, val)
				}
			}
			return nil

		case 1:
			val, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Println(val)
			return nil

		default:
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.SaveTo(configPath); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
