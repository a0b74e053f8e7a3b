// Package config handles reading and writing the toucan configuration file
// (~/.toucan/config.toml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds toucan configuration settings. Zero values mean "unset";
// commands fall back to their flag defaults.
type Config struct {
	GraphPath     string  `toml:"graph_path,omitempty" json:"graph_path,omitempty"`
	PathFile      string  `toml:"path_file,omitempty" json:"path_file,omitempty"`
	OutputPath    string  `toml:"output_path,omitempty" json:"output_path,omitempty"`
	DBPath        string  `toml:"db_path,omitempty" json:"db_path,omitempty"`
	DefaultFormat string  `toml:"default_format,omitempty" json:"default_format,omitempty"`
	MergeProb     float64 `toml:"merge_probability,omitempty" json:"merge_probability,omitempty"`
	InsertProb    float64 `toml:"insert_probability,omitempty" json:"insert_probability,omitempty"`
	LongDepProb   float64 `toml:"long_dependency_probability,omitempty" json:"long_dependency_probability,omitempty"`
	SplitProb     float64 `toml:"split_probability,omitempty" json:"split_probability,omitempty"`
	Seed          int64   `toml:"seed,omitempty" json:"seed,omitempty"`
}

// validKeys lists the allowed configuration keys.
var validKeys = map[string]bool{
	"graph_path":                  true,
	"path_file":                   true,
	"output_path":                 true,
	"db_path":                     true,
	"default_format":              true,
	"merge_probability":           true,
	"insert_probability":          true,
	"long_dependency_probability": true,
	"split_probability":           true,
	"seed":                        true,
}

// ValidKeys returns the sorted list of valid configuration keys.
func ValidKeys() []string {
	return []string{
		"db_path", "default_format", "graph_path", "insert_probability",
		"long_dependency_probability", "merge_probability", "output_path",
		"path_file", "seed", "split_probability",
	}
}

// Path returns the default config file path (~/.toucan/config.toml).
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".toucan", "config.toml")
	}
	return filepath.Join(home, ".toucan", "config.toml")
}

// Load reads the config from the default path.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config from a specific path. Returns an empty Config if
// the file does not exist.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to a specific path, creating parent directories as needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Get returns the string value of a configuration key.
func (c *Config) Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "graph_path":
		return c.GraphPath, nil
	case "path_file":
		return c.PathFile, nil
	case "output_path":
		return c.OutputPath, nil
	case "db_path":
		return c.DBPath, nil
	case "default_format":
		return c.DefaultFormat, nil
	case "merge_probability":
		return formatFloat(c.MergeProb), nil
	case "insert_probability":
		return formatFloat(c.InsertProb), nil
	case "long_dependency_probability":
		return formatFloat(c.LongDepProb), nil
	case "split_probability":
		return formatFloat(c.SplitProb), nil
	case "seed":
		if c.Seed == 0 {
			return "", nil
		}
		return strconv.FormatInt(c.Seed, 10), nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set assigns a value to a configuration key.
func (c *Config) Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "graph_path":
		c.GraphPath = value
	case "path_file":
		c.PathFile = value
	case "output_path":
		c.OutputPath = value
	case "db_path":
		c.DBPath = value
	case "default_format":
		if value != "" && value != "table" && value != "json" {
			return fmt.Errorf("default_format must be \"table\" or \"json\", got %q", value)
		}
		c.DefaultFormat = value
	case "merge_probability", "insert_probability", "long_dependency_probability", "split_probability":
		f, err := parseProbability(key, value)
		if err != nil {
			return err
		}
		switch key {
		case "merge_probability":
			c.MergeProb = f
		case "insert_probability":
			c.InsertProb = f
		case "long_dependency_probability":
			c.LongDepProb = f
		case "split_probability":
			c.SplitProb = f
		}
	case "seed":
		if value == "" {
			c.Seed = 0
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("seed must be an integer, got %q", value)
		}
		c.Seed = n
	}
	return nil
}

func parseProbability(key, value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, value)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("%s must be in [0,1], got %v", key, f)
	}
	return f, nil
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
