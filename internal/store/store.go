// Package store provides SQLite-backed persistence for the toucan run catalog.
package store

import (
	"context"
	"time"

	"github.com/h66840/graph-toucan-sub001/internal/pipeline"
)

// Run is one recorded FSP generation run: its inputs, parameters, and the
// aggregate statistics of the document it produced.
type Run struct {
	ID         string              `json:"id"`
	CreatedAt  time.Time           `json:"created_at"`
	InputPath  string              `json:"input_path"`
	GraphPath  string              `json:"graph_path"`
	OutputPath string              `json:"output_path"`
	Params     RunParams           `json:"params"`
	Statistics pipeline.Statistics `json:"statistics"`
}

// RunParams is the probability/seed configuration of a recorded run.
type RunParams struct {
	MergeProbability          float64 `json:"merge_probability"`
	InsertProbability         float64 `json:"insert_probability"`
	LongDependencyProbability float64 `json:"long_dependency_probability"`
	SplitProbability          float64 `json:"split_probability"`
	Seed                      int64   `json:"seed"`
}

// ListOpts filters ListRuns queries.
type ListOpts struct {
	Since time.Time
	Limit int
}

// Store records and lists generation runs.
type Store interface {
	RecordRun(ctx context.Context, r Run) error
	ListRuns(ctx context.Context, opts ListOpts) ([]Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	Close() error
}
