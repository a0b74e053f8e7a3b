// Package pipeline orchestrates FSP generation: it loads a graph and a
// random-walk path file, applies merge, insert and split to every path,
// repairs log indices, and aggregates the augmented document.
package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/h66840/graph-toucan-sub001/internal/fsp"
	"github.com/h66840/graph-toucan-sub001/internal/graph"
)

// Default probabilities and seed, matching the values the corpus was
// originally built with.
const (
	DefaultMergeProbability          = 0.3
	DefaultInsertProbability         = 0.5
	DefaultLongDependencyProbability = 0.3
	DefaultSplitProbability          = 0.15
	DefaultSeed                      = 42
)

// Params carries every input the driver needs. There is no package-level
// configuration; callers construct this explicitly.
type Params struct {
	InputPath  string
	GraphPath  string
	OutputPath string

	MergeProbability          float64
	InsertProbability         float64
	LongDependencyProbability float64
	SplitProbability          float64
	Seed                      int64

	// Workers bounds the number of node groups processed concurrently.
	// Values below 1 mean sequential. Output is identical for any worker
	// count because every path draws from its own seeded RNG stream.
	Workers int
}

// DefaultParams returns Params with the reference probabilities and seed.
func DefaultParams() Params {
	return Params{
		MergeProbability:          DefaultMergeProbability,
		InsertProbability:         DefaultInsertProbability,
		LongDependencyProbability: DefaultLongDependencyProbability,
		SplitProbability:          DefaultSplitProbability,
		Seed:                      DefaultSeed,
		Workers:                   1,
	}
}

// Meta records the run inputs inside the output document.
type Meta struct {
	InputPath                 string  `json:"input_path"`
	GraphPath                 string  `json:"graph_path"`
	MergeProbability          float64 `json:"merge_probability"`
	InsertProbability         float64 `json:"insert_probability"`
	LongDependencyProbability float64 `json:"long_dependency_probability"`
	Seed                      int64   `json:"seed"`
}

// Statistics holds counters aggregated across all processed paths.
type Statistics struct {
	TotalPaths             int `json:"total_paths"`
	TotalTurnsBefore       int `json:"total_turns_before"`
	TotalTurnsAfterMerge   int `json:"total_turns_after_merge"`
	TotalTurnsAfterInsert  int `json:"total_turns_after_insert"`
	TotalTurnsFinal        int `json:"total_turns_final"`
	TotalFunctionsBefore   int `json:"total_functions_before"`
	TotalFunctionsFinal    int `json:"total_functions_final"`
	TotalMerges            int `json:"total_merges"`
	TotalInserts           int `json:"total_inserts"`
	ShortDependencyInserts int `json:"short_dependency_inserts"`
	LongDependencyInserts  int `json:"long_dependency_inserts"`
	TotalSplits            int `json:"total_splits"`
}

// add folds per-path statistics into the aggregate.
func (s *Statistics) add(ps PathStatistics) {
	s.TotalPaths++
	s.TotalTurnsBefore += ps.TurnsInitial
	s.TotalTurnsAfterMerge += ps.TurnsMerged
	s.TotalTurnsAfterInsert += ps.TurnsAfterInsert
	s.TotalTurnsFinal += ps.TurnsFinal
	s.TotalFunctionsBefore += ps.FunctionsInitial
	s.TotalFunctionsFinal += ps.FunctionsFinal
	s.TotalMerges += ps.NumMerges
	s.TotalInserts += ps.NumInserts
	s.ShortDependencyInserts += ps.ShortDependencyInserts
	s.LongDependencyInserts += ps.LongDependencyInserts
	s.TotalSplits += ps.NumSplits
}

// PathStatistics holds per-path counts at every stage.
type PathStatistics struct {
	TurnsInitial           int `json:"turns_initial"`
	TurnsMerged            int `json:"turns_merged"`
	TurnsAfterInsert       int `json:"turns_after_insert"`
	TurnsFinal             int `json:"turns_final"`
	FunctionsInitial       int `json:"functions_initial"`
	FunctionsFinal         int `json:"functions_final"`
	NumMerges              int `json:"num_merges"`
	NumInserts             int `json:"num_inserts"`
	ShortDependencyInserts int `json:"short_dependency_inserts"`
	LongDependencyInserts  int `json:"long_dependency_inserts"`
	NumSplits              int `json:"num_splits"`
}

// PathResult is one augmented path with every intermediate stage preserved.
type PathResult struct {
	PathIdx           int             `json:"path_idx"`
	OriginalPath      []int           `json:"original_path"`
	OriginalPathNames []string        `json:"original_path_names"`
	FSPInitial        fsp.FSP         `json:"fsp_initial"`
	FSPMerged         fsp.FSP         `json:"fsp_merged"`
	FSPAfterInsert    fsp.FSP         `json:"fsp_after_insert"`
	FSPFinal          fsp.FSP         `json:"fsp_final"`
	FSPFinalNames     [][]string      `json:"fsp_final_names"`
	Statistics        PathStatistics  `json:"statistics"`
	MergeLogs         []fsp.MergeLog  `json:"merge_logs"`
	InsertLogs        []fsp.InsertLog `json:"insert_logs"`
	SplitLogs         []fsp.SplitLog  `json:"split_logs"`
}

// NodeResult groups augmented paths by their start node.
type NodeResult struct {
	NodeIdx  int          `json:"node_idx"`
	NodeName string       `json:"node_name"`
	NumPaths int          `json:"num_paths"`
	Paths    []PathResult `json:"paths"`
}

// Document is the full output written to disk. Field names and nesting are
// the contract downstream consumers depend on.
type Document struct {
	Meta        Meta                   `json:"meta"`
	Statistics  Statistics             `json:"statistics"`
	NodeResults map[string]*NodeResult `json:"node_results"`
}

// inputDocument mirrors the path file produced by the walk stage.
type inputDocument struct {
	NodeResults map[string]inputNode `json:"node_results"`
}

type inputNode struct {
	Name            string      `json:"name"`
	PathsAfterDedup []inputPath `json:"paths_after_dedup"`
}

// inputPath accepts either the object form {"node_indices": [...]} or a bare
// index array; older path files used both.
type inputPath struct {
	NodeIndices []int
}

func (p *inputPath) UnmarshalJSON(data []byte) error {
	var obj struct {
		NodeIndices []int `json:"node_indices"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		p.NodeIndices = obj.NodeIndices
		return nil
	}
	var arr []int
	if err := json.Unmarshal(data, &arr); err == nil {
		p.NodeIndices = arr
		return nil
	}
	// Leave the entry empty; the driver skips it as malformed.
	p.NodeIndices = nil
	return nil
}

// Generate runs the full augmentation over every path in the input file and
// returns the output document. File-level failures abort; malformed path
// entries are skipped.
func Generate(params Params, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	g, err := graph.Load(params.GraphPath)
	if err != nil {
		return nil, err
	}
	logger.Info("graph loaded",
		"path", params.GraphPath,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges))

	data, err := os.ReadFile(params.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read path file %s: %w", params.InputPath, err)
	}
	var input inputDocument
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse path file %s: %w", params.InputPath, err)
	}
	logger.Info("path file loaded", "path", params.InputPath, "nodes", len(input.NodeResults))

	doc := &Document{
		Meta: Meta{
			InputPath:                 params.InputPath,
			GraphPath:                 params.GraphPath,
			MergeProbability:          params.MergeProbability,
			InsertProbability:         params.InsertProbability,
			LongDependencyProbability: params.LongDependencyProbability,
			Seed:                      params.Seed,
		},
		NodeResults: make(map[string]*NodeResult, len(input.NodeResults)),
	}

	keys := sortedNodeKeys(input.NodeResults)

	workers := params.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	var eg errgroup.Group
	eg.SetLimit(workers)

	for _, key := range keys {
		key := key
		node := input.NodeResults[key]
		eg.Go(func() error {
			nr := processNode(key, node, g, params, logger)
			if nr == nil {
				return nil
			}
			mu.Lock()
			doc.NodeResults[key] = nr
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Sum statistics in key order so the aggregation itself is deterministic.
	for _, key := range keys {
		nr, ok := doc.NodeResults[key]
		if !ok {
			continue
		}
		for _, pr := range nr.Paths {
			doc.Statistics.add(pr.Statistics)
		}
	}

	logger.Info("augmentation complete",
		"paths", doc.Statistics.TotalPaths,
		"merges", doc.Statistics.TotalMerges,
		"inserts", doc.Statistics.TotalInserts,
		"splits", doc.Statistics.TotalSplits)

	return doc, nil
}

// processNode augments every deduplicated path of a single start node.
// Returns nil when the node contributes no usable paths.
func processNode(key string, node inputNode, g *graph.Graph, params Params, logger *slog.Logger) *NodeResult {
	nodeIdx, err := strconv.Atoi(key)
	if err != nil {
		logger.Warn("skipping node with non-numeric key", "key", key)
		return nil
	}

	if len(node.PathsAfterDedup) == 0 {
		return nil
	}

	name := node.Name
	if name == "" {
		name = g.Name(nodeIdx)
	}

	paths := []PathResult{}
	for pathIdx, entry := range node.PathsAfterDedup {
		if len(entry.NodeIndices) == 0 {
			logger.Warn("skipping malformed path entry", "node", nodeIdx, "path_idx", pathIdx)
			continue
		}
		paths = append(paths, processPath(nodeIdx, pathIdx, entry.NodeIndices, g, params))
	}
	if len(paths) == 0 {
		return nil
	}

	return &NodeResult{
		NodeIdx:  nodeIdx,
		NodeName: name,
		NumPaths: len(paths),
		Paths:    paths,
	}
}

// processPath applies merge, insert and split to one walk and repairs the
// log indices shifted by split.
func processPath(nodeIdx, pathIdx int, path []int, g *graph.Graph, params Params) PathResult {
	rng := rand.New(rand.NewSource(pathSeed(params.Seed, nodeIdx, pathIdx)))

	initial := fsp.FromFlatPath(path)
	merged, mergeLogs := fsp.Merge(initial, params.MergeProbability, rng, g.IndexToName)
	afterInsert, insertLogs := fsp.Insert(merged, g.Adjacency, params.InsertProbability, params.LongDependencyProbability, rng, g.IndexToName)
	final, splitLogs := fsp.Split(afterInsert, params.SplitProbability, rng, g.IndexToName)

	fsp.RepairLogs(mergeLogs, insertLogs, splitLogs)

	shortInserts, longInserts := 0, 0
	for _, l := range insertLogs {
		if l.InsertType == fsp.LongDependency {
			longInserts++
		} else {
			shortInserts++
		}
	}

	names := make([]string, len(path))
	for i, idx := range path {
		names[i] = g.Name(idx)
	}

	return PathResult{
		PathIdx:           pathIdx,
		OriginalPath:      path,
		OriginalPathNames: names,
		FSPInitial:        initial,
		FSPMerged:         merged,
		FSPAfterInsert:    afterInsert,
		FSPFinal:          final,
		FSPFinalNames:     fsp.Names(final, g.IndexToName),
		Statistics: PathStatistics{
			TurnsInitial:           len(initial),
			TurnsMerged:            len(merged),
			TurnsAfterInsert:       len(afterInsert),
			TurnsFinal:             len(final),
			FunctionsInitial:       len(path),
			FunctionsFinal:         fsp.FunctionCount(final),
			NumMerges:              len(mergeLogs),
			NumInserts:             len(insertLogs),
			ShortDependencyInserts: shortInserts,
			LongDependencyInserts:  longInserts,
			NumSplits:              len(splitLogs),
		},
		MergeLogs:  mergeLogs,
		InsertLogs: insertLogs,
		SplitLogs:  splitLogs,
	}
}

// pathSeed derives an independent RNG stream for one path from the global
// seed and the path's identity, keeping output stable under any worker count.
func pathSeed(seed int64, nodeIdx, pathIdx int) int64 {
	return seed*1_000_003 + int64(nodeIdx)*8191 + int64(pathIdx)
}

// sortedNodeKeys orders map keys numerically so processing and aggregation
// order never depend on map iteration.
func sortedNodeKeys(m map[string]inputNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := strconv.Atoi(keys[i])
		b, berr := strconv.Atoi(keys[j])
		if aerr != nil || berr != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}

// WriteFile serializes the document once, creating parent directories.
func (d *Document) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fsp document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fsp document %s: %w", path, err)
	}
	return nil
}

// ReadDocument loads a previously written FSP document.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fsp document %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fsp document %s: %w", path, err)
	}
	return &doc, nil
}
