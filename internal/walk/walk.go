// Package walk generates acyclic random walks over the tool dependency
// graph and writes the deduplicated path file consumed by the FSP pipeline.
package walk

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/h66840/graph-toucan-sub001/internal/graph"
)

// Options controls a walk run.
type Options struct {
	MaxSteps     int
	WalksPerNode int
	Seed         int64
}

// PathEntry is one deduplicated walk from a start node.
type PathEntry struct {
	WalkID      int      `json:"walk_id"`
	NodeIndices []int    `json:"node_indices"`
	NodeNames   []string `json:"node_names"`
	PathLength  int      `json:"path_length"`
}

// NodeResult groups the walks starting from a single node.
type NodeResult struct {
	NodeIdx         int         `json:"node_idx"`
	Name            string      `json:"name"`
	NumWalks        int         `json:"num_walks"`
	NumBeforeDedup  int         `json:"num_paths_before_dedup"`
	NumAfterDedup   int         `json:"num_paths_after_dedup"`
	DedupRatio      float64     `json:"dedup_ratio"`
	PathsAfterDedup []PathEntry `json:"paths_after_dedup"`
}

// Document is the path file written to disk.
type Document struct {
	Meta        Meta                   `json:"meta"`
	NodeResults map[string]*NodeResult `json:"node_results"`
}

// Meta records how the path file was produced.
type Meta struct {
	GraphPath    string `json:"graph_path"`
	MaxSteps     int    `json:"max_steps"`
	WalksPerNode int    `json:"walks_per_node"`
	Seed         int64  `json:"seed"`
}

// From walks from start along adj for at most maxSteps hops. The walk never
// revisits a node, so it always traces a simple path; it stops early when
// every neighbor of the current node has been seen.
func From(start int, adj map[int][]int, maxSteps int, rng *rand.Rand) []int {
	path := []int{start}
	visited := map[int]bool{start: true}
	current := start

	for step := 0; step < maxSteps; step++ {
		var unvisited []int
		for _, n := range adj[current] {
			if !visited[n] {
				unvisited = append(unvisited, n)
			}
		}
		if len(unvisited) == 0 {
			break
		}
		current = unvisited[rng.Intn(len(unvisited))]
		path = append(path, current)
		visited[current] = true
	}

	return path
}

// Run walks from every node in the graph, deduplicates the per-node paths,
// and returns the resulting document. Each start node draws from its own
// RNG stream derived from the seed and the node index, so results do not
// depend on node visit order.
func Run(g *graph.Graph, graphPath string, opts Options, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}

	doc := &Document{
		Meta: Meta{
			GraphPath:    graphPath,
			MaxSteps:     opts.MaxSteps,
			WalksPerNode: opts.WalksPerNode,
			Seed:         opts.Seed,
		},
		NodeResults: make(map[string]*NodeResult, len(g.Nodes)),
	}

	for _, node := range g.Nodes {
		rng := rand.New(rand.NewSource(opts.Seed + int64(node.Index)*1_000_003))

		seen := make(map[string]bool)
		deduped := []PathEntry{}
		for w := 0; w < opts.WalksPerNode; w++ {
			path := From(node.Index, g.Adjacency, opts.MaxSteps, rng)
			key := fmt.Sprint(path)
			if seen[key] {
				continue
			}
			seen[key] = true
			names := make([]string, len(path))
			for i, idx := range path {
				names[i] = g.Name(idx)
			}
			deduped = append(deduped, PathEntry{
				WalkID:      len(deduped) + 1,
				NodeIndices: path,
				NodeNames:   names,
				PathLength:  len(path),
			})
		}

		ratio := 0.0
		if opts.WalksPerNode > 0 {
			ratio = float64(opts.WalksPerNode-len(deduped)) / float64(opts.WalksPerNode)
		}
		doc.NodeResults[fmt.Sprint(node.Index)] = &NodeResult{
			NodeIdx:         node.Index,
			Name:            g.Name(node.Index),
			NumWalks:        opts.WalksPerNode,
			NumBeforeDedup:  opts.WalksPerNode,
			NumAfterDedup:   len(deduped),
			DedupRatio:      ratio,
			PathsAfterDedup: deduped,
		}
	}

	logger.Info("random walks complete",
		"nodes", len(g.Nodes),
		"walks_per_node", opts.WalksPerNode,
		"max_steps", opts.MaxSteps)

	return doc
}

// WriteFile serializes the document to path, creating parent directories.
func (d *Document) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal path file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write path file %s: %w", path, err)
	}
	return nil
}
