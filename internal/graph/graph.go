// Package graph loads the tool dependency graph consumed by the walk and
// augmentation stages.
package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// Node is one tool in the dependency graph. Only the index and the function
// name inside the schema matter downstream; the rest of the schema is carried
// opaquely.
type Node struct {
	Index          int             `json:"index"`
	FunctionSchema json.RawMessage `json:"function_schema,omitempty"`
}

// Edge is a directed "can invoke" relation between two tool indices.
type Edge struct {
	Source         int    `json:"source"`
	Target         int    `json:"target"`
	DependencyType string `json:"dependency_type,omitempty"`
}

// Graph holds the loaded nodes and edges plus the two lookups the
// augmentation engine actually needs: index-to-name and adjacency.
type Graph struct {
	Nodes       []Node
	Edges       []Edge
	IndexToName map[int]string
	Adjacency   map[int][]int
}

type graphFile struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// functionSchema is the subset of a node's schema we read the name from.
type functionSchema struct {
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

// Load reads a graph JSON file and builds the name and adjacency lookups.
// Edges typed "prerequisite" express ordering, not invocation, and are
// excluded from adjacency.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph %s: %w", path, err)
	}

	var gf graphFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse graph %s: %w", path, err)
	}

	g := &Graph{
		Nodes:       gf.Nodes,
		IndexToName: make(map[int]string, len(gf.Nodes)),
		Adjacency:   make(map[int][]int),
	}

	for _, node := range gf.Nodes {
		name := fmt.Sprintf("node_%d", node.Index)
		if len(node.FunctionSchema) > 0 {
			var fs functionSchema
			if err := json.Unmarshal(node.FunctionSchema, &fs); err == nil && fs.Function.Name != "" {
				name = fs.Function.Name
			}
		}
		g.IndexToName[node.Index] = name
	}

	for _, edge := range gf.Edges {
		if edge.DependencyType == "prerequisite" {
			continue
		}
		g.Edges = append(g.Edges, edge)
		g.Adjacency[edge.Source] = append(g.Adjacency[edge.Source], edge.Target)
	}

	return g, nil
}

// Name resolves a node index to its tool name, with a placeholder fallback
// for indices missing from the graph.
func (g *Graph) Name(idx int) string {
	if name, ok := g.IndexToName[idx]; ok {
		return name
	}
	return fmt.Sprintf("node_%d", idx)
}

// Neighbors returns the tools that idx can invoke as nested calls.
func (g *Graph) Neighbors(idx int) []int {
	return g.Adjacency[idx]
}
