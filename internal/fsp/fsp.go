// Package fsp implements the flow-sequence-plan representation of a tool-call
// trajectory and the merge/insert/split operations that augment it.
package fsp

import "fmt"

// Turn is the set of tool indices invoked together at one conversational step.
// A turn is empty only when the split operation inserted it to mark a
// missing-information gap.
type Turn []int

// FSP is an ordered sequence of turns. Each pipeline stage produces a new
// value; earlier stages are kept intact so before/after snapshots can be
// compared.
type FSP []Turn

// Insert types.
const (
	ShortDependency = "short_dependency"
	LongDependency  = "long_dependency"
)

// Miss types recorded by split.
const (
	MissFunc   = "miss_func"
	MissParams = "miss_params"
)

// MergeLog records one merge of two adjacent turns. TurnIdx is the index of
// the combined turn in the post-merge sequence.
type MergeLog struct {
	TurnIdx     int      `json:"turn_idx"`
	MergedNames []string `json:"merged_names"`
}

// InsertLog records one nested-call insertion. TargetTurnIdx is the turn that
// received the nested call; for a long dependency it is strictly greater than
// SourceTurnIdx.
type InsertLog struct {
	SourceTurnIdx  int    `json:"source_turn_idx"`
	SourceFunc     int    `json:"source_func"`
	SourceFuncName string `json:"source_func_name"`
	NestedFunc     int    `json:"nested_func"`
	NestedFuncName string `json:"nested_func_name"`
	InsertType     string `json:"insert_type"`
	TargetTurnIdx  int    `json:"target_turn_idx"`
}

// SplitLog records one empty-turn insertion. InsertPosition is the index of
// the turn the empty turn was placed after, in the pre-split numbering.
type SplitLog struct {
	InsertPosition  int      `json:"insert_position"`
	MissType        string   `json:"miss_type"`
	TurnBefore      Turn     `json:"turn_before"`
	TurnBeforeNames []string `json:"turn_before_names"`
	TurnAfter       Turn     `json:"turn_after"`
	TurnAfterNames  []string `json:"turn_after_names"`
}

// FromFlatPath converts a flat walk (one node per step) into an FSP with one
// single-call turn per node.
func FromFlatPath(path []int) FSP {
	out := make(FSP, len(path))
	for i, node := range path {
		out[i] = Turn{node}
	}
	return out
}

// Flatten collapses an FSP back into a flat node sequence, losing turn
// boundaries. Empty turns contribute nothing.
func Flatten(f FSP) []int {
	flat := make([]int, 0, len(f))
	for _, turn := range f {
		flat = append(flat, turn...)
	}
	return flat
}

// FunctionCount returns the total number of calls across all turns.
func FunctionCount(f FSP) int {
	n := 0
	for _, turn := range f {
		n += len(turn)
	}
	return n
}

// Names resolves every turn's indices through idxToName.
func Names(f FSP, idxToName map[int]string) [][]string {
	out := make([][]string, len(f))
	for i, turn := range f {
		out[i] = TurnNames(turn, idxToName)
	}
	return out
}

// TurnNames resolves a single turn's indices through idxToName. Unknown
// indices fall back to a "node_<idx>" placeholder, mirroring the graph
// loader's convention.
func TurnNames(turn Turn, idxToName map[int]string) []string {
	names := make([]string, len(turn))
	for i, idx := range turn {
		names[i] = NodeName(idx, idxToName)
	}
	return names
}

// NodeName resolves one index, falling back to a placeholder.
func NodeName(idx int, idxToName map[int]string) string {
	if name, ok := idxToName[idx]; ok {
		return name
	}
	return fmt.Sprintf("node_%d", idx)
}
