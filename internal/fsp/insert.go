package fsp

import "math/rand"

// Insert injects nested helper calls into existing turns, using the graph
// adjacency to pick plausible candidates. The returned FSP has the same turn
// count as the input; calls are only ever appended, never removed or
// reordered.
//
// Every call already present in the input draws against insertProbability.
// A successful draw picks a dependent of that call from adj, excluding nodes
// already anywhere in the FSP, then draws against longDependencyProbability:
// a long dependency lands the nested call in a uniformly chosen later turn,
// a short dependency appends it to the source's own turn. A source in the
// last turn always falls back to a short dependency.
func Insert(f FSP, adj map[int][]int, insertProbability, longDependencyProbability float64, rng *rand.Rand, idxToName map[int]string) (FSP, []InsertLog) {
	out := make(FSP, len(f))
	for i, turn := range f {
		out[i] = copyTurn(turn)
	}
	logs := []InsertLog{}

	// Track every call in the plan so the same tool is never inserted twice.
	present := make(map[int]bool)
	for _, turn := range f {
		for _, idx := range turn {
			present[idx] = true
		}
	}

	for turnIdx, turn := range f {
		for _, source := range turn {
			if rng.Float64() >= insertProbability {
				continue
			}

			candidates := availableNeighbors(adj[source], present)
			if len(candidates) == 0 {
				continue
			}

			nested := candidates[rng.Intn(len(candidates))]
			present[nested] = true

			isLong := rng.Float64() < longDependencyProbability

			entry := InsertLog{
				SourceTurnIdx:  turnIdx,
				SourceFunc:     source,
				SourceFuncName: NodeName(source, idxToName),
				NestedFunc:     nested,
				NestedFuncName: NodeName(nested, idxToName),
			}

			if isLong && turnIdx < len(out)-1 {
				target := turnIdx + 1 + rng.Intn(len(out)-turnIdx-1)
				out[target] = append(out[target], nested)
				entry.InsertType = LongDependency
				entry.TargetTurnIdx = target
			} else {
				out[turnIdx] = append(out[turnIdx], nested)
				entry.InsertType = ShortDependency
				entry.TargetTurnIdx = turnIdx
			}

			logs = append(logs, entry)
		}
	}

	return out, logs
}

// availableNeighbors filters out neighbors already used in the plan.
func availableNeighbors(neighbors []int, present map[int]bool) []int {
	var out []int
	for _, n := range neighbors {
		if !present[n] {
			out = append(out, n)
		}
	}
	return out
}
