package fsp

import "math/rand"

// Merge fuses adjacent turn pairs into single turns, modeling an agent
// issuing several tool calls in one reasoning step.
//
// The scan is left-to-right and greedy: at each unconsumed adjacent pair a
// uniform draw below mergeProbability concatenates the right turn onto the
// left and skips past both, so a turn participates in at most one merge per
// call. The logged turn index is the combined turn's position in the returned
// sequence.
func Merge(f FSP, mergeProbability float64, rng *rand.Rand, idxToName map[int]string) (FSP, []MergeLog) {
	merged := make(FSP, 0, len(f))
	logs := []MergeLog{}

	i := 0
	for i < len(f) {
		current := f[i]
		if i < len(f)-1 && rng.Float64() < mergeProbability {
			next := f[i+1]

			combined := make(Turn, 0, len(current)+len(next))
			combined = append(combined, current...)
			combined = append(combined, next...)
			merged = append(merged, combined)

			logs = append(logs, MergeLog{
				TurnIdx:     len(merged) - 1,
				MergedNames: TurnNames(combined, idxToName),
			})

			i += 2
			continue
		}
		merged = append(merged, copyTurn(current))
		i++
	}

	return merged, logs
}

func copyTurn(t Turn) Turn {
	out := make(Turn, len(t))
	copy(out, t)
	return out
}
