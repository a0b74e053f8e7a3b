package fsp

// RepairLogs shifts the turn indices recorded in merge and insert logs so
// they remain valid references into the final, split-expanded FSP.
//
// Each split at position p pushes every turn at index > p one slot to the
// right. Because split positions are recorded in pre-split numbering, the
// correct shift for a recorded index is the number of splits strictly below
// it, computed against the original value. Applying splits as independent
// passes over already-shifted indices would double-count when a path holds
// more than one split; this computes the cumulative shift in one pass per
// log entry instead.
func RepairLogs(mergeLogs []MergeLog, insertLogs []InsertLog, splitLogs []SplitLog) {
	if len(splitLogs) == 0 {
		return
	}

	positions := make([]int, len(splitLogs))
	for i, s := range splitLogs {
		positions[i] = s.InsertPosition
	}

	for i := range insertLogs {
		insertLogs[i].TargetTurnIdx += shiftFor(insertLogs[i].TargetTurnIdx, positions)
		insertLogs[i].SourceTurnIdx += shiftFor(insertLogs[i].SourceTurnIdx, positions)
	}
	for i := range mergeLogs {
		mergeLogs[i].TurnIdx += shiftFor(mergeLogs[i].TurnIdx, positions)
	}
}

// shiftFor counts the splits inserted strictly before the recorded index.
func shiftFor(idx int, splitPositions []int) int {
	n := 0
	for _, p := range splitPositions {
		if idx > p {
			n++
		}
	}
	return n
}
