package fsp

import "math/rand"

// Split inserts empty turns to simulate missing-information gaps: the agent
// had to stop for a clarifying question or lacked a parameter or tool before
// the trace could continue.
//
// Every boundary after a turn draws against splitProbability, including the
// one after the last turn. Logged insert positions are indices into the
// input sequence, before any of this call's own insertions, so multiple
// splits in one pass never interfere with each other's bookkeeping.
func Split(f FSP, splitProbability float64, rng *rand.Rand, idxToName map[int]string) (FSP, []SplitLog) {
	out := make(FSP, 0, len(f))
	logs := []SplitLog{}

	for i, turn := range f {
		out = append(out, copyTurn(turn))

		if rng.Float64() >= splitProbability {
			continue
		}

		missType := MissFunc
		if rng.Intn(2) == 1 {
			missType = MissParams
		}

		after := Turn{}
		if i+1 < len(f) {
			after = copyTurn(f[i+1])
		}

		out = append(out, Turn{})
		logs = append(logs, SplitLog{
			InsertPosition:  i,
			MissType:        missType,
			TurnBefore:      copyTurn(turn),
			TurnBeforeNames: TurnNames(turn, idxToName),
			TurnAfter:       after,
			TurnAfterNames:  TurnNames(after, idxToName),
		})
	}

	return out, logs
}
