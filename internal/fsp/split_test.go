package fsp

import (
	"reflect"
	"testing"
)

func TestSplitDisabled(t *testing.T) {
	in := FSP{{1}, {2}, {3}}
	got, logs := Split(in, 0, testRNG(), nil)

	if !reflect.DeepEqual(got, in) {
		t.Errorf("Split(p=0) = %v, want unchanged %v", got, in)
	}
	if len(logs) != 0 {
		t.Errorf("Split(p=0) logs = %v, want empty", logs)
	}
}

func TestSplitEmptyFSP(t *testing.T) {
	got, logs := Split(FSP{}, 1, testRNG(), nil)
	if len(got) != 0 || len(logs) != 0 {
		t.Errorf("Split on empty FSP = %v, %v; want no-ops", got, logs)
	}
}

func TestSplitAlways(t *testing.T) {
	in := FSP{{1}, {2}, {3}}
	got, logs := Split(in, 1, testRNG(), nil)

	// One empty turn after every original turn, trailing split included.
	want := FSP{{1}, {}, {2}, {}, {3}, {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split(p=1) = %v, want %v", got, want)
	}
	if len(logs) != 3 {
		t.Fatalf("got %d logs, want 3", len(logs))
	}
	for i, l := range logs {
		if l.InsertPosition != i {
			t.Errorf("log %d InsertPosition = %d, want %d (pre-split numbering)", i, l.InsertPosition, i)
		}
		if l.MissType != MissFunc && l.MissType != MissParams {
			t.Errorf("log %d MissType = %q", i, l.MissType)
		}
	}
}

func TestSplitOnlyAddsEmptyTurns(t *testing.T) {
	in := FSP{{1, 2}, {3}, {4, 5, 6}}
	got, logs := Split(in, 0.5, testRNG(), nil)

	var nonEmpty FSP
	for _, turn := range got {
		if len(turn) > 0 {
			nonEmpty = append(nonEmpty, turn)
		}
	}
	if !reflect.DeepEqual(nonEmpty, in) {
		t.Errorf("non-empty turns = %v, want %v", nonEmpty, in)
	}
	if len(got) != len(in)+len(logs) {
		t.Errorf("len(final) = %d, want %d + %d splits", len(got), len(in), len(logs))
	}
}

func TestSplitSingleTurn(t *testing.T) {
	got, logs := Split(FSP{{1}}, 1, testRNG(), nil)
	want := FSP{{1}, {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %v, want %v", got, want)
	}
	if len(logs) != 1 || logs[0].InsertPosition != 0 {
		t.Errorf("logs = %+v, want one entry at position 0", logs)
	}
}

func TestSplitLogNames(t *testing.T) {
	names := map[int]string{1: "book_flight", 2: "send_email"}
	_, logs := Split(FSP{{1}, {2}}, 1, testRNG(), names)

	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if !reflect.DeepEqual(logs[0].TurnBeforeNames, []string{"book_flight"}) {
		t.Errorf("TurnBeforeNames = %v", logs[0].TurnBeforeNames)
	}
	if !reflect.DeepEqual(logs[0].TurnAfterNames, []string{"send_email"}) {
		t.Errorf("TurnAfterNames = %v", logs[0].TurnAfterNames)
	}
	// Trailing split has no following turn.
	if len(logs[1].TurnAfterNames) != 0 {
		t.Errorf("trailing TurnAfterNames = %v, want empty", logs[1].TurnAfterNames)
	}
}
