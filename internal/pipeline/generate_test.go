package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/h66840/graph-toucan-sub001/internal/fsp"
)

const testGraph = `{
  "nodes": [
    {"index": 0, "function_schema": {"function": {"name": "get_weather"}}},
    {"index": 1, "function_schema": {"function": {"name": "book_flight"}}},
    {"index": 2, "function_schema": {"function": {"name": "send_email"}}},
    {"index": 5, "function_schema": {"function": {"name": "convert_unit"}}}
  ],
  "edges": [
    {"source": 0, "target": 1},
    {"source": 1, "target": 2},
    {"source": 0, "target": 5}
  ]
}`

const testPaths = `{
  "node_results": {
    "0": {
      "name": "get_weather",
      "paths_after_dedup": [{"node_indices": [0, 1, 2]}]
    }
  }
}`

func writeFixtures(t *testing.T, graphJSON, pathsJSON string) (graphPath, inputPath string) {
	t.Helper()
	dir := t.TempDir()
	graphPath = filepath.Join(dir, "graph.json")
	inputPath = filepath.Join(dir, "paths.json")
	if err := os.WriteFile(graphPath, []byte(graphJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(inputPath, []byte(pathsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return graphPath, inputPath
}

func testParams(graphPath, inputPath string) Params {
	p := DefaultParams()
	p.GraphPath = graphPath
	p.InputPath = inputPath
	return p
}

func TestGenerateAllOperatorsDisabled(t *testing.T) {
	graphPath, inputPath := writeFixtures(t, testGraph, testPaths)
	p := testParams(graphPath, inputPath)
	p.MergeProbability = 0
	p.InsertProbability = 0
	p.SplitProbability = 0

	doc, err := Generate(p, nil)
	if err != nil {
		t.Fatal(err)
	}

	nr, ok := doc.NodeResults["0"]
	if !ok {
		t.Fatal("missing node_results entry for node 0")
	}
	if nr.NumPaths != 1 || len(nr.Paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(nr.Paths))
	}
	pr := nr.Paths[0]

	want := fsp.FSP{{0}, {1}, {2}}
	for _, stage := range []struct {
		name string
		got  fsp.FSP
	}{
		{"fsp_initial", pr.FSPInitial},
		{"fsp_merged", pr.FSPMerged},
		{"fsp_after_insert", pr.FSPAfterInsert},
		{"fsp_final", pr.FSPFinal},
	} {
		if !reflect.DeepEqual(stage.got, want) {
			t.Errorf("%s = %v, want %v", stage.name, stage.got, want)
		}
	}
	if len(pr.MergeLogs) != 0 || len(pr.InsertLogs) != 0 || len(pr.SplitLogs) != 0 {
		t.Errorf("logs not empty: %d merges, %d inserts, %d splits",
			len(pr.MergeLogs), len(pr.InsertLogs), len(pr.SplitLogs))
	}
	if doc.Statistics.TotalPaths != 1 || doc.Statistics.TotalMerges != 0 ||
		doc.Statistics.TotalInserts != 0 || doc.Statistics.TotalSplits != 0 {
		t.Errorf("statistics = %+v", doc.Statistics)
	}
	if doc.Statistics.TotalFunctionsBefore != 3 || doc.Statistics.TotalFunctionsFinal != 3 {
		t.Errorf("function counts = %d before, %d final, want 3 and 3",
			doc.Statistics.TotalFunctionsBefore, doc.Statistics.TotalFunctionsFinal)
	}
}

func TestGenerateMergeAlways(t *testing.T) {
	graphPath, inputPath := writeFixtures(t, testGraph, testPaths)
	p := testParams(graphPath, inputPath)
	p.MergeProbability = 1
	p.InsertProbability = 0
	p.SplitProbability = 0

	doc, err := Generate(p, nil)
	if err != nil {
		t.Fatal(err)
	}

	pr := doc.NodeResults["0"].Paths[0]
	want := fsp.FSP{{0, 1}, {2}}
	if !reflect.DeepEqual(pr.FSPMerged, want) {
		t.Errorf("fsp_merged = %v, want %v", pr.FSPMerged, want)
	}
	if !reflect.DeepEqual(pr.FSPFinal, want) {
		t.Errorf("fsp_final = %v, want %v", pr.FSPFinal, want)
	}
	if len(pr.MergeLogs) != 1 {
		t.Fatalf("got %d merge logs, want 1", len(pr.MergeLogs))
	}
	if pr.MergeLogs[0].TurnIdx != 0 {
		t.Errorf("merge log TurnIdx = %d, want 0", pr.MergeLogs[0].TurnIdx)
	}
	wantNames := []string{"get_weather", "book_flight"}
	if !reflect.DeepEqual(pr.MergeLogs[0].MergedNames, wantNames) {
		t.Errorf("merged_names = %v, want %v", pr.MergeLogs[0].MergedNames, wantNames)
	}
	if pr.Statistics.NumMerges != 1 || pr.Statistics.TurnsMerged != 2 {
		t.Errorf("path statistics = %+v", pr.Statistics)
	}
}

func TestGenerateInsertAlways(t *testing.T) {
	// Single-call path; only node 0 has an unused neighbor (5).
	paths := `{
	  "node_results": {
	    "0": {"name": "get_weather", "paths_after_dedup": [{"node_indices": [0]}]}
	  }
	}`
	graphPath, inputPath := writeFixtures(t, testGraph, paths)
	p := testParams(graphPath, inputPath)
	p.MergeProbability = 0
	p.InsertProbability = 1
	p.LongDependencyProbability = 0
	p.SplitProbability = 0

	doc, err := Generate(p, nil)
	if err != nil {
		t.Fatal(err)
	}

	pr := doc.NodeResults["0"].Paths[0]
	if len(pr.InsertLogs) != 1 {
		t.Fatalf("got %d insert logs, want 1", len(pr.InsertLogs))
	}
	l := pr.InsertLogs[0]
	if l.InsertType != fsp.ShortDependency {
		t.Errorf("insert_type = %q, want %q", l.InsertType, fsp.ShortDependency)
	}
	if l.SourceFunc != 0 || l.SourceTurnIdx != 0 || l.TargetTurnIdx != 0 {
		t.Errorf("insert log = %+v", l)
	}
	if l.NestedFuncName == "" || l.SourceFuncName != "get_weather" {
		t.Errorf("insert log names = (%q, %q)", l.SourceFuncName, l.NestedFuncName)
	}
	if got := fsp.FunctionCount(pr.FSPFinal); got != 2 {
		t.Errorf("final function count = %d, want 2", got)
	}
	if doc.Statistics.ShortDependencyInserts != 1 || doc.Statistics.LongDependencyInserts != 0 {
		t.Errorf("insert counters = %+v", doc.Statistics)
	}
}

func TestGenerateSplitAlways(t *testing.T) {
	graphPath, inputPath := writeFixtures(t, testGraph, testPaths)
	p := testParams(graphPath, inputPath)
	p.MergeProbability = 0
	p.InsertProbability = 0
	p.SplitProbability = 1

	doc, err := Generate(p, nil)
	if err != nil {
		t.Fatal(err)
	}

	pr := doc.NodeResults["0"].Paths[0]
	want := fsp.FSP{{0}, {}, {1}, {}, {2}, {}}
	if !reflect.DeepEqual(pr.FSPFinal, want) {
		t.Errorf("fsp_final = %v, want %v", pr.FSPFinal, want)
	}
	if len(pr.SplitLogs) != 3 {
		t.Errorf("got %d split logs, want 3", len(pr.SplitLogs))
	}
	// Splits add turns but never calls.
	if pr.Statistics.FunctionsFinal != 3 || pr.Statistics.TurnsFinal != 6 {
		t.Errorf("path statistics = %+v", pr.Statistics)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	graphPath, inputPath := writeFixtures(t, testGraph, testPaths)
	p := testParams(graphPath, inputPath)

	a, err := Generate(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(p, nil)
	if err != nil {
		t.Fatal(err)
	}

	aj, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	bj, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if string(aj) != string(bj) {
		t.Error("two runs with identical params produced different output")
	}
}

func TestGenerateWorkerCountInvariant(t *testing.T) {
	paths := `{
	  "node_results": {
	    "0": {"name": "get_weather", "paths_after_dedup": [{"node_indices": [0, 1, 2]}, {"node_indices": [0, 5]}]},
	    "1": {"name": "book_flight", "paths_after_dedup": [{"node_indices": [1, 2]}]},
	    "2": {"name": "send_email", "paths_after_dedup": [{"node_indices": [2]}]}
	  }
	}`
	graphPath, inputPath := writeFixtures(t, testGraph, paths)

	p1 := testParams(graphPath, inputPath)
	p1.Workers = 1
	p4 := testParams(graphPath, inputPath)
	p4.Workers = 4

	a, err := Generate(p1, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(p4, nil)
	if err != nil {
		t.Fatal(err)
	}

	aj, _ := json.MarshalIndent(a, "", "  ")
	bj, _ := json.MarshalIndent(b, "", "  ")
	if string(aj) != string(bj) {
		t.Error("output differs between 1 and 4 workers")
	}
}

func TestGenerateSkipsMalformedEntries(t *testing.T) {
	paths := `{
	  "node_results": {
	    "0": {"name": "get_weather", "paths_after_dedup": [
	      {"node_indices": [0, 1]},
	      "not a path",
	      {"node_indices": []}
	    ]},
	    "summary": {"name": "x", "paths_after_dedup": [{"node_indices": [1]}]},
	    "2": {"name": "send_email", "paths_after_dedup": []}
	  }
	}`
	graphPath, inputPath := writeFixtures(t, testGraph, paths)
	p := testParams(graphPath, inputPath)

	doc, err := Generate(p, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.NodeResults) != 1 {
		t.Errorf("got %d node results, want 1 (others malformed or empty)", len(doc.NodeResults))
	}
	nr := doc.NodeResults["0"]
	if nr == nil || nr.NumPaths != 1 {
		t.Fatalf("node 0 result = %+v, want one surviving path", nr)
	}
	if doc.Statistics.TotalPaths != 1 {
		t.Errorf("TotalPaths = %d, want 1", doc.Statistics.TotalPaths)
	}
}

func TestGenerateBareArrayPathForm(t *testing.T) {
	paths := `{
	  "node_results": {
	    "0": {"name": "get_weather", "paths_after_dedup": [[0, 1, 2]]}
	  }
	}`
	graphPath, inputPath := writeFixtures(t, testGraph, paths)
	p := testParams(graphPath, inputPath)
	p.MergeProbability = 0
	p.InsertProbability = 0
	p.SplitProbability = 0

	doc, err := Generate(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	pr := doc.NodeResults["0"].Paths[0]
	if !reflect.DeepEqual(pr.OriginalPath, []int{0, 1, 2}) {
		t.Errorf("original_path = %v, want [0 1 2]", pr.OriginalPath)
	}
}

func TestGenerateMissingInputs(t *testing.T) {
	graphPath, inputPath := writeFixtures(t, testGraph, testPaths)

	p := testParams(graphPath, filepath.Join(t.TempDir(), "nope.json"))
	if _, err := Generate(p, nil); err == nil {
		t.Error("missing path file accepted, want error")
	}

	p = testParams(filepath.Join(t.TempDir(), "nope.json"), inputPath)
	if _, err := Generate(p, nil); err == nil {
		t.Error("missing graph file accepted, want error")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	graphPath, inputPath := writeFixtures(t, testGraph, testPaths)
	doc, err := Generate(testParams(graphPath, inputPath), nil)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "fsp", "out.json")
	if err := doc.WriteFile(out); err != nil {
		t.Fatal(err)
	}
	back, err := ReadDocument(out)
	if err != nil {
		t.Fatal(err)
	}
	if back.Statistics != doc.Statistics {
		t.Errorf("statistics changed across round trip: %+v vs %+v", back.Statistics, doc.Statistics)
	}
	if len(back.NodeResults) != len(doc.NodeResults) {
		t.Errorf("node result count changed: %d vs %d", len(back.NodeResults), len(doc.NodeResults))
	}
}

func TestMetaOmitsSplitProbability(t *testing.T) {
	// The meta block deliberately records only the first three probabilities.
	data, err := json.Marshal(Meta{})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if _, ok := fields["split_probability"]; ok {
		t.Error("meta contains split_probability")
	}
	for _, want := range []string{"input_path", "graph_path", "merge_probability", "insert_probability", "long_dependency_probability", "seed"} {
		if _, ok := fields[want]; !ok {
			t.Errorf("meta missing %q", want)
		}
	}
}
