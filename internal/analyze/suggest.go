// Package analyze provides similarity matching over graph tool names, used
// to resolve a user-supplied name to a node index.
package analyze

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Suggestion pairs a known tool name with its similarity score (0-1, higher is better).
type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// DefaultThreshold is the minimum score for a suggestion to be returned.
const DefaultThreshold = 0.5

// DefaultTopN is the maximum number of suggestions returned.
const DefaultTopN = 5

// Suggest returns known tool names similar to name, best first, filtered to
// scores >= DefaultThreshold and capped at DefaultTopN.
func Suggest(name string, known []string) []Suggestion {
	return SuggestN(name, known, DefaultTopN, DefaultThreshold)
}

// SuggestN returns up to topN known tool names with score >= threshold.
func SuggestN(name string, known []string, topN int, threshold float64) []Suggestion {
	if name == "" || len(known) == 0 {
		return nil
	}

	norm := normalize(name)
	var results []Suggestion
	for _, k := range known {
		if score := similarity(norm, normalize(k)); score >= threshold {
			results = append(results, Suggestion{Name: k, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// similarity scores two normalized names: edit distance scaled to [0,1]
// with a small bonus for a shared prefix, since MCP tool names tend to
// share server prefixes like "get_" or "mlb-stats-server-".
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	maxLen := max(len(a), len(b))
	score := 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	score += 0.1 * float64(sharedPrefix(a, b)) / float64(maxLen)
	return min(score, 1.0)
}

// normalize lowercases a tool name and collapses the separators MCP servers
// mix freely (underscores, hyphens, dots) into single spaces.
func normalize(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if r == '_' || r == '-' || r == '.' || unicode.IsSpace(r) {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte(' ')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sharedPrefix returns the length of the common prefix of a and b.
func sharedPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
