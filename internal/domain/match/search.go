package match

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/jobmatch/internal/domain/job"
)

const (
	strongBand = 0.8
	goodBand   = 0.7

	maxExplainedConcepts = 3
)

// SearchResult is one ranked search hit.
type SearchResult struct {
	Job                 job.Posting `json:"job"`
	SemanticScore       float64     `json:"semantic_score"`
	LexicalScore        float64     `json:"lexical_score"`
	Score               float64     `json:"score"`
	MatchedConcepts     []string    `json:"matched_concepts"`
	Explanation         string      `json:"explanation"`
	SemanticUnavailable bool        `json:"semantic_unavailable,omitempty"`
}

// Explain builds the one-line explanation for a search hit.
func Explain(semantic float64, concepts []string, title, query string) string {
	var b strings.Builder
	switch {
	case semantic > strongBand:
		b.WriteString("Strong semantic match")
	case semantic > goodBand:
		b.WriteString("Good semantic match")
	default:
		b.WriteString("Partial semantic match")
	}

	if len(concepts) > 0 {
		shown := concepts
		if len(shown) > maxExplainedConcepts {
			shown = shown[:maxExplainedConcepts]
		}
		b.WriteString("; shared concepts: ")
		b.WriteString(strings.Join(shown, ", "))
	}

	if TitleContains(title, query) {
		fmt.Fprintf(&b, "; title contains %q", strings.TrimSpace(query))
	}
	return b.String()
}

// SortSearchResults orders by combined score descending, then job id.
func SortSearchResults(rs []SearchResult) {
	slices.SortFunc(rs, func(a, b SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Job.ID, b.Job.ID)
	})
}
