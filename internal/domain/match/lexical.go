package match

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/jobmatch/internal/domain/job"
)

// Lexical component weights. They sum below 1; the total is still capped.
const (
	lexicalTitleWeight       = 0.4
	lexicalCompanyWeight     = 0.2
	lexicalDescriptionWeight = 0.2
	lexicalTagWeight         = 0.1
)

// minConceptLen is the shortest term that counts as a matched concept.
const minConceptLen = 4

// LexicalRelevance scores case-insensitive containment of the query in the
// posting's title, company, description and tags.
func LexicalRelevance(p job.Posting, query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	var score float64
	if containsFold(p.Title, q) {
		score += lexicalTitleWeight
	}
	if containsFold(p.Company, q) {
		score += lexicalCompanyWeight
	}
	if containsFold(p.Description, q) {
		score += lexicalDescriptionWeight
	}
	for _, tag := range p.Tags() {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if strings.Contains(t, q) || strings.Contains(q, t) {
			score += lexicalTagWeight
			break
		}
	}
	return Clamp01(score)
}

// TitleContains reports whether the title literally contains the query.
func TitleContains(title, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return q != "" && containsFold(title, q)
}

// MatchedConcepts returns terms of at least four characters present in both
// query and text, in query order without duplicates.
func MatchedConcepts(query, text string) []string {
	textTerms := make(map[string]struct{})
	for _, t := range Terms(text) {
		textTerms[t] = struct{}{}
	}

	concepts := []string{}
	seen := make(map[string]struct{})
	for _, t := range Terms(query) {
		if len([]rune(t)) < minConceptLen {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		if _, ok := textTerms[t]; ok {
			seen[t] = struct{}{}
			concepts = append(concepts, t)
		}
	}
	return concepts
}

// Terms splits text into lower-cased letter/digit runs.
func Terms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsFold expects needle already lower-cased.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
