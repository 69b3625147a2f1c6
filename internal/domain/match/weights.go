package match

import (
	"fmt"
	"math"
)

// SearchWeights blends semantic similarity with lexical relevance.
type SearchWeights struct {
	Semantic float64
	Lexical  float64
}

// DefaultSearchWeights returns the stock 0.7/0.3 search blend.
func DefaultSearchWeights() SearchWeights {
	return SearchWeights{Semantic: 0.7, Lexical: 0.3}
}

// Combine returns the clamped weighted sum of both search signals.
func (w SearchWeights) Combine(semantic, lexical float64) float64 {
	return Clamp01(w.Semantic*semantic + w.Lexical*lexical)
}

// Validate checks that weights are non-negative and sum to 1.
func (w SearchWeights) Validate() error {
	return validateWeights(w.Semantic, w.Lexical)
}

// RecommendationWeights blends the five recommendation signals.
type RecommendationWeights struct {
	Semantic   float64
	Skills     float64
	Experience float64
	Location   float64
	Salary     float64
}

// DefaultRecommendationWeights returns the stock 0.40/0.25/0.15/0.10/0.10 blend.
func DefaultRecommendationWeights() RecommendationWeights {
	return RecommendationWeights{
		Semantic:   0.40,
		Skills:     0.25,
		Experience: 0.15,
		Location:   0.10,
		Salary:     0.10,
	}
}

// Blend returns the clamped weighted sum of the signals.
func (w RecommendationWeights) Blend(s Signals) float64 {
	return Clamp01(w.Semantic*s.Semantic +
		w.Skills*s.Skills +
		w.Experience*s.Experience +
		w.Location*s.Location +
		w.Salary*s.Salary)
}

// Validate checks that weights are non-negative and sum to 1.
func (w RecommendationWeights) Validate() error {
	return validateWeights(w.Semantic, w.Skills, w.Experience, w.Location, w.Salary)
}

// ReasonBars are the values each signal must exceed to earn a reason.
type ReasonBars struct {
	Semantic   float64
	Skills     float64
	Experience float64
	Location   float64
	Salary     float64
}

// DefaultReasonBars returns the stock per-signal reason thresholds.
func DefaultReasonBars() ReasonBars {
	return ReasonBars{Semantic: 0.8, Skills: 0.6, Experience: 0.8, Location: 0.8, Salary: 0.8}
}

func (b ReasonBars) bar(t MatchType) float64 {
	switch t {
	case MatchSemantic:
		return b.Semantic
	case MatchSkills:
		return b.Skills
	case MatchExperience:
		return b.Experience
	case MatchLocation:
		return b.Location
	default:
		return b.Salary
	}
}

func validateWeights(ws ...float64) error {
	var sum float64
	for _, w := range ws {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("weights must be non-negative, got %g", w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %g", sum)
	}
	return nil
}
