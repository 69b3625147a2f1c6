// Package request holds validated engine requests with defaults applied.
package request

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
)

// MaxQueryLength is the maximum allowed search query length in characters.
const MaxQueryLength = 1000

// SearchLimits are the configurable search defaults.
type SearchLimits struct {
	DefaultLimit     int
	MaxLimit         int
	DefaultThreshold float64
}

// DefaultSearchLimits returns limit 20 (max 100) and threshold 0.7.
func DefaultSearchLimits() SearchLimits {
	return SearchLimits{DefaultLimit: 20, MaxLimit: 100, DefaultThreshold: 0.7}
}

// RecommendationLimits are the configurable recommendation defaults.
type RecommendationLimits struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultRecommendationLimits returns limit 10 (max 50).
func DefaultRecommendationLimits() RecommendationLimits {
	return RecommendationLimits{DefaultLimit: 10, MaxLimit: 50}
}

// Search is a validated semantic search request.
type Search struct {
	query     string
	region    string
	filter    job.Filter
	limit     int
	threshold float64
}

// NewSearch validates and normalizes search parameters.
// limit <= 0 takes the default, larger than max is clamped.
// A nil threshold takes the default; an explicit 0 disables the similarity bar.
func NewSearch(query, region string, f job.Filter, limit int, threshold *float64, lim SearchLimits) (Search, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Search{}, invalid("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Search{}, invalid("query too long (max %d chars)", MaxQueryLength)
	}
	region = strings.TrimSpace(region)
	if region == "" {
		return Search{}, invalid("region is required")
	}
	if err := f.Validate(); err != nil {
		return Search{}, invalid("filter: %v", err)
	}

	th := lim.DefaultThreshold
	if threshold != nil {
		th = *threshold
	}
	if math.IsNaN(th) || th < 0 || th > 1 {
		return Search{}, invalid("threshold must be between 0 and 1")
	}

	// Region is a request dimension, not a caller-supplied filter field.
	f.Region = region

	return Search{
		query:     query,
		region:    region,
		filter:    f,
		limit:     clampLimit(limit, lim.DefaultLimit, lim.MaxLimit),
		threshold: th,
	}, nil
}

// Query returns the trimmed search text.
func (r Search) Query() string { return r.query }

// Region returns the region the search is scoped to.
func (r Search) Region() string { return r.region }

// Filter returns the structural candidate filter, region included.
func (r Search) Filter() job.Filter { return r.filter }

// Limit returns the maximum number of results.
func (r Search) Limit() int { return r.limit }

// Threshold returns the minimum cosine similarity a result must reach.
func (r Search) Threshold() float64 { return r.threshold }

// Recommendation is a validated personalized recommendation request.
type Recommendation struct {
	userID string
	region string
	limit  int
}

// NewRecommendation validates recommendation parameters.
func NewRecommendation(userID, region string, limit int, lim RecommendationLimits) (Recommendation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Recommendation{}, invalid("user id is required")
	}
	region = strings.TrimSpace(region)
	if region == "" {
		return Recommendation{}, invalid("region is required")
	}
	return Recommendation{
		userID: userID,
		region: region,
		limit:  clampLimit(limit, lim.DefaultLimit, lim.MaxLimit),
	}, nil
}

// UserID returns the user recommendations are computed for.
func (r Recommendation) UserID() string { return r.userID }

// Region returns the region candidates are drawn from.
func (r Recommendation) Region() string { return r.region }

// Limit returns the maximum number of recommendations.
func (r Recommendation) Limit() int { return r.limit }

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		limit = def
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, fmt.Sprintf(format, args...))
}
