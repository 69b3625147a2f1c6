package chi

import (
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
)

// SearchFilter is the optional structural filter of a search request.
type SearchFilter struct {
	JobType         *string `json:"job_type,omitempty" validate:"omitempty,max=64"`
	ExperienceLevel *string `json:"experience_level,omitempty" validate:"omitempty,max=64"`
	SalaryMin       *int    `json:"salary_min,omitempty" validate:"omitempty,min=0"`
	SalaryMax       *int    `json:"salary_max,omitempty" validate:"omitempty,min=0"`
	Remote          *bool   `json:"remote,omitempty"`
	Location        string  `json:"location,omitempty" validate:"max=200"`
}

func (f SearchFilter) toDomain() job.Filter {
	return job.Filter{
		JobType:          f.JobType,
		ExperienceLevel:  f.ExperienceLevel,
		SalaryMin:        f.SalaryMin,
		SalaryMax:        f.SalaryMax,
		Remote:           f.Remote,
		LocationContains: f.Location,
	}
}

// SearchRequest is the POST search body.
type SearchRequest struct {
	Query     string       `json:"query" validate:"required,max=1000"`
	Filter    SearchFilter `json:"filter"`
	Limit     int          `json:"limit,omitempty" validate:"min=0"`
	Threshold *float64     `json:"threshold,omitempty" validate:"omitempty,min=0,max=1"`
}

// SearchQueryParams are the GET search query parameters.
type SearchQueryParams struct {
	Q               string
	Limit           *int
	Threshold       *float64
	JobType         *string
	ExperienceLevel *string
	SalaryMin       *int
	SalaryMax       *int
	Remote          *bool
	Location        *string
}

// InvalidateRequest is the cache invalidation body.
type InvalidateRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=job profile"`
	ID     string `json:"id" validate:"required,max=256"`
	Region string `json:"region,omitempty" validate:"max=64"`
}

// InvalidateResponse reports how many cache entries were dropped.
type InvalidateResponse struct {
	Invalidated int `json:"invalidated"`
}

// SearchResponse wraps ranked search results.
type SearchResponse struct {
	Items []match.SearchResult `json:"items"`
	Total int                  `json:"total"`
	Limit int                  `json:"limit"`
}

// RecommendationResponse wraps ranked recommendations.
type RecommendationResponse struct {
	Items []match.Recommendation `json:"items"`
	Total int                    `json:"total"`
	Limit int                    `json:"limit"`
}
