package job

import (
	"fmt"
	"slices"
	"strings"
)

// Filter narrows the candidate pool before any scoring. Every dimension is
// optional: a zero value or nil pointer means "no filter" on that dimension.
// Active status is always enforced by the store and is not configurable.
type Filter struct {
	// Region restricts to postings in one region (case-insensitive).
	Region string `json:"region,omitempty"`
	// JobType restricts to one job type, e.g. "full-time".
	JobType *string `json:"job_type,omitempty"`
	// ExperienceLevel restricts to one experience level.
	ExperienceLevel *string `json:"experience_level,omitempty"`
	// SalaryMin keeps postings whose salary_min is at least this value.
	SalaryMin *int `json:"salary_min,omitempty"`
	// SalaryMax keeps postings whose salary_max is at most this value.
	SalaryMax *int `json:"salary_max,omitempty"`
	// Remote restricts to remote (true) or on-site (false) postings.
	Remote *bool `json:"remote,omitempty"`
	// LocationContains is a case-insensitive substring match on location.
	LocationContains string `json:"location,omitempty"`
	// ExcludeIDs removes specific postings, e.g. ones the user applied to.
	ExcludeIDs []string `json:"exclude_ids,omitempty"`
	// Limit caps the candidate pool. 0 means the store default.
	Limit int `json:"limit,omitempty"`
}

// Validate checks filter consistency.
func (f Filter) Validate() error {
	if f.SalaryMin != nil && *f.SalaryMin < 0 {
		return fmt.Errorf("salary_min must be non-negative")
	}
	if f.SalaryMax != nil && *f.SalaryMax < 0 {
		return fmt.Errorf("salary_max must be non-negative")
	}
	if f.SalaryMin != nil && f.SalaryMax != nil && *f.SalaryMin > *f.SalaryMax {
		return fmt.Errorf("salary_min (%d) exceeds salary_max (%d)", *f.SalaryMin, *f.SalaryMax)
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	return nil
}

// Normalize returns a canonical copy: trimmed lower-case strings, empty
// pointers collapsed to nil and exclusions sorted. Two filters selecting the
// same candidates normalize to equal values.
func (f Filter) Normalize() Filter {
	out := Filter{
		Region:           norm(f.Region),
		JobType:          normPtr(f.JobType),
		ExperienceLevel:  normPtr(f.ExperienceLevel),
		SalaryMin:        f.SalaryMin,
		SalaryMax:        f.SalaryMax,
		Remote:           f.Remote,
		LocationContains: norm(f.LocationContains),
		Limit:            f.Limit,
	}
	if len(f.ExcludeIDs) > 0 {
		out.ExcludeIDs = slices.Clone(f.ExcludeIDs)
		slices.Sort(out.ExcludeIDs)
		out.ExcludeIDs = slices.Compact(out.ExcludeIDs)
	}
	return out
}

// Excludes reports whether id is in the exclusion list.
func (f Filter) Excludes(id string) bool {
	return slices.Contains(f.ExcludeIDs, id)
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := norm(*s)
	if v == "" {
		return nil
	}
	return &v
}
