// Package profile holds the user profile read model used for personalization.
package profile

import (
	"slices"
	"strings"
)

// Profile is a user's stored preferences and engagement history.
type Profile struct {
	UserID           string   `json:"user_id"`
	DesiredTitle     string   `json:"desired_title,omitempty"`
	Bio              string   `json:"bio,omitempty"`
	Location         string   `json:"location,omitempty"`
	PreferredJobType string   `json:"preferred_job_type,omitempty"`
	ExperienceLevel  string   `json:"experience_level,omitempty"`
	DesiredSalary    *int     `json:"desired_salary,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	AppliedJobIDs    []string `json:"applied_job_ids,omitempty"`
	SavedJobIDs      []string `json:"saved_job_ids,omitempty"`
}

// EmbeddingText concatenates the profile fields the profile vector is built from.
func (p Profile) EmbeddingText() string {
	parts := []string{
		p.DesiredTitle,
		p.Bio,
		p.Location,
		p.PreferredJobType,
		p.ExperienceLevel,
		strings.Join(p.Skills, ", "),
		strings.Join(p.Interests, ", "),
	}
	out := parts[:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

// HasApplied reports whether the user already applied to the posting.
func (p Profile) HasApplied(jobID string) bool {
	return slices.Contains(p.AppliedJobIDs, jobID)
}
