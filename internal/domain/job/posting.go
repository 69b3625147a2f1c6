// Package job holds the job posting read model and candidate filters.
package job

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a posting.
type Status string

const (
	// StatusActive postings are visible to search and recommendations.
	StatusActive Status = "active"
	// StatusInactive postings are closed, expired or drafts.
	StatusInactive Status = "inactive"
)

// Posting is a job posting as read by the matching engine.
type Posting struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	Region          string    `json:"region"`
	Remote          bool      `json:"remote"`
	JobType         string    `json:"job_type,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	SalaryMin       *int      `json:"salary_min,omitempty"`
	SalaryMax       *int      `json:"salary_max,omitempty"`
	Categories      []string  `json:"categories,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsActive reports whether the posting may be shown.
func (p Posting) IsActive() bool {
	return p.Status == StatusActive
}

// Tags returns category and skill tags together.
func (p Posting) Tags() []string {
	tags := make([]string, 0, len(p.Categories)+len(p.Skills))
	tags = append(tags, p.Categories...)
	return append(tags, p.Skills...)
}

// EmbeddingText is the text a posting is embedded from.
func (p Posting) EmbeddingText() string {
	parts := []string{p.Title, p.Company, p.Description}
	if p.Location != "" {
		parts = append(parts, "Location: "+p.Location)
	}
	if p.ExperienceLevel != "" {
		parts = append(parts, "Experience: "+p.ExperienceLevel)
	}
	if len(p.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(p.Skills, ", "))
	}
	if len(p.Categories) > 0 {
		parts = append(parts, "Categories: "+strings.Join(p.Categories, ", "))
	}
	return joinNonEmpty(parts)
}

// SearchableText is the text matched concepts are drawn from.
func (p Posting) SearchableText() string {
	return joinNonEmpty([]string{p.Title, p.Company, p.Description, strings.Join(p.Tags(), " ")})
}

func joinNonEmpty(parts []string) string {
	out := parts[:0:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}
