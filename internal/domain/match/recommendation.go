package match

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

// MatchType names the signal that contributed most to a recommendation.
type MatchType string

// Match types in tie-break precedence order.
const (
	MatchSemantic   MatchType = "semantic"
	MatchSkills     MatchType = "skills"
	MatchExperience MatchType = "experience"
	MatchLocation   MatchType = "location"
	MatchSalary     MatchType = "salary"
)

// FallbackReason is used when no signal clears its bar.
const FallbackReason = "Recommended based on your overall profile"

const maxReasonSkills = 3

// Signals are the five independent recommendation scores, each in [0, 1].
type Signals struct {
	Semantic   float64 `json:"semantic"`
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Location   float64 `json:"location"`
	Salary     float64 `json:"salary"`
}

type signalValue struct {
	kind  MatchType
	value float64
}

// ordered lists signals in precedence order.
func (s Signals) ordered() []signalValue {
	return []signalValue{
		{MatchSemantic, s.Semantic},
		{MatchSkills, s.Skills},
		{MatchExperience, s.Experience},
		{MatchLocation, s.Location},
		{MatchSalary, s.Salary},
	}
}

// Dominant returns the highest signal; ties go to the earlier signal in
// semantic, skills, experience, location, salary order.
func (s Signals) Dominant() MatchType {
	best := signalValue{kind: MatchSemantic, value: s.Semantic}
	for _, sv := range s.ordered()[1:] {
		if sv.value > best.value {
			best = sv
		}
	}
	return best.kind
}

// Recommendation is one personalized result.
type Recommendation struct {
	Job           job.Posting `json:"job"`
	Score         float64     `json:"score"`
	Signals       Signals     `json:"signals"`
	Reasons       []string    `json:"reasons"`
	MatchType     MatchType   `json:"match_type"`
	MatchedSkills []string    `json:"matched_skills,omitempty"`
}

// Reasons returns one sentence per signal above its bar, strongest first.
// The list is never empty.
func Reasons(s Signals, bars ReasonBars, p profile.Profile, j job.Posting, matchedSkills []string) []string {
	qualifying := make([]signalValue, 0, 5)
	for _, sv := range s.ordered() {
		if sv.value > bars.bar(sv.kind) {
			qualifying = append(qualifying, sv)
		}
	}
	// Stable sort keeps precedence order between equal values.
	slices.SortStableFunc(qualifying, func(a, b signalValue) int {
		return cmp.Compare(b.value, a.value)
	})

	reasons := make([]string, 0, len(qualifying)+1)
	for _, sv := range qualifying {
		reasons = append(reasons, reasonText(sv, p, j, matchedSkills))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, FallbackReason)
	}
	return reasons
}

func reasonText(sv signalValue, p profile.Profile, j job.Posting, matchedSkills []string) string {
	switch sv.kind {
	case MatchSemantic:
		return "Strong overall fit with your profile and interests"
	case MatchSkills:
		shown := matchedSkills
		if len(shown) > maxReasonSkills {
			shown = shown[:maxReasonSkills]
		}
		if len(shown) == 0 {
			return "Matches your skills"
		}
		return fmt.Sprintf("Matches %d of your skills: %s", len(matchedSkills), strings.Join(shown, ", "))
	case MatchExperience:
		level := NormalizeExperience(j.ExperienceLevel)
		if level == "" {
			level = NormalizeExperience(p.ExperienceLevel)
		}
		return fmt.Sprintf("Aligned with your %s experience level", level)
	case MatchLocation:
		if sv.value < locationExact && j.Remote {
			return "Remote position"
		}
		return "Located in " + j.Location
	default:
		return "Salary range fits your expectations"
	}
}

// SortRecommendations orders by score descending, then job id.
func SortRecommendations(rs []Recommendation) {
	slices.SortFunc(rs, func(a, b Recommendation) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Job.ID, b.Job.ID)
	})
}
