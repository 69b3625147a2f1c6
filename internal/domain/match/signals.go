package match

import (
	"strings"

	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

// Neutral is the score given when one side of a comparison has no data.
const Neutral = 0.5

const (
	locationExact     = 1.0
	locationRemote    = 0.9
	locationSubstring = 0.8
	locationMismatch  = 0.3

	experienceStep = 0.2
)

// experienceLadder orders seniority from most junior to most senior.
var experienceLadder = []string{"entry", "junior", "mid", "senior", "lead", "principal"}

var experienceAliases = map[string]string{
	"intermediate": "mid",
	"middle":       "mid",
	"staff":        "lead",
}

// SkillsMatch returns |A ∩ B| / max(|A|, |B|) over lower-cased skill sets and
// the shared skills in profile order. Either set empty scores 0.
func SkillsMatch(profileSkills, jobSkills []string) (float64, []string) {
	a := skillSet(profileSkills)
	b := skillSet(jobSkills)
	if len(a.order) == 0 || len(b.order) == 0 {
		return 0, nil
	}

	var matched []string
	for _, s := range a.order {
		if _, ok := b.set[s]; ok {
			matched = append(matched, s)
		}
	}

	larger := max(len(a.order), len(b.order))
	return float64(len(matched)) / float64(larger), matched
}

type skills struct {
	order []string
	set   map[string]struct{}
}

func skillSet(in []string) skills {
	s := skills{set: make(map[string]struct{}, len(in))}
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := s.set[v]; dup {
			continue
		}
		s.set[v] = struct{}{}
		s.order = append(s.order, v)
	}
	return s
}

// ExperienceRank returns the ladder position of a level name.
func ExperienceRank(level string) (int, bool) {
	l := NormalizeExperience(level)
	for i, v := range experienceLadder {
		if v == l {
			return i, true
		}
	}
	return 0, false
}

// NormalizeExperience maps free-form level names ("Mid-Level", "Entry level",
// "staff") onto ladder names. Unknown levels are returned lower-cased.
func NormalizeExperience(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	for _, suffix := range []string{"-level", "_level", " level"} {
		l = strings.TrimSuffix(l, suffix)
	}
	if alias, ok := experienceAliases[l]; ok {
		return alias
	}
	return l
}

// ExperienceMatch scores max(0, 1 - 0.2*distance) on the seniority ladder.
// An unrecognized level on either side scores Neutral.
func ExperienceMatch(profileLevel, jobLevel string) float64 {
	a, okA := ExperienceRank(profileLevel)
	b, okB := ExperienceRank(jobLevel)
	if !okA || !okB {
		return Neutral
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return max(0, 1-experienceStep*float64(d))
}

// LocationMatch compares the user's location with a posting's.
// Exact match 1.0, containment either way 0.8, remote posting 0.9, else 0.3.
// A missing location scores Neutral unless the posting is remote.
func LocationMatch(profileLocation string, p job.Posting) float64 {
	u := strings.ToLower(strings.TrimSpace(profileLocation))
	j := strings.ToLower(strings.TrimSpace(p.Location))

	if u == "" || j == "" {
		if p.Remote {
			return locationRemote
		}
		return Neutral
	}
	switch {
	case u == j:
		return locationExact
	case strings.Contains(u, j) || strings.Contains(j, u):
		return locationSubstring
	case p.Remote:
		return locationRemote
	default:
		return locationMismatch
	}
}

// SalaryMatch scores the desired salary against the posting range: 1.0 inside
// [min, max], falling off linearly with the gap relative to the violated bound.
// Missing data on either side scores Neutral.
func SalaryMatch(desired *int, minSalary, maxSalary *int) float64 {
	if desired == nil || (minSalary == nil && maxSalary == nil) {
		return Neutral
	}
	d := float64(*desired)

	if minSalary != nil && d < float64(*minSalary) {
		lo := float64(*minSalary)
		return Clamp01(1 - (lo-d)/lo)
	}
	if maxSalary != nil && d > float64(*maxSalary) {
		hi := float64(*maxSalary)
		if hi <= 0 {
			return 0
		}
		return Clamp01(1 - (d-hi)/hi)
	}
	return 1
}

// ComputeSignals scores one candidate against a profile. semantic is the raw
// cosine similarity; negative similarity counts as no match.
func ComputeSignals(p profile.Profile, j job.Posting, semantic float64) (Signals, []string) {
	skillScore, matched := SkillsMatch(p.Skills, j.Skills)
	return Signals{
		Semantic:   Clamp01(semantic),
		Skills:     skillScore,
		Experience: ExperienceMatch(p.ExperienceLevel, j.ExperienceLevel),
		Location:   LocationMatch(p.Location, j),
		Salary:     SalaryMatch(p.DesiredSalary, j.SalaryMin, j.SalaryMax),
	}, matched
}
