package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

func intPtr(v int) *int { return &v }

func TestSkillsMatch(t *testing.T) {
	score, matched := SkillsMatch([]string{"python", "sql"}, []string{"python", "sql", "aws"})
	assert.InDelta(t, 2.0/3.0, score, 1e-9)
	assert.Equal(t, []string{"python", "sql"}, matched)

	score, matched = SkillsMatch([]string{"Python", " SQL ", "python"}, []string{"sql"})
	assert.InDelta(t, 0.5, score, 1e-9, "duplicates collapse before sizing")
	assert.Equal(t, []string{"sql"}, matched)

	score, _ = SkillsMatch(nil, []string{"go"})
	assert.Zero(t, score)
	score, _ = SkillsMatch([]string{"go"}, []string{})
	assert.Zero(t, score)
}

func TestExperienceMatch(t *testing.T) {
	tests := []struct {
		profile, job string
		want         float64
	}{
		{"mid", "senior", 0.8},
		{"senior", "mid", 0.8},
		{"senior", "senior", 1},
		{"entry", "principal", 0},
		{"junior", "lead", 0.4},
		{"Mid-Level", "Senior Level", 0.8},
		{"intermediate", "staff", 0.6},
		{"wizard", "senior", Neutral},
		{"", "senior", Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.profile+"_vs_"+tt.job, func(t *testing.T) {
			assert.InDelta(t, tt.want, ExperienceMatch(tt.profile, tt.job), 1e-9)
		})
	}
}

func TestLocationMatch(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		posting job.Posting
		want    float64
	}{
		{"exact", "Modesto, CA", job.Posting{Location: "modesto, ca"}, 1},
		{"job inside profile", "Modesto, CA", job.Posting{Location: "Modesto"}, 0.8},
		{"profile inside job", "Stockton", job.Posting{Location: "Stockton, CA"}, 0.8},
		{"remote elsewhere", "Fresno", job.Posting{Location: "Austin, TX", Remote: true}, 0.9},
		{"mismatch", "Fresno", job.Posting{Location: "Austin, TX"}, 0.3},
		{"profile missing", "", job.Posting{Location: "Austin, TX"}, Neutral},
		{"job missing", "Fresno", job.Posting{}, Neutral},
		// Remoteness outranks the missing-location neutral score.
		{"missing but remote", "", job.Posting{Remote: true}, 0.9},
		{"profile missing, remote with location", "", job.Posting{Location: "Austin, TX", Remote: true}, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LocationMatch(tt.profile, tt.posting), 1e-9)
		})
	}
}

func TestSalaryMatch(t *testing.T) {
	tests := []struct {
		name     string
		desired  *int
		min, max *int
		want     float64
	}{
		{"no desired salary", nil, intPtr(50000), nil, Neutral},
		{"no range", intPtr(60000), nil, nil, Neutral},
		{"inside", intPtr(60000), intPtr(50000), intPtr(70000), 1},
		{"on bound", intPtr(50000), intPtr(50000), intPtr(70000), 1},
		{"below min", intPtr(40000), intPtr(50000), intPtr(70000), 0.8},
		{"above max", intPtr(84000), intPtr(50000), intPtr(70000), 0.8},
		{"far above max", intPtr(200000), intPtr(50000), intPtr(70000), 0},
		{"only min satisfied", intPtr(90000), intPtr(50000), nil, 1},
		{"only max violated", intPtr(90000), nil, intPtr(60000), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SalaryMatch(tt.desired, tt.min, tt.max), 1e-9)
		})
	}
}

func TestComputeSignals(t *testing.T) {
	p := profile.Profile{
		Location:        "Modesto, CA",
		ExperienceLevel: "mid",
		Skills:          []string{"python", "sql"},
	}
	j := job.Posting{
		Location:        "Modesto, CA",
		ExperienceLevel: "senior",
		Skills:          []string{"python", "sql", "aws"},
		SalaryMin:       intPtr(50000),
	}

	s, matched := ComputeSignals(p, j, -0.2)

	assert.Zero(t, s.Semantic, "negative similarity is no match")
	assert.InDelta(t, 2.0/3.0, s.Skills, 1e-9)
	assert.InDelta(t, 0.8, s.Experience, 1e-9)
	assert.InDelta(t, 1.0, s.Location, 1e-9)
	assert.InDelta(t, Neutral, s.Salary, 1e-9)
	assert.Equal(t, []string{"python", "sql"}, matched)
}

func TestSignals_Dominant(t *testing.T) {
	assert.Equal(t, MatchSkills, Signals{Semantic: 0.5, Skills: 0.9, Location: 0.3}.Dominant())
	assert.Equal(t, MatchSemantic, Signals{Semantic: 0.7, Skills: 0.7, Salary: 0.7}.Dominant())
	assert.Equal(t, MatchExperience, Signals{Experience: 0.8, Location: 0.8, Salary: 0.8}.Dominant())
	assert.Equal(t, MatchSalary, Signals{Salary: 0.1}.Dominant())
	assert.Equal(t, MatchSemantic, Signals{}.Dominant())
}

func TestRecommendationWeights_Blend(t *testing.T) {
	w := DefaultRecommendationWeights()
	require.NoError(t, w.Validate())

	s := Signals{Semantic: 0.9, Skills: 2.0 / 3.0, Experience: 0.8, Location: 1, Salary: 0.5}
	want := 0.40*0.9 + 0.25*(2.0/3.0) + 0.15*0.8 + 0.10*1 + 0.10*0.5

	assert.InDelta(t, want, w.Blend(s), 1e-12)
	assert.Equal(t, w.Blend(s), w.Blend(s), "deterministic")
	assert.InDelta(t, 1.0, w.Blend(Signals{1, 1, 1, 1, 1}), 1e-12)
}

func TestWeights_Validate(t *testing.T) {
	require.NoError(t, DefaultSearchWeights().Validate())
	assert.Error(t, SearchWeights{Semantic: 0.9, Lexical: 0.3}.Validate())
	assert.Error(t, RecommendationWeights{Semantic: 1.2, Skills: -0.2}.Validate())
	assert.InDelta(t, 0.7*0.9+0.3*0.4, DefaultSearchWeights().Combine(0.9, 0.4), 1e-12)
}

func TestReasons(t *testing.T) {
	p := profile.Profile{ExperienceLevel: "senior"}
	j := job.Posting{Location: "Modesto, CA", ExperienceLevel: "Senior", Remote: true}
	bars := DefaultReasonBars()

	t.Run("ordered by signal strength", func(t *testing.T) {
		s := Signals{Semantic: 0.85, Skills: 0.75, Experience: 1, Location: 1, Salary: 0.5}
		got := Reasons(s, bars, p, j, []string{"python", "sql", "aws", "docker"})

		assert.Equal(t, []string{
			"Aligned with your senior experience level",
			"Located in Modesto, CA",
			"Strong overall fit with your profile and interests",
			"Matches 4 of your skills: python, sql, aws",
		}, got)
	})

	t.Run("remote location", func(t *testing.T) {
		got := Reasons(Signals{Location: 0.9}, bars, p, j, nil)
		assert.Equal(t, []string{"Remote position"}, got)
	})

	t.Run("bars are exclusive", func(t *testing.T) {
		s := Signals{Semantic: 0.8, Skills: 0.6, Experience: 0.8, Location: 0.8, Salary: 0.8}
		got := Reasons(s, bars, p, j, nil)
		assert.Equal(t, []string{FallbackReason}, got)
	})

	t.Run("never empty", func(t *testing.T) {
		assert.NotEmpty(t, Reasons(Signals{}, bars, profile.Profile{}, job.Posting{}, nil))
	})
}

func TestSortRecommendations(t *testing.T) {
	rs := []Recommendation{
		{Job: job.Posting{ID: "x"}, Score: 0.7},
		{Job: job.Posting{ID: "y"}, Score: 0.95},
		{Job: job.Posting{ID: "w"}, Score: 0.7},
	}
	SortRecommendations(rs)

	assert.Equal(t, []string{"y", "w", "x"}, []string{rs[0].Job.ID, rs[1].Job.ID, rs[2].Job.ID})
}
