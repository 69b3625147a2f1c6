package request

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
)

func threshold(v float64) *float64 { return &v }

func TestNewSearch_Defaults(t *testing.T) {
	r, err := NewSearch("  software engineer ", "209", job.Filter{}, 0, nil, DefaultSearchLimits())
	require.NoError(t, err)

	assert.Equal(t, "software engineer", r.Query())
	assert.Equal(t, "209", r.Region())
	assert.Equal(t, "209", r.Filter().Region)
	assert.Equal(t, 20, r.Limit())
	assert.Equal(t, 0.7, r.Threshold())
}

func TestNewSearch_ExplicitZeroThreshold(t *testing.T) {
	r, err := NewSearch("nurse", "209", job.Filter{}, 5, threshold(0), DefaultSearchLimits())
	require.NoError(t, err)

	assert.Zero(t, r.Threshold())
	assert.Equal(t, 5, r.Limit())
}

func TestNewSearch_ClampsLimit(t *testing.T) {
	r, err := NewSearch("nurse", "209", job.Filter{}, 1000, nil, DefaultSearchLimits())
	require.NoError(t, err)
	assert.Equal(t, 100, r.Limit())
}

func TestNewSearch_Invalid(t *testing.T) {
	lim := DefaultSearchLimits()
	badSalary := job.Filter{SalaryMin: new(int), SalaryMax: new(int)}
	*badSalary.SalaryMin = 10

	tests := []struct {
		name    string
		query   string
		region  string
		filter  job.Filter
		th      *float64
		wantMsg string
	}{
		{"empty query", "  ", "209", job.Filter{}, nil, "query is required"},
		{"long query", strings.Repeat("a", MaxQueryLength+1), "209", job.Filter{}, nil, "query too long"},
		{"missing region", "nurse", "", job.Filter{}, nil, "region is required"},
		{"threshold above one", "nurse", "209", job.Filter{}, threshold(1.2), "threshold must be between 0 and 1"},
		{"negative threshold", "nurse", "209", job.Filter{}, threshold(-0.1), "threshold must be between 0 and 1"},
		{"NaN threshold", "nurse", "209", job.Filter{}, threshold(math.NaN()), "threshold must be between 0 and 1"},
		{"infinite threshold", "nurse", "209", job.Filter{}, threshold(math.Inf(1)), "threshold must be between 0 and 1"},
		{"negative infinite threshold", "nurse", "209", job.Filter{}, threshold(math.Inf(-1)), "threshold must be between 0 and 1"},
		{"bad filter", "nurse", "209", badSalary, nil, "salary_min (10) exceeds salary_max (0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearch(tt.query, tt.region, tt.filter, 0, tt.th, lim)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNewRecommendation(t *testing.T) {
	r, err := NewRecommendation(" user-1 ", "209", 0, DefaultRecommendationLimits())
	require.NoError(t, err)
	assert.Equal(t, "user-1", r.UserID())
	assert.Equal(t, 10, r.Limit())

	r, err = NewRecommendation("user-1", "209", 500, DefaultRecommendationLimits())
	require.NoError(t, err)
	assert.Equal(t, 50, r.Limit())

	_, err = NewRecommendation("", "209", 0, DefaultRecommendationLimits())
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	_, err = NewRecommendation("user-1", " ", 0, DefaultRecommendationLimits())
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
