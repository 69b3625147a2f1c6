package recommend

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
	"github.com/kailas-cloud/jobmatch/internal/fanout"
)

// --- Fakes ---

type fakeStore struct {
	profile    *profile.Profile
	profileErr error
	postings   []job.Posting
	findErr    error
	filters    []job.Filter
}

func (f *fakeStore) FindUserProfile(_ context.Context, _ string) (*profile.Profile, error) {
	return f.profile, f.profileErr
}

// Find ignores ExcludeIDs so the engine's own exclusion is exercised.
func (f *fakeStore) Find(_ context.Context, flt job.Filter) ([]job.Posting, error) {
	f.filters = append(f.filters, flt)
	return f.postings, f.findErr
}

type fakeResolver struct {
	mu      sync.Mutex
	vectors map[string][]float32
	fail    bool
}

func (f *fakeResolver) Resolve(_ context.Context, ref domain.EmbeddingRef, _ string) domain.Embedding {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.Unavailable(3)
	}
	if v, ok := f.vectors[ref.ID]; ok {
		return domain.Embedded(v)
	}
	return domain.Unavailable(3)
}

type fakeCache struct {
	entries map[string][]match.Recommendation
	stores  int
}

func (c *fakeCache) RecommendationKey(req request.Recommendation) string {
	return req.Region() + "|" + req.UserID()
}

func (c *fakeCache) LoadRecommendations(_ context.Context, key string) ([]match.Recommendation, bool) {
	r, ok := c.entries[key]
	return r, ok
}

func (c *fakeCache) StoreRecommendations(_ context.Context, key, _, _ string, recs []match.Recommendation) {
	if c.entries == nil {
		c.entries = map[string][]match.Recommendation{}
	}
	c.stores++
	c.entries[key] = recs
}

// --- Fixtures ---

func vecAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim)), 0}
}

func intPtr(v int) *int { return &v }

func testProfile() *profile.Profile {
	return &profile.Profile{
		UserID:          "u1",
		DesiredTitle:    "Backend Engineer",
		Location:        "Austin, TX",
		ExperienceLevel: "senior",
		DesiredSalary:   intPtr(150000),
		Skills:          []string{"Go", "Postgres"},
		AppliedJobIDs:   []string{"j3"},
	}
}

func testPostings() []job.Posting {
	return []job.Posting{
		{
			ID: "j1", Title: "Senior Go Engineer", Location: "Austin, TX", Region: "tx",
			ExperienceLevel: "senior", Skills: []string{"go", "postgres"},
			SalaryMin: intPtr(140000), SalaryMax: intPtr(170000), Status: job.StatusActive,
		},
		{
			ID: "j2", Title: "Pastry Chef", Location: "Paris", Region: "tx",
			ExperienceLevel: "entry", Skills: []string{"baking"}, Status: job.StatusActive,
		},
		{
			ID: "j3", Title: "Staff Go Engineer", Location: "Austin, TX", Region: "tx",
			ExperienceLevel: "senior", Skills: []string{"go", "postgres"}, Status: job.StatusActive,
		},
		{
			ID: "j4", Title: "Backend Developer", Location: "Austin", Region: "tx",
			ExperienceLevel: "mid", Skills: []string{"go", "kubernetes"}, Status: job.StatusActive,
		},
		{
			ID: "j5", Title: "Go Engineer", Location: "Austin, TX", Region: "tx",
			ExperienceLevel: "senior", Skills: []string{"go", "postgres"}, Status: job.StatusInactive,
		},
	}
}

func testVectors() map[string][]float32 {
	return map[string][]float32{
		"u1": {1, 0, 0},
		"j1": vecAt(0.95),
		"j2": vecAt(0.1),
		"j3": vecAt(0.99),
		"j4": vecAt(0.75),
		"j5": vecAt(0.99),
	}
}

func newService(t *testing.T, store *fakeStore, res *fakeResolver, cache *fakeCache) *Service {
	t.Helper()
	pool, err := fanout.New(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return New(store, res, cache, pool, DefaultOptions(), zap.NewNop())
}

func recReq(t *testing.T, limit int) request.Recommendation {
	t.Helper()
	req, err := request.NewRecommendation("u1", "tx", limit, request.DefaultRecommendationLimits())
	require.NoError(t, err)
	return req
}

// --- Tests ---

func TestGetJobRecommendations_RanksAndExplains(t *testing.T) {
	store := &fakeStore{profile: testProfile(), postings: testPostings()}
	cache := &fakeCache{}
	svc := newService(t, store, &fakeResolver{vectors: testVectors()}, cache)

	recs, err := svc.GetJobRecommendations(context.Background(), recReq(t, 0))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	top := recs[0]
	assert.Equal(t, "j1", top.Job.ID)
	assert.InDelta(t, 0.4*0.95+0.25+0.15+0.10+0.10, top.Score, 1e-6)
	assert.Equal(t, match.MatchSkills, top.MatchType)
	assert.Equal(t, []string{"go", "postgres"}, top.MatchedSkills)
	assert.Equal(t, []string{
		"Matches 2 of your skills: go, postgres",
		"Aligned with your senior experience level",
		"Located in Austin, TX",
		"Salary range fits your expectations",
		"Strong overall fit with your profile and interests",
	}, top.Reasons)

	second := recs[1]
	assert.Equal(t, "j4", second.Job.ID)
	assert.InDelta(t, 0.4*0.75+0.25*0.5+0.15*0.8+0.10*0.8+0.10*0.5, second.Score, 1e-6)
	assert.Equal(t, match.MatchExperience, second.MatchType)
	assert.Equal(t, []string{match.FallbackReason}, second.Reasons)

	assert.Equal(t, 1, cache.stores)
}

func TestGetJobRecommendations_Invariants(t *testing.T) {
	store := &fakeStore{profile: testProfile(), postings: testPostings()}
	svc := newService(t, store, &fakeResolver{vectors: testVectors()}, &fakeCache{})

	recs, err := svc.GetJobRecommendations(context.Background(), recReq(t, 0))
	require.NoError(t, err)

	for _, r := range recs {
		assert.NotEqual(t, "j3", r.Job.ID, "applied job returned")
		assert.True(t, r.Job.IsActive())
		assert.Greater(t, r.Score, 0.6)
		assert.NotEmpty(t, r.Reasons)
	}
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}
}

func TestGetJobRecommendations_QueriesRegionPoolExcludingApplications(t *testing.T) {
	store := &fakeStore{profile: testProfile()}
	svc := newService(t, store, &fakeResolver{vectors: testVectors()}, &fakeCache{})

	recs, err := svc.GetJobRecommendations(context.Background(), recReq(t, 0))
	require.NoError(t, err)
	assert.Empty(t, recs)

	require.Len(t, store.filters, 1)
	assert.Equal(t, "tx", store.filters[0].Region)
	assert.Equal(t, []string{"j3"}, store.filters[0].ExcludeIDs)
	assert.Equal(t, 100, store.filters[0].Limit)
}

func TestGetJobRecommendations_Limit(t *testing.T) {
	var postings []job.Posting
	vectors := map[string][]float32{"u1": {1, 0, 0}}
	for i := range 15 {
		id := fmt.Sprintf("j%02d", i+10)
		postings = append(postings, job.Posting{
			ID: id, Title: "Go Engineer", Location: "Austin, TX", ExperienceLevel: "senior",
			Skills: []string{"go", "postgres"}, Status: job.StatusActive,
		})
		vectors[id] = vecAt(0.9)
	}
	store := &fakeStore{profile: testProfile(), postings: postings}
	svc := newService(t, store, &fakeResolver{vectors: vectors}, &fakeCache{})

	recs, err := svc.GetJobRecommendations(context.Background(), recReq(t, 0))
	require.NoError(t, err)
	require.Len(t, recs, 10)
	assert.Equal(t, "j10", recs[0].Job.ID)
	assert.Equal(t, "j19", recs[9].Job.ID)
}

func TestGetJobRecommendations_MissingProfile(t *testing.T) {
	store := &fakeStore{postings: testPostings()}
	cache := &fakeCache{}
	svc := newService(t, store, &fakeResolver{vectors: testVectors()}, cache)

	recs, err := svc.GetJobRecommendations(context.Background(), recReq(t, 0))
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
	assert.Empty(t, store.filters)
	assert.Zero(t, cache.stores)
}

func TestGetJobRecommendations_ProviderDownIsNotCached(t *testing.T) {
	store := &fakeStore{profile: testProfile(), postings: testPostings()}
	cache := &fakeCache{}
	svc := newService(t, store, &fakeResolver{fail: true}, cache)

	recs, err := svc.GetJobRecommendations(context.Background(), recReq(t, 0))
	require.NoError(t, err)
	// j1 without semantics blends to exactly 0.6, which is not above the bar.
	assert.Empty(t, recs)
	assert.Zero(t, cache.stores)
}

func TestGetJobRecommendations_CacheHit(t *testing.T) {
	cached := []match.Recommendation{{Job: job.Posting{ID: "cached"}, Score: 0.9}}
	cache := &fakeCache{entries: map[string][]match.Recommendation{"tx|u1": cached}}
	store := &fakeStore{profileErr: domain.ErrCandidateStoreUnavailable}
	svc := newService(t, store, &fakeResolver{}, cache)

	recs, err := svc.GetJobRecommendations(context.Background(), recReq(t, 0))
	require.NoError(t, err)
	assert.Equal(t, cached, recs)
}

func TestGetJobRecommendations_StoreErrors(t *testing.T) {
	t.Run("profile", func(t *testing.T) {
		store := &fakeStore{profileErr: fmt.Errorf("conn: %w", domain.ErrCandidateStoreUnavailable)}
		svc := newService(t, store, &fakeResolver{}, &fakeCache{})

		_, err := svc.GetJobRecommendations(context.Background(), recReq(t, 0))
		assert.ErrorIs(t, err, domain.ErrCandidateStoreUnavailable)
	})

	t.Run("candidates", func(t *testing.T) {
		store := &fakeStore{
			profile: testProfile(),
			findErr: fmt.Errorf("conn: %w", domain.ErrCandidateStoreUnavailable),
		}
		svc := newService(t, store, &fakeResolver{}, &fakeCache{})

		_, err := svc.GetJobRecommendations(context.Background(), recReq(t, 0))
		assert.ErrorIs(t, err, domain.ErrCandidateStoreUnavailable)
	})
}
