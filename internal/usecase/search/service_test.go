package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
)

func newService(t *testing.T, store *fakeStore, res *fakeResolver, cache *fakeCache) *Service {
	t.Helper()
	return New(store, res, cache, newPool(t), DefaultOptions(), zap.NewNop())
}

func TestSearchJobs_ThresholdDropsUnrelatedPosting(t *testing.T) {
	store := &fakeStore{postings: []job.Posting{
		posting("j1", "Senior Software Engineer"),
		posting("j2", "Pastry Chef"),
	}}
	res := &fakeResolver{vectors: map[string][]float32{
		"query": {1, 0, 0},
		"j1":    vecAt(0.9),
		"j2":    vecAt(0.2),
	}}
	svc := newService(t, store, res, newFakeCache())

	results, err := svc.SearchJobs(context.Background(), searchReq(t, "software engineer", 0, ptr(0.7)))
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "j1", r.Job.ID)
	assert.InDelta(t, 0.9, r.SemanticScore, 1e-6)
	assert.InDelta(t, 0.4, r.LexicalScore, 1e-9)
	assert.InDelta(t, 0.7*0.9+0.3*0.4, r.Score, 1e-6)
	assert.Equal(t, []string{"software", "engineer"}, r.MatchedConcepts)
	assert.Equal(t,
		`Strong semantic match; shared concepts: software, engineer; title contains "software engineer"`,
		r.Explanation)
	assert.False(t, r.SemanticUnavailable)
}

func TestSearchJobs_ProviderDown(t *testing.T) {
	store := &fakeStore{postings: []job.Posting{
		posting("j1", "Data Analyst"),
		posting("j2", "Senior Data Engineer"),
	}}

	t.Run("default threshold filters everything", func(t *testing.T) {
		cache := newFakeCache()
		svc := newService(t, store, &fakeResolver{fail: true}, cache)

		results, err := svc.SearchJobs(context.Background(), searchReq(t, "data engineer", 0, nil))
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NotNil(t, results)
		assert.Zero(t, cache.stores)
	})

	t.Run("zero threshold ranks by lexical relevance", func(t *testing.T) {
		cache := newFakeCache()
		res := &fakeResolver{fail: true}
		svc := newService(t, store, res, cache)

		results, err := svc.SearchJobs(context.Background(), searchReq(t, "data engineer", 0, ptr(0.0)))
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "j2", results[0].Job.ID)
		for _, r := range results {
			assert.Zero(t, r.SemanticScore)
			assert.True(t, r.SemanticUnavailable)
			assert.InDelta(t, 0.3*r.LexicalScore, r.Score, 1e-9)
		}
		assert.Equal(t, 1, res.calls, "job embeddings are skipped when the query has none")
		assert.Zero(t, cache.stores)
	})
}

func TestSearchJobs_LimitAndOrdering(t *testing.T) {
	var postings []job.Posting
	vectors := map[string][]float32{"query": {1, 0, 0}}
	for i := range 10 {
		id := fmt.Sprintf("j%02d", i)
		postings = append(postings, posting(id, "Nurse"))
		vectors[id] = vecAt(0.75 + float64(i%5)*0.05)
	}
	svc := newService(t, &fakeStore{postings: postings}, &fakeResolver{vectors: vectors}, newFakeCache())

	results, err := svc.SearchJobs(context.Background(), searchReq(t, "nurse", 4, nil))
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		assert.GreaterOrEqual(t, prev.Score, cur.Score)
		if prev.Score == cur.Score {
			assert.Less(t, prev.Job.ID, cur.Job.ID)
		}
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.SemanticScore, 0.7)
	}
}

func TestSearchJobs_SkipsInactiveCandidates(t *testing.T) {
	closed := posting("j2", "Nurse")
	closed.Status = job.StatusInactive
	store := &fakeStore{postings: []job.Posting{posting("j1", "Nurse"), closed}}
	res := &fakeResolver{vectors: map[string][]float32{"query": {1, 0, 0}, "j1": {1, 0, 0}, "j2": {1, 0, 0}}}

	results, err := newService(t, store, res, newFakeCache()).
		SearchJobs(context.Background(), searchReq(t, "nurse", 0, nil))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "j1", results[0].Job.ID)
}

func TestSearchJobs_CacheHitSkipsStoreAndProvider(t *testing.T) {
	store := &fakeStore{postings: []job.Posting{posting("j1", "Nurse")}}
	res := &fakeResolver{vectors: map[string][]float32{"query": {1, 0, 0}, "j1": {1, 0, 0}}}
	cache := newFakeCache()
	svc := newService(t, store, res, cache)
	req := searchReq(t, "nurse", 0, nil)

	first, err := svc.SearchJobs(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, cache.stores)

	second, err := svc.SearchJobs(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, store.filters, 1)
	assert.Equal(t, 2, res.calls)
}

func TestSearchJobs_PassesFilterAndCandidateCap(t *testing.T) {
	store := &fakeStore{}
	svc := newService(t, store, &fakeResolver{}, newFakeCache())

	results, err := svc.SearchJobs(context.Background(), searchReq(t, "nurse", 5, nil))
	require.NoError(t, err)
	assert.Empty(t, results)
	require.Len(t, store.filters, 1)
	assert.Equal(t, "209", store.filters[0].Region)
	assert.Equal(t, 100, store.filters[0].Limit)
}

func TestSearchJobs_StoreErrorIsHardFailure(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("query: %w", domain.ErrCandidateStoreUnavailable)}
	svc := newService(t, store, &fakeResolver{}, newFakeCache())

	_, err := svc.SearchJobs(context.Background(), searchReq(t, "nurse", 0, nil))
	assert.True(t, errors.Is(err, domain.ErrCandidateStoreUnavailable))
}
