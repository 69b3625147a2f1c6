package search

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
	"github.com/kailas-cloud/jobmatch/internal/fanout"
)

const dim = 3

type fakeStore struct {
	postings []job.Posting
	err      error
	filters  []job.Filter
}

func (f *fakeStore) Find(_ context.Context, flt job.Filter) ([]job.Posting, error) {
	f.filters = append(f.filters, flt)
	return f.postings, f.err
}

// fakeResolver returns vectors by ref id; the query vector is stored under "query".
type fakeResolver struct {
	mu      sync.Mutex
	vectors map[string][]float32
	fail    bool
	calls   int
}

func (f *fakeResolver) Resolve(_ context.Context, ref domain.EmbeddingRef, _ string) domain.Embedding {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return domain.Unavailable(dim)
	}
	id := ref.ID
	if ref.Kind == domain.EmbeddingKindQuery {
		id = "query"
	}
	v, ok := f.vectors[id]
	if !ok {
		return domain.Unavailable(dim)
	}
	return domain.Embedded(v)
}

type fakeCache struct {
	entries map[string][]match.SearchResult
	stores  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]match.SearchResult{}}
}

func (c *fakeCache) SearchKey(req request.Search) string {
	return req.Region() + "|" + req.Query()
}

func (c *fakeCache) LoadSearch(_ context.Context, key string) ([]match.SearchResult, bool) {
	r, ok := c.entries[key]
	return r, ok
}

func (c *fakeCache) StoreSearch(_ context.Context, key, _ string, results []match.SearchResult) {
	c.stores++
	c.entries[key] = results
}

// vecAt returns a unit vector whose cosine similarity to (1,0,0) is sim.
func vecAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim)), 0}
}

func posting(id, title string) job.Posting {
	return job.Posting{
		ID:        id,
		Title:     title,
		Company:   "Acme",
		Region:    "209",
		Status:    job.StatusActive,
		CreatedAt: time.Unix(0, 0),
	}
}

func newPool(t *testing.T) *fanout.Pool {
	t.Helper()
	p, err := fanout.New(4)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func searchReq(t *testing.T, query string, limit int, threshold *float64) request.Search {
	t.Helper()
	req, err := request.NewSearch(query, "209", job.Filter{}, limit, threshold, request.DefaultSearchLimits())
	require.NoError(t, err)
	return req
}

func ptr[T any](v T) *T { return &v }
