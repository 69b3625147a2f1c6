package search

import (
	"context"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
)

// CandidateStore returns the coarse-filtered candidate pool.
type CandidateStore interface {
	Find(ctx context.Context, f job.Filter) ([]job.Posting, error)
}

// EmbeddingResolver returns an embedding for any text, falling back to the zero vector.
type EmbeddingResolver interface {
	Resolve(ctx context.Context, ref domain.EmbeddingRef, text string) domain.Embedding
}

// ResultCache stores ranked search results.
type ResultCache interface {
	SearchKey(req request.Search) string
	LoadSearch(ctx context.Context, key string) ([]match.SearchResult, bool)
	StoreSearch(ctx context.Context, key, region string, results []match.SearchResult)
}

// Pool fans out per-candidate work.
type Pool interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int))
}
