package recommend

import (
	"context"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

// CandidateStore reads profiles and candidate postings.
type CandidateStore interface {
	Find(ctx context.Context, f job.Filter) ([]job.Posting, error)
	FindUserProfile(ctx context.Context, userID string) (*profile.Profile, error)
}

// EmbeddingResolver returns an embedding for any text, falling back to the zero vector.
type EmbeddingResolver interface {
	Resolve(ctx context.Context, ref domain.EmbeddingRef, text string) domain.Embedding
}

// ResultCache stores ranked recommendations.
type ResultCache interface {
	RecommendationKey(req request.Recommendation) string
	LoadRecommendations(ctx context.Context, key string) ([]match.Recommendation, bool)
	StoreRecommendations(ctx context.Context, key, region, userID string, recs []match.Recommendation)
}

// Pool fans out per-candidate work.
type Pool interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int))
}
