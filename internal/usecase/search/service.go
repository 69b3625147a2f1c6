// Package search ranks job postings against a free-text query.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

const operation = "search"

// Options tunes the engine.
type Options struct {
	Weights       match.SearchWeights
	MaxCandidates int
}

// DefaultOptions returns 0.7/0.3 weights over at most 100 candidates.
func DefaultOptions() Options {
	return Options{Weights: match.DefaultSearchWeights(), MaxCandidates: 100}
}

// Service is the semantic job search engine.
type Service struct {
	store    CandidateStore
	resolver EmbeddingResolver
	cache    ResultCache
	pool     Pool
	opts     Options
	logger   *zap.Logger
}

// New creates a search service.
func New(
	store CandidateStore, resolver EmbeddingResolver, cache ResultCache, pool Pool,
	opts Options, logger *zap.Logger,
) *Service {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultOptions().MaxCandidates
	}
	return &Service{
		store:    store,
		resolver: resolver,
		cache:    cache,
		pool:     pool,
		opts:     opts,
		logger:   logger,
	}
}

// SearchJobs returns at most req.Limit() active postings whose semantic
// similarity to the query reaches req.Threshold(), best combined score first.
// Only candidate store failures are returned as errors.
func (s *Service) SearchJobs(ctx context.Context, req request.Search) ([]match.SearchResult, error) {
	start := time.Now()

	key := s.cache.SearchKey(req)
	if cached, ok := s.cache.LoadSearch(ctx, key); ok {
		s.observe(start, "hit", -1, len(cached))
		return cached, nil
	}

	f := req.Filter()
	f.Limit = s.opts.MaxCandidates
	candidates, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	results := []match.SearchResult{}
	if len(candidates) == 0 {
		s.cache.StoreSearch(ctx, key, req.Region(), results)
		s.observe(start, "miss", 0, 0)
		return results, nil
	}

	query := s.resolver.Resolve(ctx, domain.QueryRef(req.Query()), req.Query())
	embs := s.resolveJobs(ctx, query, candidates)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search canceled: %w", err)
	}

	degraded := !query.Available()
	for i, c := range candidates {
		if !c.IsActive() {
			continue
		}
		if !embs[i].Available() {
			degraded = true
		}

		sim := match.CosineSimilarity(query.Vector, embs[i].Vector)
		if sim < req.Threshold() {
			continue
		}

		lex := match.LexicalRelevance(c, req.Query())
		concepts := match.MatchedConcepts(req.Query(), c.SearchableText())
		results = append(results, match.SearchResult{
			Job:                 c,
			SemanticScore:       sim,
			LexicalScore:        lex,
			Score:               s.opts.Weights.Combine(sim, lex),
			MatchedConcepts:     concepts,
			Explanation:         match.Explain(sim, concepts, c.Title, req.Query()),
			SemanticUnavailable: !query.Available() || !embs[i].Available(),
		})
	}

	match.SortSearchResults(results)
	if len(results) > req.Limit() {
		results = results[:req.Limit()]
	}

	if degraded {
		s.logger.Warn("Search served without full semantic scores, not caching",
			zap.String("region", req.Region()),
			zap.Int("candidates", len(candidates)),
		)
	} else {
		s.cache.StoreSearch(ctx, key, req.Region(), results)
	}

	s.observe(start, "miss", len(candidates), len(results))
	s.logger.Debug("Search completed",
		zap.String("region", req.Region()),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// resolveJobs embeds every candidate concurrently. When the query itself is
// unavailable every similarity is 0 anyway, so the provider is left alone.
func (s *Service) resolveJobs(ctx context.Context, query domain.Embedding, candidates []job.Posting) []domain.Embedding {
	embs := make([]domain.Embedding, len(candidates))
	if !query.Available() {
		for i := range embs {
			embs[i] = domain.Unavailable(len(query.Vector))
		}
		return embs
	}

	s.pool.Run(ctx, len(candidates), func(ctx context.Context, i int) {
		c := candidates[i]
		embs[i] = s.resolver.Resolve(ctx, domain.JobRef(c.ID), c.EmbeddingText())
	})
	return embs
}

func (s *Service) observe(start time.Time, cache string, candidates, results int) {
	metrics.MatchDuration.WithLabelValues(operation, cache).Observe(time.Since(start).Seconds())
	metrics.ResultsReturned.WithLabelValues(operation).Observe(float64(results))
	if candidates >= 0 {
		metrics.CandidatesScored.WithLabelValues(operation).Observe(float64(candidates))
	}
}
