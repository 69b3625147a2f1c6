// Package recommend ranks job postings for a user's stored profile.
package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

const operation = "recommendations"

// Options tunes the engine.
type Options struct {
	Weights       match.RecommendationWeights
	Bars          match.ReasonBars
	MinScore      float64
	CandidatePool int
}

// DefaultOptions returns the 0.40/0.25/0.15/0.10/0.10 blend, a 0.6 bar and a pool of 100.
func DefaultOptions() Options {
	return Options{
		Weights:       match.DefaultRecommendationWeights(),
		Bars:          match.DefaultReasonBars(),
		MinScore:      0.6,
		CandidatePool: 100,
	}
}

// Service is the personalized recommendation engine.
type Service struct {
	store    CandidateStore
	resolver EmbeddingResolver
	cache    ResultCache
	pool     Pool
	opts     Options
	logger   *zap.Logger
}

// New creates a recommendation service.
func New(
	store CandidateStore, resolver EmbeddingResolver, cache ResultCache, pool Pool,
	opts Options, logger *zap.Logger,
) *Service {
	if opts.CandidatePool <= 0 {
		opts.CandidatePool = DefaultOptions().CandidatePool
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

// GetJobRecommendations returns at most req.Limit() active postings in the
// region scoring above the minimum, excluding every job the user applied to.
// A user without a profile gets an empty list.
func (s *Service) GetJobRecommendations(
	ctx context.Context, req request.Recommendation,
) ([]match.Recommendation, error) {
	start := time.Now()

	key := s.cache.RecommendationKey(req)
	if cached, ok := s.cache.LoadRecommendations(ctx, key); ok {
		s.observe(start, "hit", -1, len(cached))
		return cached, nil
	}

	recs := []match.Recommendation{}

	prof, err := s.store.FindUserProfile(ctx, req.UserID())
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if prof == nil {
		s.logger.Debug("No profile, nothing to recommend", zap.String("user_id", req.UserID()))
		s.observe(start, "miss", 0, 0)
		return recs, nil
	}

	candidates, err := s.store.Find(ctx, job.Filter{
		Region:     req.Region(),
		ExcludeIDs: prof.AppliedJobIDs,
		Limit:      s.opts.CandidatePool,
	})
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	degraded := false
	if len(candidates) > 0 {
		recs, degraded = s.score(ctx, *prof, candidates)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("recommendations canceled: %w", err)
		}
	}

	match.SortRecommendations(recs)
	if len(recs) > req.Limit() {
		recs = recs[:req.Limit()]
	}

	if degraded {
		s.logger.Warn("Recommendations served without full semantic scores, not caching",
			zap.String("user_id", req.UserID()),
			zap.String("region", req.Region()),
		)
	} else {
		s.cache.StoreRecommendations(ctx, key, req.Region(), req.UserID(), recs)
	}

	s.observe(start, "miss", len(candidates), len(recs))
	s.logger.Debug("Recommendations completed",
		zap.String("user_id", req.UserID()),
		zap.String("region", req.Region()),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(recs)),
		zap.Duration("duration", time.Since(start)),
	)
	return recs, nil
}

// score embeds the profile and candidates, then keeps candidates above the minimum.
// degraded reports whether any embedding fell back to the zero vector.
func (s *Service) score(
	ctx context.Context, prof profile.Profile, candidates []job.Posting,
) (recs []match.Recommendation, degraded bool) {
	profEmb := s.resolver.Resolve(ctx, domain.ProfileRef(prof.UserID), prof.EmbeddingText())

	embs := make([]domain.Embedding, len(candidates))
	if profEmb.Available() {
		s.pool.Run(ctx, len(candidates), func(ctx context.Context, i int) {
			c := candidates[i]
			embs[i] = s.resolver.Resolve(ctx, domain.JobRef(c.ID), c.EmbeddingText())
		})
	} else {
		for i := range embs {
			embs[i] = domain.Unavailable(len(profEmb.Vector))
		}
	}

	degraded = !profEmb.Available()
	recs = []match.Recommendation{}
	for i, c := range candidates {
		// The store already excludes applications; the engine does not rely on it.
		if !c.IsActive() || prof.HasApplied(c.ID) {
			continue
		}
		if !embs[i].Available() {
			degraded = true
		}

		sim := match.CosineSimilarity(profEmb.Vector, embs[i].Vector)
		signals, matched := match.ComputeSignals(prof, c, sim)
		total := s.opts.Weights.Blend(signals)
		if total <= s.opts.MinScore {
			continue
		}

		recs = append(recs, match.Recommendation{
			Job:           c,
			Score:         total,
			Signals:       signals,
			Reasons:       match.Reasons(signals, s.opts.Bars, prof, c, matched),
			MatchType:     signals.Dominant(),
			MatchedSkills: matched,
		})
	}
	return recs, degraded
}

func (s *Service) observe(start time.Time, cache string, candidates, results int) {
	metrics.MatchDuration.WithLabelValues(operation, cache).Observe(time.Since(start).Seconds())
	metrics.ResultsReturned.WithLabelValues(operation).Observe(float64(results))
	if candidates >= 0 {
		metrics.CandidatesScored.WithLabelValues(operation).Observe(float64(candidates))
	}
}
