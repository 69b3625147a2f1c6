package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/config"
	"github.com/kailas-cloud/jobmatch/internal/db"
	dbBadger "github.com/kailas-cloud/jobmatch/internal/db/badger"
	dbRedis "github.com/kailas-cloud/jobmatch/internal/db/redis"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
	"github.com/kailas-cloud/jobmatch/internal/fanout"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
	"github.com/kailas-cloud/jobmatch/internal/repository/cache"
	"github.com/kailas-cloud/jobmatch/internal/repository/candidate"
	"github.com/kailas-cloud/jobmatch/internal/repository/embcache"
	"github.com/kailas-cloud/jobmatch/internal/repository/resultcache"
	geminiEmb "github.com/kailas-cloud/jobmatch/internal/transport/gemini"
	openaiEmb "github.com/kailas-cloud/jobmatch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/jobmatch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/jobmatch/internal/usecase/health"
	invalidationuc "github.com/kailas-cloud/jobmatch/internal/usecase/invalidation"
	recommenduc "github.com/kailas-cloud/jobmatch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/jobmatch/internal/usecase/search"
)

// app is the composition root shared by serve and the one-shot commands.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	store   db.Store
	badger  *dbBadger.Store // nil unless cache.driver is badger
	tagged  *cache.Store
	pg      *pgxpool.Pool
	workers *fanout.Pool

	embedder     *embeddinguc.InstrumentedEmbedder
	search       *searchuc.Service
	recommend    *recommenduc.Service
	invalidation *invalidationuc.Service
	health       *healthuc.Service
}

// newCacheApp opens only the cache store. Enough for invalidation.
func newCacheApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterMatchMetrics()

	a := &app{cfg: cfg, logger: logger}
	if err := a.openCache(ctx); err != nil {
		return nil, err
	}
	a.invalidation = invalidationuc.New(a.tagged, metrics.InvalidationsTotal, logger)
	return a, nil
}

// newApp wires the full engine. On error everything opened so far is closed.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *app, err error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMatchMetrics()

	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err = a.openCache(ctx); err != nil {
		return nil, err
	}

	a.pg, err = candidate.NewPool(ctx, candidate.PoolConfig{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLifetime: time.Duration(cfg.Postgres.MaxConnLifetimeMin) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.Postgres.MaxConnIdleMin) * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("candidate store: %w", err)
	}
	logger.Info("Connected to candidate store")
	candidates := candidate.New(a.pg)

	base, err := newProviderEmbedder(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Provider -> Instrumented -> Truncating -> Cache (outermost, keyed by entity).
	a.embedder = embeddinguc.NewInstrumentedEmbedder(base, cfg.Embedding.Provider, cfg.Embedding.Model, logger)
	truncating := domain.NewTruncatingEmbedder(a.embedder, cfg.Embedding.MaxInputChars)
	vectors := embcache.New(truncating, a.tagged, cfg.EmbeddingTTL(), metrics.EmbeddingCacheTotal, logger)
	resolver := embeddinguc.NewResolver(vectors, cfg.Embedding.Dimensions, cfg.EmbeddingTimeout(),
		metrics.EmbeddingUnavailableTotal, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	a.workers, err = fanout.New(cfg.Embedding.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("embedding worker pool: %w", err)
	}

	results := resultcache.New(a.tagged, cfg.SearchTTL(), cfg.RecommendationTTL(), metrics.ResultCacheTotal, logger)

	a.search = searchuc.New(candidates, resolver, results, a.workers, searchOptions(cfg), logger)
	a.recommend = recommenduc.New(candidates, resolver, results, a.workers, recommendOptions(cfg), logger)
	a.invalidation = invalidationuc.New(a.tagged, metrics.InvalidationsTotal, logger)
	a.health = healthuc.New(candidates, a.store, a.embedder)

	return a, nil
}

func (a *app) openCache(ctx context.Context) error {
	c := a.cfg.Cache
	switch c.Driver {
	case "badger":
		s, err := dbBadger.NewStore(dbBadger.Config{Path: c.BadgerPath, Logger: a.logger})
		if err != nil {
			return fmt.Errorf("cache store: %w", err)
		}
		a.store, a.badger = s, s
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    c.Addrs,
			Username: c.Username,
			Password: c.Password,
			DB:       c.DB,
		})
		if err != nil {
			return fmt.Errorf("cache store: %w", err)
		}
		a.store = s
	default:
		return fmt.Errorf("unknown cache driver %q", c.Driver)
	}

	if err := a.store.WaitForReady(ctx, time.Duration(c.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("cache store not ready: %w", err)
	}
	a.logger.Info("Connected to cache store", zap.String("driver", c.Driver))

	a.tagged = cache.New(a.store, c.KeyPrefix, a.cfg.TagTTL(), a.logger)
	return nil
}

// Close releases everything newApp or newCacheApp opened.
func (a *app) Close() {
	if a.workers != nil {
		a.workers.Release()
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

func newProviderEmbedder(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.Embedder, error) {
	prov := cfg.Embedding.Providers[cfg.Embedding.Provider]

	switch cfg.Embedding.Provider {
	case "openai":
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     prov.APIKey,
			BaseURL:    prov.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		}), nil
	case "gemini":
		e, err := geminiEmb.NewEmbedder(ctx, &geminiEmb.Config{
			APIKey:     prov.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func searchOptions(cfg config.Config) searchuc.Options {
	return searchuc.Options{
		Weights: match.SearchWeights{
			Semantic: cfg.Search.Weights.Semantic,
			Lexical:  cfg.Search.Weights.Lexical,
		},
		MaxCandidates: cfg.Search.MaxCandidates,
	}
}

func recommendOptions(cfg config.Config) recommenduc.Options {
	r := cfg.Recommendation
	return recommenduc.Options{
		Weights: match.RecommendationWeights{
			Semantic:   r.Weights.Semantic,
			Skills:     r.Weights.Skills,
			Experience: r.Weights.Experience,
			Location:   r.Weights.Location,
			Salary:     r.Weights.Salary,
		},
		Bars: match.ReasonBars{
			Semantic:   r.ReasonBars.Semantic,
			Skills:     r.ReasonBars.Skills,
			Experience: r.ReasonBars.Experience,
			Location:   r.ReasonBars.Location,
			Salary:     r.ReasonBars.Salary,
		},
		MinScore:      r.MinScore,
		CandidatePool: r.CandidatePool,
	}
}

func searchLimits(cfg config.Config) request.SearchLimits {
	return request.SearchLimits{
		DefaultLimit:     cfg.Search.DefaultLimit,
		MaxLimit:         cfg.Search.MaxLimit,
		DefaultThreshold: cfg.Search.DefaultThreshold,
	}
}

func recommendationLimits(cfg config.Config) request.RecommendationLimits {
	return request.RecommendationLimits{
		DefaultLimit: cfg.Recommendation.DefaultLimit,
		MaxLimit:     cfg.Recommendation.MaxLimit,
	}
}
