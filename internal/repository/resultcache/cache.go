// Package resultcache caches whole search and recommendation result sets,
// keyed by a normalized form of the request and tagged by region and user.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
)

// Operation labels used in keys and metrics.
const (
	OpSearch          = "search"
	OpRecommendations = "recommendations"
)

// store is the consumer interface for the result cache (ISP).
type store interface {
	Key(parts ...string) string
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
}

// Cache is the write-through result cache in front of both engines.
type Cache struct {
	store     store
	searchTTL time.Duration
	recTTL    time.Duration
	total     *prometheus.CounterVec
	logger    *zap.Logger
}

// New creates a result cache.
// total is a counter vec with labels "operation" and "result" ("hit"/"miss"), passed explicitly.
func New(s store, searchTTL, recTTL time.Duration, total *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, searchTTL: searchTTL, recTTL: recTTL, total: total, logger: logger}
}

type searchParams struct {
	Query     string     `json:"q"`
	Filter    job.Filter `json:"f"`
	Limit     int        `json:"l"`
	Threshold float64    `json:"t"`
}

type recommendationParams struct {
	UserID string `json:"u"`
	Limit  int    `json:"l"`
}

// SearchKey derives the cache key of a validated search request.
func (c *Cache) SearchKey(req request.Search) string {
	region := normalize(req.Region())
	return c.key(OpSearch, region, searchParams{
		Query:     normalize(req.Query()),
		Filter:    req.Filter().Normalize(),
		Limit:     req.Limit(),
		Threshold: req.Threshold(),
	})
}

// RecommendationKey derives the cache key of a validated recommendation request.
func (c *Cache) RecommendationKey(req request.Recommendation) string {
	return c.key(OpRecommendations, normalize(req.Region()), recommendationParams{
		UserID: req.UserID(),
		Limit:  req.Limit(),
	})
}

// LoadSearch returns cached search results for key.
func (c *Cache) LoadSearch(ctx context.Context, key string) ([]match.SearchResult, bool) {
	return load[[]match.SearchResult](ctx, c, OpSearch, key)
}

// StoreSearch caches search results for the region.
func (c *Cache) StoreSearch(ctx context.Context, key, region string, results []match.SearchResult) {
	c.save(ctx, key, results, c.searchTTL, domain.RegionTag(region), domain.ResultsTag)
}

// LoadRecommendations returns cached recommendations for key.
func (c *Cache) LoadRecommendations(ctx context.Context, key string) ([]match.Recommendation, bool) {
	return load[[]match.Recommendation](ctx, c, OpRecommendations, key)
}

// StoreRecommendations caches a user's recommendations for the region.
func (c *Cache) StoreRecommendations(ctx context.Context, key, region, userID string, recs []match.Recommendation) {
	c.save(ctx, key, recs, c.recTTL, domain.RegionTag(region), domain.UserTag(userID), domain.ResultsTag)
}

func (c *Cache) key(op, region string, params any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		// Params are plain structs; Marshal cannot fail on them.
		panic(err)
	}
	h := sha256.Sum256(raw)
	return c.store.Key("res", op, region, hex.EncodeToString(h[:]))
}

func load[T any](ctx context.Context, c *Cache, op, key string) (T, bool) {
	var out T
	data, ok := c.store.Get(ctx, key)
	if !ok {
		c.inc(op, "miss")
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		c.logger.Warn("Failed to decode cached results", zap.String("key", key), zap.Error(err))
		c.inc(op, "miss")
		return out, false
	}
	c.inc(op, "hit")
	return out, true
}

func (c *Cache) save(ctx context.Context, key string, v any, ttl time.Duration, tags ...string) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode results for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, data, ttl, tags...); err != nil {
		c.logger.Warn("Failed to cache results", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) inc(op, result string) {
	if c.total != nil {
		c.total.WithLabelValues(op, result).Inc()
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
