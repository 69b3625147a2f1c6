// Package embcache caches embeddings per entity in the tagged cache store.
package embcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
)

// fingerprintLen bytes of sha256(text) precede the vector in a cache value.
const fingerprintLen = 8

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Key(parts ...string) string
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
}

// Cache resolves embeddings cache-first, keyed by entity.
type Cache struct {
	inner      domain.Embedder
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an embedding cache.
// cacheTotal is a counter vec with labels "kind" and "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// GetOrCompute returns the cached vector for ref, or embeds text and caches it.
// A cached vector computed from different text is treated as a miss.
// Cache hit: TotalTokens = 0. Provider errors are returned and nothing is cached.
func (c *Cache) GetOrCompute(ctx context.Context, ref domain.EmbeddingRef, text string) (domain.EmbeddingResult, error) {
	key := c.store.Key("emb", string(ref.Kind), ref.ID)
	fp := fingerprint(text)

	if vec, ok := c.getFromCache(ctx, key, fp); ok {
		c.incCache(ref.Kind, "hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	c.incCache(ref.Kind, "miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s %s: %w", ref.Kind, ref.ID, err)
	}

	c.putToCache(ctx, key, fp, result.Embedding, ref.Tags())
	return result, nil
}

func (c *Cache) incCache(kind domain.EmbeddingKind, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(string(kind), result).Inc()
	}
}

func (c *Cache) getFromCache(ctx context.Context, key string, fp []byte) ([]float32, bool) {
	data, ok := c.store.Get(ctx, key)
	if !ok || len(data) <= fingerprintLen {
		return nil, false
	}
	if !bytes.Equal(data[:fingerprintLen], fp) {
		return nil, false
	}

	vec, err := bytesToVector(data[fingerprintLen:])
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *Cache) putToCache(ctx context.Context, key string, fp []byte, vec []float32, tags []string) {
	data := append(fp, vectorToCacheBytes(vec)...)
	if err := c.store.Set(ctx, key, data, c.ttl, tags...); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func fingerprint(text string) []byte {
	h := sha256.Sum256([]byte(text))
	fp := make([]byte, fingerprintLen, fingerprintLen+4*1536)
	copy(fp, h[:fingerprintLen])
	return fp
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
