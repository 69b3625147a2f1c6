// Package cache implements a tagged, expiring cache over a db.Store.
//
// Each tag owns an index set of the keys written under it; invalidating a tag
// deletes every indexed key and the index itself. Index sets outlive the
// entries they point at, so a stale index member only costs a no-op DEL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/db"
)

// store is the consumer interface for the tagged cache (ISP).
type store interface {
	db.KVStore
	db.SetStore
}

// Store is a key/value cache with TTLs and tag-based bulk invalidation.
type Store struct {
	store  store
	prefix string
	tagTTL time.Duration
	logger *zap.Logger
}

// New creates a tagged cache. prefix namespaces every key; tagTTL bounds the
// lifetime of tag index sets and should be at least the longest entry TTL.
func New(s store, prefix string, tagTTL time.Duration, logger *zap.Logger) *Store {
	return &Store{store: s, prefix: prefix, tagTTL: tagTTL, logger: logger}
}

// Key prefixes a logical key with the store namespace.
func (c *Store) Key(parts ...string) string {
	k := c.prefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

// Get returns the value for key. Misses and store errors both report ok=false;
// store errors are logged.
func (c *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// Set indexes key under every tag, then stores value under key for ttl.
// The value is written only once every index holds the key, so a live entry
// is always reachable from each of its tags.
func (c *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	tagTTL := max(c.tagTTL, ttl)
	for _, tag := range tags {
		if err := c.store.SAdd(ctx, c.tagKey(tag), tagTTL, key); err != nil {
			return fmt.Errorf("tag %s with %s: %w", key, tag, err)
		}
	}
	if err := c.store.SetWithTTL(ctx, key, value, ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes every entry tagged with tag and returns how many keys
// were indexed under it.
func (c *Store) Invalidate(ctx context.Context, tag string) (int, error) {
	tk := c.tagKey(tag)
	keys, err := c.store.SMembers(ctx, tk)
	if err != nil {
		return 0, fmt.Errorf("read tag %s: %w", tag, err)
	}
	if err := c.store.Del(ctx, append(keys, tk)...); err != nil {
		return 0, fmt.Errorf("invalidate tag %s: %w", tag, err)
	}
	c.logger.Debug("Cache tag invalidated", zap.String("tag", tag), zap.Int("keys", len(keys)))
	return len(keys), nil
}

func (c *Store) tagKey(tag string) string {
	return c.prefix + "tag:" + tag
}
