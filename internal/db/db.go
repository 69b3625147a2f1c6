package db

import (
	"context"
	"time"
)

// Store is the cache store facade combining all sub-interfaces.
// Implementations: redis (rueidis, networked) and badger (embedded).
type Store interface {
	Pinger
	KVStore
	SetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides expiring key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// SetStore provides string sets, used as tag indexes.
type SetStore interface {
	// SAdd adds members that stay in the set for at least ttl. Redis refreshes
	// the whole set; badger expires each member on its own.
	SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error
	// SMembers returns all members; a missing set is empty, not an error.
	SMembers(ctx context.Context, key string) ([]string, error)
}
