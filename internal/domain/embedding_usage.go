package domain

import (
	"context"
	"sync/atomic"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects token usage for a single request.
// The handler puts a pointer into the context before calling the engine;
// fan-out workers add tokens concurrently; the handler reads it for response headers.
type EmbeddingUsage struct {
	totalTokens atomic.Int64
	used        atomic.Bool // true if embedding was requested, even on a cache hit with 0 tokens
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.totalTokens.Add(int64(n))
	u.used.Store(true)
}

// TotalTokens returns the tokens recorded so far.
func (u *EmbeddingUsage) TotalTokens() int {
	if u == nil {
		return 0
	}
	return int(u.totalTokens.Load())
}

// Used reports whether any embedding was requested.
func (u *EmbeddingUsage) Used() bool {
	return u != nil && u.used.Load()
}
