package domain

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingStatus tells a real vector apart from the zero-vector fallback.
type EmbeddingStatus uint8

const (
	// EmbeddingEmbedded is a vector produced by the provider or read from cache.
	EmbeddingEmbedded EmbeddingStatus = iota + 1
	// EmbeddingUnavailable is the zero vector substituted when the provider failed.
	EmbeddingUnavailable
)

func (s EmbeddingStatus) String() string {
	switch s {
	case EmbeddingEmbedded:
		return "embedded"
	case EmbeddingUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Embedding is the resolved vector for one text. Unavailable embeddings score 0
// against anything, same as a genuinely orthogonal vector, but stay observable.
type Embedding struct {
	Vector []float32
	Status EmbeddingStatus
}

// Embedded wraps a provider vector.
func Embedded(vec []float32) Embedding {
	return Embedding{Vector: vec, Status: EmbeddingEmbedded}
}

// Unavailable returns the zero-vector fallback of the given dimensionality.
func Unavailable(dim int) Embedding {
	if dim < 0 {
		dim = 0
	}
	return Embedding{Vector: make([]float32, dim), Status: EmbeddingUnavailable}
}

// Available reports whether the vector came from the provider.
func (e Embedding) Available() bool {
	return e.Status == EmbeddingEmbedded
}

// TruncatingEmbedder is a domain decorator that caps input length before embedding.
type TruncatingEmbedder struct {
	inner    Embedder
	maxChars int
}

// NewTruncatingEmbedder creates a decorator that keeps at most maxChars runes.
// maxChars <= 0 disables truncation.
func NewTruncatingEmbedder(inner Embedder, maxChars int) *TruncatingEmbedder {
	return &TruncatingEmbedder{inner: inner, maxChars: maxChars}
}

// Embed truncates text and delegates to the inner embedder.
func (e *TruncatingEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, TruncateText(text, e.maxChars))
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("truncating embed: %w", err)
	}
	return result, nil
}

// TruncateText cuts text to maxChars runes without splitting a multi-byte rune.
func TruncateText(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}
