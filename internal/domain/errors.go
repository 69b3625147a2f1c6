package domain

import "errors"

var (
	// ErrInvalidRequest signals a malformed search or recommendation request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingQuotaExceeded signals an exhausted provider quota.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCandidateStoreUnavailable signals that job postings or profiles could not be read.
	ErrCandidateStoreUnavailable = errors.New("candidate store unavailable")
	// ErrCacheUnavailable signals a cache store failure on an explicit cache operation.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
