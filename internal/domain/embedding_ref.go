package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EmbeddingKind says what entity an embedding was computed for.
type EmbeddingKind string

// Embedding kinds.
const (
	EmbeddingKindJob     EmbeddingKind = "job"
	EmbeddingKindProfile EmbeddingKind = "profile"
	EmbeddingKindQuery   EmbeddingKind = "query"
)

// EmbeddingRef is the stable identity an embedding is cached under.
type EmbeddingRef struct {
	Kind EmbeddingKind
	ID   string
}

// JobRef identifies a posting's embedding.
func JobRef(jobID string) EmbeddingRef {
	return EmbeddingRef{Kind: EmbeddingKindJob, ID: jobID}
}

// ProfileRef identifies a user profile's embedding.
func ProfileRef(userID string) EmbeddingRef {
	return EmbeddingRef{Kind: EmbeddingKindProfile, ID: userID}
}

// QueryRef identifies a free-text query by the hash of its normalized form,
// so "Nurse " and "nurse" share a vector.
func QueryRef(query string) EmbeddingRef {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return EmbeddingRef{Kind: EmbeddingKindQuery, ID: hex.EncodeToString(h[:])}
}

// Tags returns the invalidation tags of the entity behind the embedding.
func (r EmbeddingRef) Tags() []string {
	switch r.Kind {
	case EmbeddingKindJob:
		return []string{JobTag(r.ID)}
	case EmbeddingKindProfile:
		return []string{UserTag(r.ID)}
	default:
		return nil
	}
}

// Cache tags shared by the embedding and result caches.

// JobTag marks entries derived from one posting.
func JobTag(jobID string) string { return "job:" + jobID }

// UserTag marks entries derived from one user's profile.
func UserTag(userID string) string { return "user:" + userID }

// RegionTag marks result sets computed over one region's postings.
func RegionTag(region string) string { return "region:" + strings.ToLower(strings.TrimSpace(region)) }

// ResultsTag marks every cached result set.
const ResultsTag = "results"
