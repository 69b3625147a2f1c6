package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	logpkg "github.com/kailas-cloud/jobmatch/internal/logger"
)

// InstrumentedEmbedder logs every provider call with the request-scoped logger.
// Transport metrics (requests, duration, tokens) are recorded in the provider packages.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps a provider embedder. logger is used when the
// context carries no request logger.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

// Embed delegates to the provider. Failures are logged at Warn: callers fall
// back to the zero vector, the request itself still succeeds.
func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := e.inner.Embed(ctx, text)

	log := logpkg.FromContext(ctx, e.logger).With(
		zap.String("provider", e.provider),
		zap.String("model", e.model),
		zap.Duration("duration", time.Since(start)),
	)

	if err != nil {
		log.Warn("Embedding call failed",
			zap.String("error_class", errorClass(err)),
			zap.Int("text_runes", utf8.RuneCountInString(text)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed via %s: %w", e.provider, err)
	}

	log.Debug("Embedding call completed",
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// HealthCheck forwards to the provider when it supports health checks.
func (e *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := e.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%s health: %w", e.provider, err)
	}
	return nil
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return "quota"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "provider"
	}
}
