package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	logpkg "github.com/kailas-cloud/jobmatch/internal/logger"
)

// cache is the consumer interface for the cache-first embedding lookup (ISP).
type cache interface {
	GetOrCompute(ctx context.Context, ref domain.EmbeddingRef, text string) (domain.EmbeddingResult, error)
}

// Resolver turns text into an Embedding and never fails: when the provider
// cannot answer within the timeout, the zero vector of the configured
// dimensionality stands in and the failure is logged and counted.
type Resolver struct {
	cache       cache
	dimensions  int
	timeout     time.Duration
	unavailable *prometheus.CounterVec
	logger      *zap.Logger
}

// NewResolver creates a Resolver. unavailable has labels "kind" and "reason"; nil disables counting.
func NewResolver(
	c cache, dimensions int, timeout time.Duration,
	unavailable *prometheus.CounterVec, logger *zap.Logger,
) *Resolver {
	return &Resolver{
		cache:       c,
		dimensions:  dimensions,
		timeout:     timeout,
		unavailable: unavailable,
		logger:      logger,
	}
}

// Dimensions is the length of every vector Resolve returns on fallback.
func (r *Resolver) Dimensions() int {
	return r.dimensions
}

// Resolve returns the embedding for ref. Tokens spent are added to the usage collector in ctx.
func (r *Resolver) Resolve(ctx context.Context, ref domain.EmbeddingRef, text string) domain.Embedding {
	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res, err := r.cache.GetOrCompute(callCtx, ref, text)
	if err != nil {
		reason := failureReason(callCtx, err)
		logpkg.FromContext(ctx, r.logger).Warn("Embedding unavailable, using zero vector",
			zap.String("kind", string(ref.Kind)),
			zap.String("ref_id", ref.ID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		if r.unavailable != nil {
			r.unavailable.WithLabelValues(string(ref.Kind), reason).Inc()
		}
		return domain.Unavailable(r.dimensions)
	}

	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	return domain.Embedded(res.Embedding)
}

func failureReason(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return "quota"
	default:
		return "error"
	}
}
