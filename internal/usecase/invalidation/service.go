// Package invalidation drops cached embeddings and result sets when the
// underlying postings or profiles change.
package invalidation

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
)

// Kind is the changed entity type.
type Kind string

// Entity kinds.
const (
	KindJob     Kind = "job"
	KindProfile Kind = "profile"
)

// Event describes one changed entity. Region is optional for jobs.
type Event struct {
	Kind   Kind   `json:"kind"`
	ID     string `json:"id"`
	Region string `json:"region,omitempty"`
}

// Validate checks that the event names a known entity.
func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidRequest)
	}
	switch e.Kind {
	case KindJob, KindProfile:
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidRequest, e.Kind)
	}
}

// Service maps entity changes to cache tags.
type Service struct {
	cache  TagInvalidator
	total  *prometheus.CounterVec
	logger *zap.Logger
}

// New creates a Service. total has labels "kind" and "source"; nil disables counting.
func New(cache TagInvalidator, total *prometheus.CounterVec, logger *zap.Logger) *Service {
	return &Service{cache: cache, total: total, logger: logger}
}

// JobChanged drops the posting's embedding and the result sets that could
// contain it: the region's when known, every result set otherwise.
func (s *Service) JobChanged(ctx context.Context, jobID, region string) (int, error) {
	tags := []string{domain.JobTag(jobID)}
	if strings.TrimSpace(region) != "" {
		tags = append(tags, domain.RegionTag(region))
	} else {
		tags = append(tags, domain.ResultsTag)
	}
	return s.invalidate(ctx, tags)
}

// ProfileChanged drops the profile embedding and the user's recommendation sets.
func (s *Service) ProfileChanged(ctx context.Context, userID string) (int, error) {
	return s.invalidate(ctx, []string{domain.UserTag(userID)})
}

// Apply dispatches ev by kind. source labels the metric (http, cli, notify).
func (s *Service) Apply(ctx context.Context, source string, ev Event) (int, error) {
	if err := ev.Validate(); err != nil {
		return 0, err
	}

	var (
		n   int
		err error
	)
	switch ev.Kind {
	case KindJob:
		n, err = s.JobChanged(ctx, ev.ID, ev.Region)
	case KindProfile:
		n, err = s.ProfileChanged(ctx, ev.ID)
	}
	if err != nil {
		return 0, err
	}

	if s.total != nil {
		s.total.WithLabelValues(string(ev.Kind), source).Inc()
	}
	s.logger.Info("Cache invalidated",
		zap.String("kind", string(ev.Kind)),
		zap.String("id", ev.ID),
		zap.String("region", ev.Region),
		zap.String("source", source),
		zap.Int("keys", n),
	)
	return n, nil
}

func (s *Service) invalidate(ctx context.Context, tags []string) (int, error) {
	total := 0
	for _, tag := range tags {
		n, err := s.cache.Invalidate(ctx, tag)
		if err != nil {
			return total, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
		}
		total += n
	}
	return total, nil
}
