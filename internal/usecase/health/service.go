package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the engine still answers, possibly without semantic scores.
	Degraded Status = "degraded"
	// Unhealthy indicates the engine cannot answer at all.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentCandidates = "candidates"
	ComponentCache      = "cache"
	ComponentEmbedding  = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	candidates Pinger
	cache      Pinger
	embedding  EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(candidates, cache Pinger, embedding EmbeddingChecker) *Service {
	return &Service{candidates: candidates, cache: cache, embedding: embedding}
}

// Check runs health checks against all components. Without the candidate
// store nothing can be served; cache and provider failures only degrade.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		ComponentCandidates: result(s.candidates.Ping(ctx)),
		ComponentCache:      result(s.cache.Ping(ctx)),
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentCandidates] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
