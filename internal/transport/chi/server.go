// Package chi is the HTTP surface of the matching engine.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
	healthuc "github.com/kailas-cloud/jobmatch/internal/usecase/health"
	"github.com/kailas-cloud/jobmatch/internal/usecase/invalidation"
)

const (
	maxBodyBytes          = 1 << 20
	embeddingTokensHeader = "X-Embedding-Tokens"
	invalidationSource    = "http"
)

// Searcher runs semantic job search.
type Searcher interface {
	SearchJobs(ctx context.Context, req request.Search) ([]match.SearchResult, error)
}

// Recommender computes personalized recommendations.
type Recommender interface {
	GetJobRecommendations(ctx context.Context, req request.Recommendation) ([]match.Recommendation, error)
}

// Invalidator applies cache invalidation events.
type Invalidator interface {
	Apply(ctx context.Context, source string, ev invalidation.Event) (int, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Config holds HTTP-level settings.
type Config struct {
	APIKeys              []string
	SearchLimits         request.SearchLimits
	RecommendationLimits request.RecommendationLimits
}

// Server holds the HTTP handlers.
type Server struct {
	search    Searcher
	recommend Recommender
	inv       Invalidator
	health    HealthChecker
	cfg       Config
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher, recommend Recommender, inv Invalidator, health HealthChecker,
	cfg Config, logger *zap.Logger,
) *Server {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		search:    search,
		recommend: recommend,
		inv:       inv,
		health:    health,
		cfg:       cfg,
		validate:  v,
		logger:    logger,
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := gochi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/v1", func(r gochi.Router) {
		r.Post("/regions/{region}/jobs/search", s.SearchJobs)
		r.Get("/regions/{region}/jobs/search", s.SearchJobsQuery)
		r.Get("/regions/{region}/users/{userID}/recommendations", s.GetRecommendations)
		r.Post("/cache/invalidate", s.InvalidateCache)
	})
	return r
}

// SearchJobs handles POST /v1/regions/{region}/jobs/search.
func (s *Server) SearchJobs(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !s.decode(w, r, &body) {
		return
	}

	req, err := request.NewSearch(body.Query, gochi.URLParam(r, "region"),
		body.Filter.toDomain(), body.Limit, body.Threshold, s.cfg.SearchLimits)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.runSearch(w, r, req)
}

// SearchJobsQuery handles GET /v1/regions/{region}/jobs/search.
func (s *Server) SearchJobsQuery(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}
	f := job.Filter{
		JobType:         params.JobType,
		ExperienceLevel: params.ExperienceLevel,
		SalaryMin:       params.SalaryMin,
		SalaryMax:       params.SalaryMax,
		Remote:          params.Remote,
	}
	if params.Location != nil {
		f.LocationContains = *params.Location
	}

	req, err := request.NewSearch(params.Q, gochi.URLParam(r, "region"), f, limit, params.Threshold, s.cfg.SearchLimits)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.runSearch(w, r, req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req request.Search) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.SearchJobs(ctx, req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{Items: results, Total: len(results), Limit: req.Limit()})
}

// GetRecommendations handles GET /v1/regions/{region}/users/{userID}/recommendations.
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	req, err := request.NewRecommendation(gochi.URLParam(r, "userID"), gochi.URLParam(r, "region"),
		n, s.cfg.RecommendationLimits)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	recs, err := s.recommend.GetJobRecommendations(ctx, req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, RecommendationResponse{Items: recs, Total: len(recs), Limit: req.Limit()})
}

// InvalidateCache handles POST /v1/cache/invalidate.
func (s *Server) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var body InvalidateRequest
	if !s.decode(w, r, &body) {
		return
	}

	n, err := s.inv.Apply(r.Context(), invalidationSource, invalidation.Event{
		Kind:   invalidation.Kind(body.Kind),
		ID:     body.ID,
		Region: body.Region,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InvalidateResponse{Invalidated: n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// decode reads and validates a JSON body. On failure the error response is written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func bindSearchParams(r *http.Request) (SearchQueryParams, error) {
	var p SearchQueryParams
	q := r.URL.Query()

	bindings := []struct {
		name     string
		required bool
		dest     any
	}{
		{"q", true, &p.Q},
		{"limit", false, &p.Limit},
		{"threshold", false, &p.Threshold},
		{"job_type", false, &p.JobType},
		{"experience_level", false, &p.ExperienceLevel},
		{"salary_min", false, &p.SalaryMin},
		{"salary_max", false, &p.SalaryMax},
		{"remote", false, &p.Remote},
		{"location", false, &p.Location},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, b.required, b.name, q, b.dest); err != nil {
			return SearchQueryParams{}, fmt.Errorf("invalid query parameter %s: %w", b.name, err)
		}
	}
	return p, nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set(embeddingTokensHeader, strconv.Itoa(usage.TotalTokens()))
	}
}
