// Package gemini implements domain.Embedder on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-embedding-001"
)

// models is the subset of genai.Models the embedder calls.
type models interface {
	EmbedContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig,
	) (*genai.EmbedContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Embedder embeds text with a Gemini embedding model.
type Embedder struct {
	models     models
	model      string
	dimensions int
	logger     *zap.Logger
}

// Config holds the Gemini provider settings.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int
	Logger     *zap.Logger
}

// NewEmbedder creates a Gemini API embedder.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newEmbedder(client.Models, cfg), nil
}

func newEmbedder(m models, cfg *Config) *Embedder {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{models: m, model: model, dimensions: cfg.Dimensions, logger: logger}
}

// Embed implements domain.Embedder. The Gemini API reports no token usage for embeddings.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	cfg := &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"}
	if e.dimensions > 0 {
		dim := int32(e.dimensions) //nolint:gosec // validated config value
		cfg.OutputDimensionality = &dim
	}

	start := time.Now()
	resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), cfg)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		wrapped, errType := classify(err)
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, errType).Inc()
		return domain.EmbeddingResult{}, wrapped
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	vec := resp.Embeddings[0].Values
	if e.dimensions > 0 && len(vec) != e.dimensions {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "dimension_mismatch").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("embedding has %d dimensions, expected %d: %w",
			len(vec), e.dimensions, domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(duration.Seconds())

	return domain.EmbeddingResult{Embedding: vec}, nil
}

// HealthCheck fetches the configured model's metadata.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.models.Get(ctx, e.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", e.model, err)
	}
	return nil
}

func classify(err error) (error, string) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("gemini API error %d %s: %s: %w",
				apiErr.Code, apiErr.Status, apiErr.Message, domain.ErrEmbeddingQuotaExceeded), "quota"
		}
		return fmt.Errorf("gemini API error %d %s: %s: %w",
			apiErr.Code, apiErr.Status, apiErr.Message, domain.ErrEmbeddingProviderError), "api_error"
	}
	return fmt.Errorf("gemini embed: %v: %w", err, domain.ErrEmbeddingProviderError), "request_error"
}
