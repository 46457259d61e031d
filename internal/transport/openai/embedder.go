package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/metrics"
)

// Embedder talks to an OpenAI-compatible embeddings endpoint, usually a
// text-embeddings-inference sidecar serving all-MiniLM-L6-v2.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	logger     *zap.Logger

	// skipDimensions is set once the server rejects the dimensions parameter.
	skipDimensions atomic.Bool
	mismatchLogged atomic.Bool
}

// Config holds the embedding server settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions is the expected vector size. It is sent as the "dimensions"
	// request parameter until the server refuses it. Vectors of another
	// size are returned as is and counted.
	Dimensions int
	User       string
	Logger     *zap.Logger
}

// NewEmbedder creates an embedder for an OpenAI-compatible endpoint.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		logger:     logger,
	}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	model := string(e.model)
	start := time.Now()

	resp, err := e.create(ctx, text)
	if err != nil {
		e.fail("api_error")
		return domain.EmbeddingResult{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		e.fail("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	vec := resp.Data[0].Embedding
	if e.dimensions > 0 && len(vec) != e.dimensions {
		// The vector store rejects the write; this only makes the cause visible.
		metrics.EmbeddingDimensionMismatchTotal.WithLabelValues(model).Inc()
		if !e.mismatchLogged.Swap(true) {
			e.logger.Warn("Embedding size differs from configured dimensions",
				zap.String("model", model),
				zap.Int("got", len(vec)),
				zap.Int("configured", e.dimensions),
			)
		}
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(model, "ok").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if resp.Usage.PromptTokens > 0 {
		metrics.EmbeddingPromptTokensTotal.WithLabelValues(model).Add(float64(resp.Usage.PromptTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// create sends the request, dropping the dimensions parameter for good if
// the server says it does not support it. Small sentence-transformer models
// have a fixed output size and most sidecars refuse the parameter.
func (e *Embedder) create(ctx context.Context, text string) (openai.EmbeddingResponse, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 && !e.skipDimensions.Load() {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err == nil || req.Dimensions == 0 || !rejectsDimensions(err) {
		return resp, err //nolint:wrapcheck // wrapped by parseAPIError
	}

	if !e.skipDimensions.Swap(true) {
		e.logger.Warn("Embedding server rejected the dimensions parameter, no longer sending it",
			zap.String("model", string(e.model)),
			zap.Int("dimensions", e.dimensions),
			zap.Error(err),
		)
	}
	metrics.EmbeddingDimensionsFallbackTotal.WithLabelValues(string(e.model)).Inc()

	req.Dimensions = 0
	return e.client.CreateEmbeddings(ctx, req) //nolint:wrapcheck // wrapped by parseAPIError
}

func (e *Embedder) fail(reason string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(string(e.model), reason).Inc()
}

// HealthCheck verifies the server is reachable via ListModels.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// rejectsDimensions reports whether err is a validation error about the
// dimensions parameter.
func rejectsDimensions(err error) bool {
	var (
		status  int
		message string
	)

	// RequestError first: it may wrap a half-decoded APIError without a status.
	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &reqErr):
		status, message = reqErr.HTTPStatusCode, string(reqErr.Body)
	case errors.As(err, &apiErr):
		status, message = apiErr.HTTPStatusCode, apiErr.Message
	default:
		return false
	}

	if status != http.StatusBadRequest && status != http.StatusUnprocessableEntity {
		return false
	}
	return strings.Contains(strings.ToLower(message), "dimensions")
}

// parseAPIError extracts a human-readable error from the API response.
// The result always wraps domain.ErrEmbeddingProviderError, which the
// HTTP layer reports as 500.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %v: %w", err, wrap)
}

// extractDetail reads the "detail" (FastAPI) or string "error" (TEI) field
// from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  any    `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	if s, ok := parsed.Error.(string); ok {
		return s
	}
	return ""
}
