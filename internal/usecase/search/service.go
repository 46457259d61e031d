// Package search answers semantic queries over the synchronized collections.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/resource"
	"github.com/kailas-cloud/vecsync/internal/domain/search/request"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
)

// Degradation reasons, used as the metric label.
const (
	ReasonEmbedding  = "embedding"
	ReasonCollection = "collection"
	ReasonQuery      = "query"
)

// Response is a search answer. A degraded search has Total 0 and no results.
type Response struct {
	Query   string
	Total   int
	Results []result.Result
}

// Service resolves, embeds and queries. Failures past request validation
// degrade to an empty response instead of an error.
type Service struct {
	repo         Repository
	colls        CollectionReader
	vectors      Vectorizer
	resolver     resource.Resolver
	indexTimeout time.Duration
	requests     *prometheus.CounterVec
	degraded     *prometheus.CounterVec
	logger       *zap.Logger
}

// New creates a search service.
func New(
	repo Repository, colls CollectionReader, vectors Vectorizer,
	resolver resource.Resolver, logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		colls:    colls,
		vectors:  vectors,
		resolver: resolver,
		logger:   logger,
	}
}

// WithIndexTimeout bounds collection lookups and queries. Zero disables the bound.
func (s *Service) WithIndexTimeout(d time.Duration) *Service {
	s.indexTimeout = d
	return s
}

// WithMetrics enables request outcome and degradation counters.
func (s *Service) WithMetrics(requests, degraded *prometheus.CounterVec) *Service {
	s.requests = requests
	s.degraded = degraded
	return s
}

// CollectionFor resolves a resource type to its collection name.
func (s *Service) CollectionFor(resourceType string) (string, error) {
	name, err := s.resolver.Resolve(resourceType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return name, nil
}

// Search runs a validated request. Only an unknown resource type is returned as an error.
func (s *Service) Search(ctx context.Context, req request.Request) (Response, error) {
	colName, err := s.CollectionFor(req.ResourceType())
	if err != nil {
		return Response{}, err
	}

	empty := Response{Query: req.Query(), Results: []result.Result{}}

	vec, err := s.vectors.GenerateVector(ctx, req.Query())
	if err != nil {
		s.degrade(ctx, ReasonEmbedding, req.Query(), colName, err)
		return empty, nil
	}

	ictx, cancel := s.withIndexTimeout(ctx)
	col, err := s.colls.Get(ictx, colName)
	cancel()
	if err != nil {
		s.degrade(ctx, ReasonCollection, req.Query(), colName, err)
		return empty, nil
	}

	ictx, cancel = s.withIndexTimeout(ctx)
	results, err := s.repo.Query(ictx, col, vec, req.Filters(), req.TopK())
	cancel()
	if err != nil {
		s.degrade(ctx, ReasonQuery, req.Query(), colName, err)
		return empty, nil
	}
	if results == nil {
		results = []result.Result{}
	}

	s.countRequest("ok")
	return Response{Query: req.Query(), Total: len(results), Results: results}, nil
}

// Embed returns the query embedding for text. Errors are propagated.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vectors.GenerateVector(ctx, text)
}

func (s *Service) degrade(ctx context.Context, reason, query, collection string, err error) {
	s.logger.Error("Search degraded to empty result",
		zap.String("reason", reason),
		zap.String("error_class", errorClass(ctx, err)),
		zap.String("query", query),
		zap.String("collection", collection),
		zap.Error(err),
	)
	if s.degraded != nil {
		s.degraded.WithLabelValues(reason).Inc()
	}
	s.countRequest("degraded")
}

func (s *Service) countRequest(outcome string) {
	if s.requests != nil {
		s.requests.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) withIndexTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.indexTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.indexTimeout)
}

func errorClass(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return "canceled"
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return "embedding_provider_error"
	case errors.Is(err, domain.ErrNotFound):
		return "collection_not_found"
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return "vector_dim_mismatch"
	default:
		return "index_backend_error"
	}
}
