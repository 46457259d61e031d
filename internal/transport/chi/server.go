package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/vecsync/internal/logger"
	collectionuc "github.com/kailas-cloud/vecsync/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/vecsync/internal/usecase/health"
	searchuc "github.com/kailas-cloud/vecsync/internal/usecase/search"
	syncuc "github.com/kailas-cloud/vecsync/internal/usecase/sync"
	"github.com/kailas-cloud/vecsync/internal/version"
)

// APIPrefix is the mount point of the versioned API.
const APIPrefix = "/api/v1"

// DefaultCollection is used when a sync request names no collection.
const DefaultCollection = "learning_paths"

const maxBodyBytes = 16 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the sync, search and diagnostic HTTP API.
type Server struct {
	collections   *collectionuc.Service
	sync          *syncuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	syncLimiter   *rate.Limiter
	searchLimits  request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	collections *collectionuc.Service,
	sync *syncuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		collections:  collections,
		sync:         sync,
		search:       search,
		health:       health,
		searchLimits: request.DefaultLimits(),
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrNotFound, http.StatusInternalServerError, codeCollectionNotFound),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, codeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusInternalServerError, codeEmbeddingProviderError),
	}
	return s
}

// WithSearchLimits sets the accepted top_k bounds.
func (s *Server) WithSearchLimits(lim request.Limits) *Server {
	s.searchLimits = lim
	return s
}

// WithSyncRateLimit limits the sync routes to rps requests per second with the given burst.
// A non-positive rps leaves them unlimited.
func (s *Server) WithSyncRateLimit(rps float64, burst int) *Server {
	if rps <= 0 {
		s.syncLimiter = nil
		return s
	}
	if burst <= 0 {
		burst = 1
	}
	s.syncLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	return s
}

// Register mounts all routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route(APIPrefix+"/search", func(r chi.Router) {
		r.Post("/", s.Search) // also serves POST /search through the mount
		r.Post("/embed", s.Embed)

		r.Route("/sync", func(r chi.Router) {
			r.Use(s.rateLimitMiddleware)
			r.Post("/", s.SyncItem)
			r.Post("/bulk", s.SyncBulk)
			r.Post("/delete", s.DeleteItem)
		})

		r.Post("/collections/init", s.InitCollection)
		r.Get("/collections/{collection}/debug", s.DebugCollection)
	})
}

// Handler returns a router with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Status:  "ok",
		Service: logpkg.ServiceName,
		Version: version.Version,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Service: logpkg.ServiceName,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.syncLimiter != nil && !s.syncLimiter.Allow() {
			s.handleDomainError(w, r, fmt.Errorf("sync: %w", domain.ErrRateLimited))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// decodeBody reads a JSON body. An empty body is a bad request.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "Invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, msg)
		return false
	}
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, err.Error())
}
