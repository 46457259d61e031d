package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/config"
	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/collection/field"
	"github.com/kailas-cloud/vecsync/internal/domain/resource"
	"github.com/kailas-cloud/vecsync/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/vecsync/internal/logger"
	"github.com/kailas-cloud/vecsync/internal/metrics"
	"github.com/kailas-cloud/vecsync/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/vecsync/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/vecsync/internal/transport/openai"
	collectionuc "github.com/kailas-cloud/vecsync/internal/usecase/collection"
	embeddinguc "github.com/kailas-cloud/vecsync/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vecsync/internal/usecase/health"
	searchuc "github.com/kailas-cloud/vecsync/internal/usecase/search"
	syncuc "github.com/kailas-cloud/vecsync/internal/usecase/sync"
	"github.com/kailas-cloud/vecsync/internal/version"
)

const embeddingProvider = "openai-compatible"

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecsync API server",
		zap.String("version", version.String()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Storage keys are namespaced before any repository is built.
	domain.KeyPrefix = cfg.Storage.KeyPrefix

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterServiceMetrics()

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open vector backend", zap.Error(err))
	}
	defer be.close()

	// Embedding chain: OpenAI-compatible -> Cached -> Instrumented -> Record
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	vectors := embeddinguc.NewRecordEmbedder(
		buildEmbedder(base, be.kv, cfg.Embedding, logger),
		cfg.Timeouts.Embedding(),
	)
	logger.Info("Embedder created",
		zap.String("base_url", cfg.Embedding.BaseURL),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", be.kv != nil),
	)

	definitions, err := collectionDefinitions(cfg.Collections)
	if err != nil {
		logger.Fatal("Invalid collection definitions", zap.Error(err))
	}
	resolver, err := resource.NewResolver(cfg.Search.ResourceTypes, cfg.Search.DefaultResourceType)
	if err != nil {
		logger.Fatal("Invalid resource type mapping", zap.Error(err))
	}

	// Use case services
	collSvc := collectionuc.New(be.collections, be.points, definitions, cfg.Embedding.Dimensions, logger).
		WithIndexTimeout(cfg.Timeouts.Index())
	syncSvc := syncuc.New(be.collections, be.points, vectors, logger).
		WithIndexTimeout(cfg.Timeouts.Index()).
		WithBulkConcurrency(cfg.Sync.BulkConcurrency).
		WithMaxBulkItems(cfg.Sync.MaxBulkItems).
		WithMetrics(metrics.SyncItemsTotal)
	searchSvc := searchuc.New(be.points, be.collections, vectors, resolver, logger).
		WithIndexTimeout(cfg.Timeouts.Index()).
		WithMetrics(metrics.SearchRequestsTotal, metrics.SearchDegradedTotal)

	// Pass nil interface (not typed nil pointer!) when the LLM is not configured.
	var llmChecker healthuc.Checker
	if llm := openaiTransport.NewLLMClient(openaiTransport.LLMConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	}); llm != nil {
		llmChecker = llm
	}
	healthSvc := healthuc.New(be.pinger, base, llmChecker, logger)

	if cfg.Collections.AutoCreate {
		if err := collSvc.EnsureConfigured(ctx); err != nil {
			logger.Error("Failed to ensure configured collections", zap.Error(err))
		}
	}

	server := chiTransport.NewServer(collSvc, syncSvc, searchSvc, healthSvc, logger).
		WithSearchLimits(request.Limits{DefaultTopK: cfg.Search.DefaultTopK, MaxTopK: cfg.Search.MaxTopK}).
		WithSyncRateLimit(cfg.HTTP.SyncRateLimitRPS, cfg.HTTP.SyncRateLimitBurst)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain around the base provider.
// The cache is skipped when the backend has no key-value store.
func buildEmbedder(
	base domain.Embedder,
	kv db.KVStore,
	cfg config.EmbeddingConfig,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if kv != nil {
		embedder = embcache.New(base, kv, metrics.EmbeddingCacheTotal, logger).
			WithModel(cfg.Model, cfg.Dimensions).
			WithTTL(time.Duration(cfg.CacheTTLSec) * time.Second)
	}
	return embeddinguc.NewInstrumentedEmbedder(embedder, embeddingProvider, cfg.Model, logger)
}

func collectionDefinitions(cfg config.CollectionsConfig) (map[string]collectionuc.Definition, error) {
	defs := make(map[string]collectionuc.Definition, len(cfg.Definitions))
	for name, def := range cfg.Definitions {
		fields := make([]field.Field, len(def.Fields))
		for i, f := range def.Fields {
			fld, err := field.New(f.Name, field.Type(f.Type))
			if err != nil {
				return nil, fmt.Errorf("collection %s field %q: %w", name, f.Name, err)
			}
			fields[i] = fld
		}
		defs[name] = collectionuc.Definition{VectorSize: def.VectorSize, Fields: fields}
	}
	return defs, nil
}
