package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/config"
	"github.com/kailas-cloud/vecsync/internal/db"
	dbRedis "github.com/kailas-cloud/vecsync/internal/db/redis"
	dbValkey "github.com/kailas-cloud/vecsync/internal/db/valkey"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/search/filter"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
	collectionrepo "github.com/kailas-cloud/vecsync/internal/repository/collection"
	"github.com/kailas-cloud/vecsync/internal/repository/memory"
	"github.com/kailas-cloud/vecsync/internal/repository/pgvector"
	pointrepo "github.com/kailas-cloud/vecsync/internal/repository/point"
)

// collectionStore is what every backend offers for collection metadata.
type collectionStore interface {
	Create(ctx context.Context, col domcol.Collection) error
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// pointStore is what every backend offers for indexed points.
type pointStore interface {
	Upsert(ctx context.Context, col domcol.Collection, p point.Point) error
	Delete(ctx context.Context, col domcol.Collection, id point.ID) error
	Query(
		ctx context.Context, col domcol.Collection,
		vector []float32, expr filter.Expression, topK int,
	) ([]result.Result, error)
	Count(ctx context.Context, col domcol.Collection) (int, error)
	Sample(ctx context.Context, col domcol.Collection, limit int) ([]point.Point, error)
}

// backend bundles the vector index selected by database.driver.
// kv is set only for drivers that can cache embeddings.
type backend struct {
	collections collectionStore
	points      pointStore
	pinger      db.Pinger
	kv          db.KVStore
	close       func()
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		return openKeyValue(ctx, cfg, logger)
	case config.DriverPostgres:
		store, err := pgvector.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		store.WithHNSW(pgvector.HNSWConfig{
			M:              cfg.Index.HNSWM,
			EFConstruction: cfg.Index.HNSWEFConstruct,
		})
		return &backend{
			collections: store,
			points:      store,
			pinger:      store,
			close:       store.Close,
		}, nil
	case config.DriverMemory:
		logger.Warn("Using the in-memory vector store; data is lost on restart")
		store := memory.New()
		return &backend{
			collections: store,
			points:      store,
			pinger:      store,
			close:       store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func openKeyValue(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	var (
		store db.Store
		err   error
	)
	if cfg.Database.Driver == config.DriverValkey {
		store, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	} else {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	collRepo := collectionrepo.New(store).WithHNSW(collectionrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	return &backend{
		collections: collRepo,
		points:      pointrepo.New(store),
		pinger:      store,
		kv:          store,
		close:       store.Close,
	}, nil
}
