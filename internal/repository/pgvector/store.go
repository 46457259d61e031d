package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	// Register the pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M              int
	EFConstruction int
}

// Store keeps collections in PostgreSQL with the pgvector extension.
// The registry table vector_collections holds metadata; every collection
// gets its own vec_<name> table with an HNSW cosine index.
type Store struct {
	db   *sql.DB
	hnsw HNSWConfig
}

// Open connects to PostgreSQL and creates the extension and registry table.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, hnsw: HNSWConfig{M: 16, EFConstruction: 64}}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// WithHNSW configures HNSW parameters for collections created afterwards.
func (s *Store) WithHNSW(cfg HNSWConfig) *Store {
	if cfg.M > 0 {
		s.hnsw.M = cfg.M
	}
	if cfg.EFConstruction > 0 {
		s.hnsw.EFConstruction = cfg.EFConstruction
	}
	return s
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS vector_collections (
			name TEXT PRIMARY KEY,
			vector_dim INTEGER NOT NULL,
			fields JSONB NOT NULL DEFAULT '[]',
			created_at BIGINT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() {
	_ = s.db.Close()
}

func tableName(collection string) string {
	return pgx.Identifier{"vec_" + collection}.Sanitize()
}

func indexName(collection string) string {
	return pgx.Identifier{"vec_" + collection + "_hnsw"}.Sanitize()
}
