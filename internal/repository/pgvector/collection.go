package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/domain"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/collection/field"
)

type fieldRow struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Create registers a collection and creates its table and HNSW index in one transaction.
func (s *Store) Create(ctx context.Context, col domcol.Collection) error {
	rows := make([]fieldRow, len(col.Fields()))
	for i, f := range col.Fields() {
		rows[i] = fieldRow{Name: f.Name(), Type: string(f.FieldType())}
	}
	fieldsJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO vector_collections (name, vector_dim, fields, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
	`, col.Name(), col.VectorDim(), string(fieldsJSON), col.CreatedAt())
	if err != nil {
		return fmt.Errorf("insert collection %s: %w", col.Name(), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAlreadyExists
	}

	for _, stmt := range createTableStatements(col.Name(), col.VectorDim(), s.hnsw) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table for %s: %w", col.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit collection %s: %w", col.Name(), err)
	}
	return nil
}

// Get returns a collection by name.
func (s *Store) Get(ctx context.Context, name string) (domcol.Collection, error) {
	var (
		vectorDim  int
		fieldsJSON []byte
		createdAt  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT vector_dim, fields, created_at FROM vector_collections WHERE name = $1`, name,
	).Scan(&vectorDim, &fieldsJSON, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domcol.Collection{}, domain.ErrNotFound
		}
		return domcol.Collection{}, fmt.Errorf("select collection %s: %w", name, err)
	}

	var rows []fieldRow
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &rows); err != nil {
			return domcol.Collection{}, fmt.Errorf("unmarshal fields: %w", err)
		}
	}
	fields := make([]field.Field, len(rows))
	for i, r := range rows {
		fields[i] = field.Reconstruct(r.Name, field.Type(r.Type))
	}

	return domcol.Reconstruct(name, fields, vectorDim, createdAt), nil
}

func createTableStatements(collection string, vectorDim int, hnsw HNSWConfig) []string {
	table := tableName(collection)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			raw_id JSONB NOT NULL,
			embedding vector(%d) NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}'
		)`, table, vectorDim),
		fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d)`,
			indexName(collection), table, hnsw.M, hnsw.EFConstruction,
		),
	}
}
