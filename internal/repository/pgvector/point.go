package pgvector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/vecsync/internal/domain"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	dompoint "github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/search/filter"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// Upsert inserts or replaces the point with the same ID.
func (s *Store) Upsert(ctx context.Context, col domcol.Collection, p dompoint.Point) error {
	if len(p.Vector()) != col.VectorDim() {
		return domain.ErrVectorDimMismatch
	}

	rawID, err := json.Marshal(p.ID())
	if err != nil {
		return fmt.Errorf("marshal id: %w", err)
	}
	payload, err := json.Marshal(p.Payload())
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, raw_id, embedding, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			raw_id = EXCLUDED.raw_id,
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload
	`, tableName(col.Name()))

	_, err = s.db.ExecContext(ctx, stmt,
		p.ID().Key(), string(rawID), pgvector.NewVector(p.Vector()), string(payload),
	)
	if err != nil {
		return fmt.Errorf("upsert point %s: %w", p.ID(), err)
	}
	return nil
}

// Delete removes a point. Absent points are not an error.
func (s *Store) Delete(ctx context.Context, col domcol.Collection, id dompoint.ID) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tableName(col.Name()))
	if _, err := s.db.ExecContext(ctx, stmt, id.Key()); err != nil {
		return fmt.Errorf("delete point %s: %w", id, err)
	}
	return nil
}

// Query returns up to topK points matching expr, ordered by cosine distance.
func (s *Store) Query(
	ctx context.Context, col domcol.Collection,
	vector []float32, expr filter.Expression, topK int,
) ([]result.Result, error) {
	where, args := buildWhere(expr, 2)
	args = append([]any{pgvector.NewVector(vector)}, args...)
	args = append(args, topK)

	query := fmt.Sprintf(`
		SELECT raw_id, payload, embedding <=> $1 AS distance
		FROM %s
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT %s
	`, tableName(col.Name()), where, placeholder(len(args)))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", col.Name(), err)
	}
	defer rows.Close()

	var results []result.Result
	for rows.Next() {
		var (
			rawID, payloadJSON []byte
			distance           float64
		)
		if err := rows.Scan(&rawID, &payloadJSON, &distance); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		id, payload, err := decodeRow(rawID, payloadJSON)
		if err != nil {
			return nil, err
		}
		results = append(results, result.New(id, max(0, 1-distance), payload))
	}
	return results, rows.Err()
}

// Count returns the number of points in a collection.
func (s *Store) Count(ctx context.Context, col domcol.Collection) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, tableName(col.Name()))
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", col.Name(), err)
	}
	return n, nil
}

// Sample returns up to limit points ordered by ID, without vectors.
func (s *Store) Sample(ctx context.Context, col domcol.Collection, limit int) ([]dompoint.Point, error) {
	query := fmt.Sprintf(`SELECT raw_id, payload FROM %s ORDER BY id LIMIT $1`, tableName(col.Name()))
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", col.Name(), err)
	}
	defer rows.Close()

	var points []dompoint.Point
	for rows.Next() {
		var rawID, payloadJSON []byte
		if err := rows.Scan(&rawID, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		id, payload, err := decodeRow(rawID, payloadJSON)
		if err != nil {
			return nil, err
		}
		points = append(points, dompoint.Reconstruct(id, nil, payload))
	}
	return points, rows.Err()
}

func decodeRow(rawID, payloadJSON []byte) (dompoint.ID, value.Map, error) {
	var id dompoint.ID
	if err := json.Unmarshal(rawID, &id); err != nil {
		return dompoint.ID{}, nil, fmt.Errorf("unmarshal id: %w", err)
	}
	payload := value.Map{}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &payload); err != nil {
			return dompoint.ID{}, nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	return id, payload, nil
}
