package point

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/collection/field"
	dompoint "github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/search/filter"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// store is the consumer interface for points (ISP).
type store interface {
	HReplace(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo stores points as hashes under the collection prefix and queries them via FT.SEARCH KNN.
type Repo struct {
	store store
}

// New creates a point repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert replaces the point with the same ID.
func (r *Repo) Upsert(ctx context.Context, col domcol.Collection, p dompoint.Point) error {
	fields, err := pointToHash(col, p)
	if err != nil {
		return err
	}

	key := pointKey(col.Name(), p.ID().Key())
	if err := r.store.HReplace(ctx, key, fields); err != nil {
		return fmt.Errorf("hreplace %s: %w", key, err)
	}
	return nil
}

// Delete removes a point. Absent points are not an error.
func (r *Repo) Delete(ctx context.Context, col domcol.Collection, id dompoint.ID) error {
	key := pointKey(col.Name(), id.Key())
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Candidate window used when part of the filter is checked against the payload.
const (
	payloadFilterFactor = 10
	payloadFilterMinK   = 100
	payloadFilterMaxK   = 1000
)

// Query runs a filtered KNN search and returns hits by descending score.
// Conditions the index can evaluate are pushed into FT.SEARCH; the rest are
// checked against the stored payload over a wider candidate window.
func (r *Repo) Query(
	ctx context.Context, col domcol.Collection,
	vector []float32, expr filter.Expression, topK int,
) ([]result.Result, error) {
	indexed, numeric, partial, err := splitFilter(col, expr)
	if err != nil {
		return nil, err
	}

	k := topK
	if partial {
		k = min(max(topK*payloadFilterFactor, payloadFilterMinK), payloadFilterMaxK)
	}

	q := &db.KNNQuery{
		IndexName:     indexName(col.Name()),
		Filters:       indexed,
		NumericFields: numeric,
		Vector:        vector,
		K:             k,
		ReturnFields:  []string{fieldID, fieldPayload, "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", col.Name(), err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	results := make([]result.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id, payload, err := decodeEntry(entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", entry.Key, err)
		}
		if !expr.Matches(payload) {
			continue
		}
		results = append(results, result.New(id, entry.Score, payload))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of points in a collection.
func (r *Repo) Count(ctx context.Context, col domcol.Collection) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(col.Name()), "*")
	if err != nil {
		return 0, fmt.Errorf("search count %s: %w", col.Name(), err)
	}
	return n, nil
}

// Sample returns up to limit points without their vectors.
func (r *Repo) Sample(ctx context.Context, col domcol.Collection, limit int) ([]dompoint.Point, error) {
	sr, err := r.store.SearchList(ctx, indexName(col.Name()), "*", 0, limit, []string{fieldID, fieldPayload})
	if err != nil {
		return nil, fmt.Errorf("search list %s: %w", col.Name(), err)
	}
	if sr == nil {
		return nil, nil
	}

	points := make([]dompoint.Point, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id, payload, err := decodeEntry(entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode point %s: %w", entry.Key, err)
		}
		points = append(points, dompoint.Reconstruct(id, nil, payload))
	}
	return points, nil
}

// splitFilter picks the conditions FT.SEARCH can evaluate: declared tag fields
// with a scalar, declared numeric fields with a number or range. numeric names
// the indexed keys stored as NUMERIC. partial is true when some condition is
// left for the payload check.
func splitFilter(
	col domcol.Collection, expr filter.Expression,
) (indexed filter.Expression, numeric map[string]bool, partial bool, err error) {
	numeric = make(map[string]bool)
	conds := make([]filter.Condition, 0, len(expr.Conditions()))
	for _, c := range expr.Conditions() {
		if !indexable(col, c) {
			partial = true
			continue
		}
		if f, _ := col.FieldByName(c.Key()); f.FieldType() == field.Numeric {
			numeric[c.Key()] = true
		}
		conds = append(conds, c)
	}

	indexed, err = filter.NewExpression(conds)
	if err != nil {
		return filter.Expression{}, nil, false, fmt.Errorf("index filter: %w", err)
	}
	return indexed, numeric, partial, nil
}

func indexable(col domcol.Collection, c filter.Condition) bool {
	f, ok := col.FieldByName(c.Key())
	if !ok {
		return false
	}
	switch f.FieldType() {
	case field.Tag:
		return c.Value().IsScalar()
	case field.Numeric:
		k := c.Value().Kind()
		return k == value.KindNumber || k == value.KindRange
	default:
		return false
	}
}

func pointKey(collection, id string) string {
	return fmt.Sprintf("%s%s:%s", domain.KeyPrefix, collection, id)
}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}
