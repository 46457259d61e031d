package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kailas-cloud/vecsync/internal/domain"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	dompoint "github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/search/filter"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
)

type space struct {
	col    domcol.Collection
	points map[string]dompoint.Point
}

// Store is an in-process vector store for development and testing.
// Queries are brute-force cosine over every point of the collection.
type Store struct {
	mu     sync.RWMutex
	spaces map[string]*space
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{spaces: make(map[string]*space)}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *Store) Close() {}

// Create registers a collection.
func (s *Store) Create(_ context.Context, col domcol.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spaces[col.Name()]; ok {
		return domain.ErrAlreadyExists
	}
	s.spaces[col.Name()] = &space{col: col, points: make(map[string]dompoint.Point)}
	return nil
}

// Get returns a collection by name.
func (s *Store) Get(_ context.Context, name string) (domcol.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.spaces[name]
	if !ok {
		return domcol.Collection{}, domain.ErrNotFound
	}
	return sp.col, nil
}

// Upsert stores a point, replacing any point with the same ID.
func (s *Store) Upsert(_ context.Context, col domcol.Collection, p dompoint.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spaces[col.Name()]
	if !ok {
		return domain.ErrNotFound
	}
	if len(p.Vector()) != sp.col.VectorDim() {
		return domain.ErrVectorDimMismatch
	}

	vec := make([]float32, len(p.Vector()))
	copy(vec, p.Vector())
	sp.points[p.ID().Key()] = dompoint.Reconstruct(p.ID(), vec, p.Payload())
	return nil
}

// Delete removes a point. Absent points are not an error.
func (s *Store) Delete(_ context.Context, col domcol.Collection, id dompoint.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spaces[col.Name()]
	if !ok {
		return domain.ErrNotFound
	}
	delete(sp.points, id.Key())
	return nil
}

// Query returns up to topK points matching expr, by descending score.
// Ties are broken by ID to keep results deterministic.
func (s *Store) Query(
	_ context.Context, col domcol.Collection,
	vector []float32, expr filter.Expression, topK int,
) ([]result.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.spaces[col.Name()]
	if !ok {
		return nil, domain.ErrNotFound
	}

	type hit struct {
		p     dompoint.Point
		score float64
	}
	hits := make([]hit, 0, len(sp.points))
	for _, p := range sp.points {
		if !expr.Matches(p.Payload()) {
			continue
		}
		hits = append(hits, hit{p: p, score: max(0, CosineSimilarity(vector, p.Vector()))})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].p.ID().String() < hits[j].p.ID().String()
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]result.Result, len(hits))
	for i, h := range hits {
		out[i] = result.New(h.p.ID(), h.score, h.p.Payload())
	}
	return out, nil
}

// Count returns the number of points in a collection.
func (s *Store) Count(_ context.Context, col domcol.Collection) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.spaces[col.Name()]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return len(sp.points), nil
}

// Sample returns up to limit points ordered by ID, without vectors.
func (s *Store) Sample(_ context.Context, col domcol.Collection, limit int) ([]dompoint.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.spaces[col.Name()]
	if !ok {
		return nil, domain.ErrNotFound
	}

	ids := make([]string, 0, len(sp.points))
	for id := range sp.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]dompoint.Point, len(ids))
	for i, id := range ids {
		p := sp.points[id]
		out[i] = dompoint.Reconstruct(p.ID(), nil, p.Payload())
	}
	return out, nil
}
