package sync

import (
	"context"
	"errors"
	"hash/fnv"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/collection/field"
	"github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

const testDim = 4

// --- Mocks ---

type mockColls struct {
	col   domcol.Collection
	err   error
	getFn func(ctx context.Context)
}

func (m *mockColls) Get(ctx context.Context, _ string) (domcol.Collection, error) {
	if m.getFn != nil {
		m.getFn(ctx)
	}
	return m.col, m.err
}

type mockPoints struct {
	mu          gosync.Mutex
	upserted    []point.Point
	deleted     []point.ID
	upsertErr   error
	deleteErr   error
	upsertFn    func(p point.Point) error
	upsertCtxFn func(ctx context.Context)
}

func (m *mockPoints) Upsert(ctx context.Context, _ domcol.Collection, p point.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertCtxFn != nil {
		m.upsertCtxFn(ctx)
	}
	if m.upsertFn != nil {
		if err := m.upsertFn(p); err != nil {
			return err
		}
	}
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, p)
	return nil
}

func (m *mockPoints) Delete(_ context.Context, _ domcol.Collection, id point.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

var errProvider = errors.New("provider down")

// fakeVectorizer derives a deterministic unit-ish vector from the text.
// Titles listed in failOn produce an embedding error.
type fakeVectorizer struct {
	dim    int
	failOn map[string]bool
	calls  int
	mu     gosync.Mutex
}

func (f *fakeVectorizer) VectorForRecord(_ context.Context, title, description string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn[title] {
		return nil, errors.Join(domain.ErrEmbeddingProviderError, errProvider)
	}
	dim := f.dim
	if dim == 0 {
		dim = testDim
	}
	return textVector(title+"|"+description, dim), nil
}

func textVector(text string, dim int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	vec := make([]float32, dim)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed>>40)/float32(1<<24) + 0.01
	}
	return vec
}

func testCollection() domcol.Collection {
	return domcol.Reconstruct("learning_paths", []field.Field{
		field.Reconstruct("level", field.Tag),
	}, testDim, 0)
}

func newTestService(colls CollectionReader, points PointWriter, vec Vectorizer) *Service {
	return New(colls, points, vec, zap.NewNop())
}

func cmd(id int64, title string, meta value.Map) Command {
	return Command{ID: point.IntID(id), Title: title, Description: title + " description", Metadata: meta}
}
