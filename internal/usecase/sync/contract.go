package sync

import (
	"context"

	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/point"
)

// CollectionReader resolves collections by name.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// PointWriter stores and removes indexed points.
type PointWriter interface {
	Upsert(ctx context.Context, col domcol.Collection, p point.Point) error
	Delete(ctx context.Context, col domcol.Collection, id point.ID) error
}

// Vectorizer turns record text into an embedding vector.
type Vectorizer interface {
	VectorForRecord(ctx context.Context, title, description string) ([]float32, error)
}
