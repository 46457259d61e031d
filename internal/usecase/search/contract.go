package search

import (
	"context"

	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/search/filter"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
)

// Repository runs filtered similarity queries.
type Repository interface {
	Query(
		ctx context.Context, col domcol.Collection,
		vector []float32, expr filter.Expression, topK int,
	) ([]result.Result, error)
}

// CollectionReader resolves collections by name.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// Vectorizer embeds query text with the same model used for indexing.
type Vectorizer interface {
	GenerateVector(ctx context.Context, text string) ([]float32, error)
}
