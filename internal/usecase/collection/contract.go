package collection

import (
	"context"

	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/point"
)

// Repository defines the storage contract for collections.
type Repository interface {
	Create(ctx context.Context, col domcol.Collection) error
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// PointInspector reads diagnostic information about stored points.
type PointInspector interface {
	Count(ctx context.Context, col domcol.Collection) (int, error)
	Sample(ctx context.Context, col domcol.Collection, limit int) ([]point.Point, error)
}
