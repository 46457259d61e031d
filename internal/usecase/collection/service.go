package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/collection/field"
	"github.com/kailas-cloud/vecsync/internal/domain/point"
)

// SampleLimit is the number of points returned by Describe.
const SampleLimit = 10

// Definition is the configured shape of a named collection.
type Definition struct {
	VectorSize int
	Fields     []field.Field
}

// VectorsConfig describes the vector space of a collection.
type VectorsConfig struct {
	Size      int
	Distance  string
	Algorithm string
}

// Description is the diagnostic view of a collection.
type Description struct {
	Name          string
	PointsCount   int
	Vectors       VectorsConfig
	SamplePoints  []point.Point
	TotalScrolled int
}

// Service manages collection lifecycle.
type Service struct {
	repo        Repository
	points      PointInspector
	definitions  map[string]Definition
	vectorDim    int
	indexTimeout time.Duration
	logger       *zap.Logger
}

// New creates a collection service. vectorDim is used when a caller or a
// definition leaves the size unset.
func New(
	repo Repository, points PointInspector,
	definitions map[string]Definition, vectorDim int, logger *zap.Logger,
) *Service {
	return &Service{
		repo:        repo,
		points:      points,
		definitions: definitions,
		vectorDim:   vectorDim,
		logger:      logger,
	}
}

// WithIndexTimeout bounds every index call. Zero disables the bound.
func (s *Service) WithIndexTimeout(d time.Duration) *Service {
	s.indexTimeout = d
	return s
}

// Ensure creates the collection if it is absent. Returns true when it was created.
// An existing collection is accepted as is; a differing size is only logged.
func (s *Service) Ensure(ctx context.Context, name string, vectorSize int) (bool, error) {
	if vectorSize <= 0 {
		vectorSize = s.vectorDim
	}

	col, err := domcol.New(name, s.definitions[name].Fields, vectorSize)
	if err != nil {
		return false, fmt.Errorf("validate collection: %w: %w", domain.ErrInvalidSchema, err)
	}

	ictx, cancel := s.withIndexTimeout(ctx)
	err = s.repo.Create(ictx, col)
	cancel()
	switch {
	case err == nil:
		s.logger.Info("Collection created",
			zap.String("collection", name),
			zap.Int("vector_size", vectorSize),
		)
		return true, nil
	case errors.Is(err, domain.ErrAlreadyExists):
		s.warnOnSizeMismatch(ctx, name, vectorSize)
		return false, nil
	default:
		return false, fmt.Errorf("create collection %s: %w", name, err)
	}
}

func (s *Service) warnOnSizeMismatch(ctx context.Context, name string, vectorSize int) {
	existing, err := s.Get(ctx, name)
	if err != nil {
		s.logger.Warn("Failed to read existing collection", zap.String("collection", name), zap.Error(err))
		return
	}
	if existing.VectorDim() != vectorSize {
		s.logger.Warn("Existing collection has a different vector size",
			zap.String("collection", name),
			zap.Int("existing", existing.VectorDim()),
			zap.Int("requested", vectorSize),
		)
	}
}

// EnsureConfigured ensures every configured collection exists.
func (s *Service) EnsureConfigured(ctx context.Context) error {
	names := make([]string, 0, len(s.definitions))
	for name := range s.definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if _, err := s.Ensure(ctx, name, s.definitions[name].VectorSize); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get retrieves a collection by name.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	ictx, cancel := s.withIndexTimeout(ctx)
	defer cancel()
	col, err := s.repo.Get(ictx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection %s: %w", name, err)
	}
	return col, nil
}

// Describe returns point count, vector settings and a small sample.
func (s *Service) Describe(ctx context.Context, name string) (Description, error) {
	col, err := s.Get(ctx, name)
	if err != nil {
		return Description{}, err
	}

	ictx, cancel := s.withIndexTimeout(ctx)
	defer cancel()
	count, err := s.points.Count(ictx, col)
	if err != nil {
		return Description{}, fmt.Errorf("count points: %w", err)
	}
	sample, err := s.points.Sample(ictx, col, SampleLimit)
	if err != nil {
		return Description{}, fmt.Errorf("sample points: %w", err)
	}

	return Description{
		Name:        col.Name(),
		PointsCount: count,
		Vectors: VectorsConfig{
			Size:      col.VectorDim(),
			Distance:  domcol.Distance,
			Algorithm: domcol.Algorithm,
		},
		SamplePoints:  sample,
		TotalScrolled: len(sample),
	}, nil
}

func (s *Service) withIndexTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.indexTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.indexTimeout)
}
