// Package sync keeps the vector index consistent with the system of record.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vecsync/internal/domain"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/point"
	domsync "github.com/kailas-cloud/vecsync/internal/domain/sync"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// Defaults for bulk processing.
const (
	DefaultBulkConcurrency = 4
	DefaultMaxBulkItems    = 1000
)

// Operation labels for the sync items counter.
const (
	opUpsert     = "upsert"
	opDelete     = "delete"
	opBulkUpsert = "bulk_upsert"
)

// Command is a record as received from the system of record, not yet validated.
// DecodeErr carries a decoding failure found before the command reached the
// service; such a command is reported as failed without touching the index.
type Command struct {
	ID          point.ID
	Title       string
	Description string
	Metadata    value.Map
	DecodeErr   error
}

// Service upserts and deletes indexed points.
type Service struct {
	colls        CollectionReader
	points       PointWriter
	vectors      Vectorizer
	indexTimeout time.Duration
	concurrency  int
	maxBulkItems int
	itemsTotal   *prometheus.CounterVec
	logger       *zap.Logger
}

// New creates a sync service.
func New(colls CollectionReader, points PointWriter, vectors Vectorizer, logger *zap.Logger) *Service {
	return &Service{
		colls:        colls,
		points:       points,
		vectors:      vectors,
		concurrency:  DefaultBulkConcurrency,
		maxBulkItems: DefaultMaxBulkItems,
		logger:       logger,
	}
}

// WithIndexTimeout bounds every repository call. Zero disables the bound.
func (s *Service) WithIndexTimeout(d time.Duration) *Service {
	s.indexTimeout = d
	return s
}

// WithBulkConcurrency sets how many bulk items are processed in parallel.
func (s *Service) WithBulkConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// WithMaxBulkItems sets the largest accepted bulk request.
func (s *Service) WithMaxBulkItems(n int) *Service {
	if n > 0 {
		s.maxBulkItems = n
	}
	return s
}

// WithMetrics enables the {op,status} items counter.
func (s *Service) WithMetrics(itemsTotal *prometheus.CounterVec) *Service {
	s.itemsTotal = itemsTotal
	return s
}

// Upsert embeds a record and writes it to the collection, replacing any point with the same id.
func (s *Service) Upsert(ctx context.Context, collection string, cmd Command) error {
	err := s.upsert(ctx, collection, cmd)
	s.count(opUpsert, err)
	return err
}

// Delete removes a point. An absent point or collection is not an error.
func (s *Service) Delete(ctx context.Context, collection string, id point.ID) error {
	err := s.delete(ctx, collection, id)
	s.count(opDelete, err)
	return err
}

// BulkUpsert processes every item independently. A failing item never aborts
// the others; errors keep input order and name the item id.
func (s *Service) BulkUpsert(ctx context.Context, collection string, cmds []Command) (domsync.BulkResult, error) {
	if len(cmds) > s.maxBulkItems {
		return domsync.BulkResult{}, fmt.Errorf(
			"bulk request has %d items, limit is %d: %w", len(cmds), s.maxBulkItems, domain.ErrValidation)
	}

	results := make([]domsync.ItemResult, len(cmds))

	col, err := s.getCollection(ctx, collection)
	if err != nil {
		for i, cmd := range cmds {
			results[i] = domsync.NewError(cmd.ID, err)
			s.count(opBulkUpsert, err)
		}
		return s.summarize(collection, results), nil
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, cmd := range cmds {
		g.Go(func() error {
			err := s.upsertInto(ctx, col, cmd)
			s.count(opBulkUpsert, err)
			if err != nil {
				results[i] = domsync.NewError(cmd.ID, err)
				return nil
			}
			results[i] = domsync.NewOK(cmd.ID)
			return nil
		})
	}
	_ = g.Wait()

	return s.summarize(collection, results), nil
}

func (s *Service) upsert(ctx context.Context, collection string, cmd Command) error {
	col, err := s.getCollection(ctx, collection)
	if err != nil {
		return err
	}
	return s.upsertInto(ctx, col, cmd)
}

func (s *Service) upsertInto(ctx context.Context, col domcol.Collection, cmd Command) error {
	if cmd.DecodeErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, cmd.DecodeErr)
	}
	item, err := domsync.NewItem(cmd.ID, cmd.Title, cmd.Description, cmd.Metadata)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	vec, err := s.vectors.VectorForRecord(ctx, item.Title(), item.Description())
	if err != nil {
		return fmt.Errorf("vectorize: %w", err)
	}
	if len(vec) != col.VectorDim() {
		return fmt.Errorf("vector has %d dimensions, collection %s expects %d: %w",
			len(vec), col.Name(), col.VectorDim(), domain.ErrVectorDimMismatch)
	}

	p, err := point.New(item.ID(), vec, item.Payload())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	ictx, cancel := s.withIndexTimeout(ctx)
	defer cancel()
	if err := s.points.Upsert(ictx, col, p); err != nil {
		return fmt.Errorf("upsert point %s: %w", item.ID().String(), err)
	}
	return nil
}

func (s *Service) delete(ctx context.Context, collection string, id point.ID) error {
	if id.IsZero() {
		return fmt.Errorf("id is required: %w", domain.ErrValidation)
	}

	col, err := s.getCollection(ctx, collection)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("Delete on missing collection",
				zap.String("collection", collection), zap.String("id", id.String()))
			return nil
		}
		return err
	}

	ictx, cancel := s.withIndexTimeout(ctx)
	defer cancel()
	if err := s.points.Delete(ictx, col, id); err != nil {
		return fmt.Errorf("delete point %s: %w", id.String(), err)
	}
	return nil
}

func (s *Service) getCollection(ctx context.Context, name string) (domcol.Collection, error) {
	ictx, cancel := s.withIndexTimeout(ctx)
	defer cancel()
	col, err := s.colls.Get(ictx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection %s: %w", name, err)
	}
	return col, nil
}

func (s *Service) withIndexTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.indexTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.indexTimeout)
}

func (s *Service) summarize(collection string, results []domsync.ItemResult) domsync.BulkResult {
	br := domsync.Summarize(results)
	if br.Failed > 0 {
		s.logger.Warn("Bulk upsert finished with failures",
			zap.String("collection", collection),
			zap.Int("total", br.Total),
			zap.Int("failed", br.Failed),
			zap.Strings("errors", br.Errors),
		)
	}
	return br
}

func (s *Service) count(op string, err error) {
	if s.itemsTotal == nil {
		return
	}
	status := string(domsync.StatusOK)
	if err != nil {
		status = string(domsync.StatusError)
	}
	s.itemsTotal.WithLabelValues(op, status).Inc()
}
