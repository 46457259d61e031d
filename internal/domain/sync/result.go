package sync

import (
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/domain/point"
)

// ItemStatus is the processing outcome of a single bulk item.
type ItemStatus string

// Bulk item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// ItemResult is the outcome of processing one item in a bulk operation.
type ItemResult struct {
	id     point.ID
	status ItemStatus
	err    error
}

// NewOK creates a successful item result.
func NewOK(id point.ID) ItemResult { return ItemResult{id: id, status: StatusOK} }

// NewError creates a failed item result.
func NewError(id point.ID, err error) ItemResult {
	return ItemResult{id: id, status: StatusError, err: err}
}

// ID returns the item identifier.
func (r ItemResult) ID() point.ID { return r.id }

// Status returns the processing outcome.
func (r ItemResult) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r ItemResult) Err() error { return r.err }

// BulkResult aggregates item results. Errors keep input order.
type BulkResult struct {
	Total     int
	Succeeded int
	Failed    int
	Errors    []string
}

// Summarize folds ordered item results into a BulkResult.
func Summarize(results []ItemResult) BulkResult {
	br := BulkResult{Total: len(results), Errors: []string{}}
	for _, r := range results {
		if r.status == StatusOK {
			br.Succeeded++
			continue
		}
		br.Failed++
		br.Errors = append(br.Errors, fmt.Sprintf("item %s: %v", r.id.String(), r.err))
	}
	return br
}

// Success reports whether no item failed.
func (b BulkResult) Success() bool { return b.Failed == 0 }
