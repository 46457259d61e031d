package result

import (
	"github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// Result is a single search hit. Score is cosine similarity mapped to [0, 1].
type Result struct {
	id      point.ID
	score   float64
	payload value.Map
}

// New creates a search result.
func New(id point.ID, score float64, payload value.Map) Result {
	return Result{id: id, score: score, payload: payload}
}

// ID returns the point identifier.
func (r *Result) ID() point.ID { return r.id }

// Score returns the similarity score.
func (r *Result) Score() float64 { return r.score }

// Payload returns the stored payload.
func (r *Result) Payload() value.Map { return r.payload }
