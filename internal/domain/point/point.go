// Package point holds the unit stored in a vector index.
package point

import (
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// Point is an indexed vector with its payload (immutable value object).
type Point struct {
	id      ID
	vector  []float32
	payload value.Map
}

// New validates and creates a Point.
func New(id ID, vector []float32, payload value.Map) (Point, error) {
	if id.IsZero() {
		return Point{}, fmt.Errorf("point id is required")
	}
	if len(vector) == 0 {
		return Point{}, fmt.Errorf("point vector is required")
	}
	if payload == nil {
		payload = value.Map{}
	}
	return Point{id: id, vector: vector, payload: payload}, nil
}

// Reconstruct creates a Point without validation (storage hydration).
func Reconstruct(id ID, vector []float32, payload value.Map) Point {
	return Point{id: id, vector: vector, payload: payload}
}

// ID returns the point identifier.
func (p Point) ID() ID { return p.id }

// Vector returns the embedding.
func (p Point) Vector() []float32 { return p.vector }

// Payload returns the stored payload.
func (p Point) Payload() value.Map { return p.payload }
