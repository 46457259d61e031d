package value

import "fmt"

// Range is a numeric interval with optional gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRange validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRange(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Contains reports whether x satisfies every bound.
func (r Range) Contains(x float64) bool {
	if r.gt != nil && x <= *r.gt {
		return false
	}
	if r.gte != nil && x < *r.gte {
		return false
	}
	if r.lt != nil && x >= *r.lt {
		return false
	}
	if r.lte != nil && x > *r.lte {
		return false
	}
	return true
}

func (r Range) bounds() map[string]float64 {
	m := make(map[string]float64, 2)
	if r.gt != nil {
		m["gt"] = *r.gt
	}
	if r.gte != nil {
		m["gte"] = *r.gte
	}
	if r.lt != nil {
		m["lt"] = *r.lt
	}
	if r.lte != nil {
		m["lte"] = *r.lte
	}
	return m
}
