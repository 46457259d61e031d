// Package filter models a conjunction of metadata conditions applied before ranking.
package filter

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// MaxConditions is the maximum number of conditions in one expression.
const MaxConditions = 32

// Expression is an AND of conditions. The zero value means "no filter".
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(conditions []Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{conditions: conditions}, nil
}

// Compile turns a key/value filter map into an Expression.
// Range values become range conditions, scalars become equality conditions.
// Keys are sorted so the output is deterministic.
func Compile(filters value.Map) (Expression, error) {
	if len(filters) == 0 {
		return Expression{}, nil
	}
	if len(filters) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		c, err := NewCondition(k, filters[k])
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	return Expression{conditions: conds}, nil
}

// Conditions returns the conditions in evaluation order.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Matches evaluates the expression against a stored payload.
func (e Expression) Matches(payload value.Map) bool {
	for _, c := range e.conditions {
		if !c.Matches(payload) {
			return false
		}
	}
	return true
}

// Condition is a single clause: equality on a scalar or a numeric range.
type Condition struct {
	key string
	val value.Value
}

// NewCondition validates and creates a Condition.
func NewCondition(key string, v value.Value) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if v.Kind() == value.KindInvalid {
		return Condition{}, fmt.Errorf("filter value is required for key %q", key)
	}
	return Condition{key: key, val: v}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Value returns the scalar to match or the range to test.
func (c Condition) Value() value.Value { return c.val }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.val.Kind() == value.KindRange }

// Matches reports whether payload satisfies the condition.
// A missing key or a type mismatch never matches.
func (c Condition) Matches(payload value.Map) bool {
	stored, ok := payload[c.key]
	if !ok {
		return false
	}
	if c.IsRange() {
		return stored.Kind() == value.KindNumber && c.val.AsRange().Contains(stored.AsNumber())
	}
	return stored.Equal(c.val)
}
