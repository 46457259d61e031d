package pgvector

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecsync/internal/domain/search/filter"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// buildWhere compiles a filter expression into a parameterized JSONB predicate.
// Placeholders start at $first. Equality uses containment so the JSON type must
// match; range bounds only apply to JSON numbers.
func buildWhere(expr filter.Expression, first int) (string, []any) {
	if expr.IsEmpty() {
		return "TRUE", nil
	}

	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return placeholder(first + len(args) - 1)
	}

	for _, c := range expr.Conditions() {
		v := c.Value()
		if v.Kind() != value.KindRange {
			doc, _ := json.Marshal(map[string]value.Value{c.Key(): v})
			where = append(where, fmt.Sprintf("payload @> %s::jsonb", next(string(doc))))
			continue
		}

		key := next(c.Key())
		num := fmt.Sprintf(
			"(CASE WHEN jsonb_typeof(payload -> %s::text) = 'number' THEN (payload ->> %s::text)::double precision END)",
			key, key,
		)
		r := v.AsRange()
		if r.GT() != nil {
			where = append(where, fmt.Sprintf("%s > %s", num, next(*r.GT())))
		}
		if r.GTE() != nil {
			where = append(where, fmt.Sprintf("%s >= %s", num, next(*r.GTE())))
		}
		if r.LT() != nil {
			where = append(where, fmt.Sprintf("%s < %s", num, next(*r.LT())))
		}
		if r.LTE() != nil {
			where = append(where, fmt.Sprintf("%s <= %s", num, next(*r.LTE())))
		}
	}

	return strings.Join(where, " AND "), args
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
