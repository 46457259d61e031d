package filter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

func floatPtr(f float64) *float64 { return &f }

func mustRange(t *testing.T, gt, gte, lt, lte *float64) value.Value {
	t.Helper()
	r, err := value.NewRange(gt, gte, lt, lte)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return value.FromRange(r)
}

func TestCompile_Empty(t *testing.T) {
	for _, in := range []value.Map{nil, {}} {
		expr, err := Compile(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !expr.IsEmpty() {
			t.Errorf("expected empty expression, got %d conditions", len(expr.Conditions()))
		}
	}
}

func TestCompile_SortedAndTyped(t *testing.T) {
	expr, err := Compile(value.Map{
		"level":      value.String("beginner"),
		"duration":   mustRange(t, nil, floatPtr(2), nil, floatPtr(4)),
		"is_public":  value.Bool(true),
		"creator_id": value.Number(5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conds := expr.Conditions()
	wantKeys := []string{"creator_id", "duration", "is_public", "level"}
	if len(conds) != len(wantKeys) {
		t.Fatalf("got %d conditions, want %d", len(conds), len(wantKeys))
	}
	for i, k := range wantKeys {
		if conds[i].Key() != k {
			t.Errorf("conds[%d].Key() = %q, want %q", i, conds[i].Key(), k)
		}
	}
	if !conds[1].IsRange() {
		t.Error("duration should compile to a range condition")
	}
	if conds[3].IsRange() || conds[3].Value().AsString() != "beginner" {
		t.Errorf("level should compile to equality on beginner, got %+v", conds[3].Value())
	}
}

func TestCompile_EmptyKey(t *testing.T) {
	_, err := Compile(value.Map{"": value.String("x")})
	if err == nil || !strings.Contains(err.Error(), "key is required") {
		t.Errorf("error = %v, want 'key is required'", err)
	}
}

func TestCompile_TooMany(t *testing.T) {
	m := value.Map{}
	for i := 0; i <= MaxConditions; i++ {
		m[fmt.Sprintf("k%d", i)] = value.Number(float64(i))
	}
	_, err := Compile(m)
	if err == nil || !strings.Contains(err.Error(), "too many") {
		t.Errorf("error = %v, want 'too many'", err)
	}
}

func TestNewExpression_TooMany(t *testing.T) {
	conds := make([]Condition, MaxConditions+1)
	if _, err := NewExpression(conds); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewExpression(conds[:MaxConditions]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewCondition_InvalidValue(t *testing.T) {
	if _, err := NewCondition("k", value.Value{}); err == nil {
		t.Fatal("expected error for invalid value")
	}
}

func TestExpression_Matches(t *testing.T) {
	payload := value.Map{
		"level":    value.String("beginner"),
		"duration": value.Number(3),
		"public":   value.Bool(true),
	}

	tests := []struct {
		name    string
		filters value.Map
		want    bool
	}{
		{"no filter", nil, true},
		{"tag hit", value.Map{"level": value.String("beginner")}, true},
		{"tag miss", value.Map{"level": value.String("advanced")}, false},
		{"bool hit", value.Map{"public": value.Bool(true)}, true},
		{"number equality", value.Map{"duration": value.Number(3)}, true},
		{"type mismatch", value.Map{"duration": value.String("3")}, false},
		{"missing key", value.Map{"author": value.String("x")}, false},
		{"range hit", value.Map{"duration": mustRange(t, nil, floatPtr(2), nil, floatPtr(4))}, true},
		{"range miss", value.Map{"duration": mustRange(t, floatPtr(3), nil, nil, nil)}, false},
		{"range on string", value.Map{"level": mustRange(t, floatPtr(0), nil, nil, nil)}, false},
		{"and", value.Map{
			"level":    value.String("beginner"),
			"duration": mustRange(t, nil, nil, floatPtr(10), nil),
		}, true},
		{"and with one miss", value.Map{
			"level":  value.String("beginner"),
			"public": value.Bool(false),
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile(tt.filters)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if got := expr.Matches(payload); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
