package collection

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain/collection/field"
)

func TestNew_Valid(t *testing.T) {
	f, err := field.New("difficulty", field.Tag)
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	before := time.Now().UnixMilli()

	col, err := New("learning_paths", []field.Field{f}, 384)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := time.Now().UnixMilli()

	if col.Name() != "learning_paths" {
		t.Errorf("Name() = %q, want %q", col.Name(), "learning_paths")
	}
	if col.VectorDim() != 384 {
		t.Errorf("VectorDim() = %d, want 384", col.VectorDim())
	}
	if len(col.Fields()) != 1 {
		t.Errorf("Fields() len = %d, want 1", len(col.Fields()))
	}
	if col.CreatedAt() < before || col.CreatedAt() > after {
		t.Errorf("CreatedAt() = %d, want between %d and %d", col.CreatedAt(), before, after)
	}
}

func TestNew_NoFields(t *testing.T) {
	col, err := New("reflection_tree", nil, 384)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(col.Fields()) != 0 {
		t.Errorf("Fields() len = %d, want 0", len(col.Fields()))
	}
}

func TestNew_Names(t *testing.T) {
	tests := []struct {
		name    string
		wantErr string
	}{
		{"abc", ""},
		{"ABC-123", ""},
		{"learning_paths", ""},
		{"9lives", ""},
		{strings.Repeat("a", 64), ""},
		{"", "required"},
		{strings.Repeat("a", 65), "too long"},
		{"_leading", "must start"},
		{"-leading", "must start"},
		{"has space", "must start"},
		{"col.name", "must start"},
		{"col/name", "must start"},
		{"слово", "must start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.name, nil, 384)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_VectorDim(t *testing.T) {
	for _, dim := range []int{0, -1} {
		_, err := New("col", nil, dim)
		if err == nil {
			t.Fatalf("expected error for dim %d", dim)
		}
		if !strings.Contains(err.Error(), "positive") {
			t.Errorf("error = %q, want 'positive'", err)
		}
	}
}

func TestNew_FieldLimits(t *testing.T) {
	fields := make([]field.Field, 65)
	for i := range fields {
		fields[i] = field.Reconstruct(fmt.Sprintf("f_%d", i), field.Tag)
	}

	if _, err := New("col", fields[:64], 384); err != nil {
		t.Fatalf("unexpected error for 64 fields: %v", err)
	}

	_, err := New("col", fields, 384)
	if err == nil || !strings.Contains(err.Error(), "too many") {
		t.Errorf("error = %v, want 'too many'", err)
	}
}

func TestNew_DuplicateFieldNames(t *testing.T) {
	f1 := field.Reconstruct("level", field.Tag)
	f2 := field.Reconstruct("level", field.Numeric)
	_, err := New("col", []field.Field{f1, f2}, 384)
	if err == nil {
		t.Fatal("expected error for duplicate field names")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error = %q, want 'duplicate'", err)
	}
}

func TestReconstruct(t *testing.T) {
	f := field.Reconstruct("level", field.Tag)
	col := Reconstruct("old-col", []field.Field{f}, 768, 1700000000000)

	if col.Name() != "old-col" {
		t.Errorf("Name() = %q", col.Name())
	}
	if col.VectorDim() != 768 {
		t.Errorf("VectorDim() = %d", col.VectorDim())
	}
	if col.CreatedAt() != 1700000000000 {
		t.Errorf("CreatedAt() = %d", col.CreatedAt())
	}
}

func TestHasField(t *testing.T) {
	f1 := field.Reconstruct("difficulty", field.Tag)
	f2 := field.Reconstruct("duration", field.Numeric)
	col := Reconstruct("col", []field.Field{f1, f2}, 384, 0)

	if !col.HasField("difficulty", field.Tag) {
		t.Error("HasField(difficulty, tag) = false, want true")
	}
	if !col.HasField("duration", field.Numeric) {
		t.Error("HasField(duration, numeric) = false, want true")
	}
	if col.HasField("difficulty", field.Numeric) {
		t.Error("HasField(difficulty, numeric) = true, want false")
	}
	if col.HasField("missing", field.Tag) {
		t.Error("HasField(missing, tag) = true, want false")
	}
}

func TestFieldByName(t *testing.T) {
	col := Reconstruct("col", []field.Field{field.Reconstruct("difficulty", field.Tag)}, 384, 0)

	found, ok := col.FieldByName("difficulty")
	if !ok {
		t.Fatal("FieldByName(difficulty) not found")
	}
	if found.Name() != "difficulty" || found.FieldType() != field.Tag {
		t.Errorf("found = (%q, %q)", found.Name(), found.FieldType())
	}

	if _, ok = col.FieldByName("missing"); ok {
		t.Error("FieldByName(missing) found, want not found")
	}
}
