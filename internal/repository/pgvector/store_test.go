package pgvector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/collection/field"
	dompoint "github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// openTestStore connects to VECSYNC_TEST_POSTGRES_DSN or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("VECSYNC_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VECSYNC_TEST_POSTGRES_DSN not set; pgvector tests need PostgreSQL + pgvector")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStore_Lifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	name := fmt.Sprintf("it_%d", time.Now().UnixNano())
	col, err := domcol.New(name, []field.Field{field.Reconstruct("category", field.Tag)}, 3)
	if err != nil {
		t.Fatalf("collection.New: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+tableName(name))
		_, _ = s.db.ExecContext(ctx, "DELETE FROM vector_collections WHERE name = $1", name)
	})

	if err := s.Create(ctx, col); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, col); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("second Create = %v, want ErrAlreadyExists", err)
	}

	got, err := s.Get(ctx, name)
	if err != nil || got.VectorDim() != 3 || !got.HasField("category", field.Tag) {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	pts := []struct {
		id       int64
		vec      []float32
		category string
	}{
		{1, []float32{1, 0, 0}, "ml"},
		{2, []float32{0.9, 0.1, 0}, "web"},
		{3, []float32{0, 1, 0}, "ml"},
	}
	for _, p := range pts {
		pt, _ := dompoint.New(dompoint.IntID(p.id), p.vec, value.Map{"category": value.String(p.category)})
		if err := s.Upsert(ctx, col, pt); err != nil {
			t.Fatalf("Upsert %d: %v", p.id, err)
		}
	}
	// Re-upsert is a replace.
	pt, _ := dompoint.New(dompoint.IntID(1), []float32{1, 0, 0}, value.Map{"category": value.String("ml")})
	if err := s.Upsert(ctx, col, pt); err != nil {
		t.Fatalf("re-Upsert: %v", err)
	}
	if n, _ := s.Count(ctx, col); n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}

	expr := compile(t, value.Map{"category": value.String("ml")})
	res, err := s.Query(ctx, col, []float32{1, 0, 0}, expr, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res) != 2 || res[0].ID().String() != "1" {
		t.Fatalf("Query = %+v", res)
	}
	for _, r := range res {
		if r.ID().String() == "2" {
			t.Fatal("filtered point returned")
		}
	}

	if err := s.Delete(ctx, col, dompoint.IntID(2)); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, col, dompoint.IntID(2)); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
	sample, err := s.Sample(ctx, col, 10)
	if err != nil || len(sample) != 2 {
		t.Fatalf("Sample = %+v, %v", sample, err)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "does_not_exist_ever"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
