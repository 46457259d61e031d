package redis

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain/search/filter"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

func floatPtr(f float64) *float64 { return &f }

func compile(t *testing.T, m value.Map) filter.Expression {
	t.Helper()
	expr, err := filter.Compile(m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return expr
}

func rangeValue(t *testing.T, gt, gte, lt, lte *float64) value.Value {
	t.Helper()
	r, err := value.NewRange(gt, gte, lt, lte)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return value.FromRange(r)
}

func TestSearchKNN_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "idx" && cmd[2] == "*=>[KNN 5 @vector $BLOB]"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1), // total
			mock.RedisString("vecsync:lp:1"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("0.1"), // distance 0.1 → similarity 0.9
				mock.RedisString("__id"),
				mock.RedisString("1"),
			),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx",
		Vector:    []float32{0.1, 0.2},
		K:         5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got total=%d entries=%d", result.Total, len(result.Entries))
	}
	e := result.Entries[0]
	if e.Key != "vecsync:lp:1" {
		t.Errorf("expected key vecsync:lp:1, got %s", e.Key)
	}
	if e.Score < 0.89 || e.Score > 0.91 {
		t.Errorf("expected score ~0.9, got %f", e.Score)
	}
	if _, ok := e.Fields["__vector_score"]; ok {
		t.Error("__vector_score should be stripped from fields")
	}
	if e.Fields["__id"] != "1" {
		t.Errorf("__id = %q", e.Fields["__id"])
	}
}

func TestSearchKNN_ScoreClamped(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("k"),
			mock.RedisArray(mock.RedisString("__vector_score"), mock.RedisString("1.6")),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entries[0].Score != 0 {
		t.Errorf("opposite vectors must clamp to 0, got %f", result.Entries[0].Score)
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx",
		Vector:    []float32{0.1},
		K:         10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(result.Entries))
	}
}

func TestSearchKNN_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 1})
	if err == nil || !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := NewStoreForTest(nil)
	bad := []*db.KNNQuery{
		{Vector: []float32{1}, K: 1},
		{IndexName: "idx", K: 1},
		{IndexName: "idx", Vector: []float32{1}},
	}
	for i, q := range bad {
		if _, err := s.SearchKNN(context.Background(), q); err == nil {
			t.Errorf("query %d: expected error", i)
		}
	}
}

func TestBuildKNNArgs_WithFilters(t *testing.T) {
	q := &db.KNNQuery{
		IndexName: "idx",
		Filters: compile(t, value.Map{
			"level":    value.String("beginner"),
			"duration": rangeValue(t, nil, floatPtr(2), nil, floatPtr(4)),
		}),
		NumericFields: map[string]bool{"duration": true},
		Vector:        []float32{1, 0},
		K:             3,
		ReturnFields:  []string{"__id", "__payload", "__vector_score"},
	}

	args := BuildKNNArgs(q, true)

	want := []string{
		"idx", "(@duration:[2 4] @level:{beginner})=>[KNN 3 @vector $BLOB]",
		"RETURN", "3", "__id", "__payload", "__vector_score",
		"SORTBY", "__vector_score", "ASC",
		"LIMIT", "0", "3",
		"PARAMS", "2", "BLOB",
	}
	for i, w := range want {
		if args[i] != w {
			t.Errorf("args[%d] = %q, want %q", i, args[i], w)
		}
	}
	if args[len(args)-2] != "DIALECT" || args[len(args)-1] != "2" {
		t.Errorf("expected DIALECT 2 at the end, got %v", args[len(args)-2:])
	}
}

func TestBuildKNNArgs_Unsorted(t *testing.T) {
	args := BuildKNNArgs(&db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 2}, false)
	for _, a := range args {
		if a == "SORTBY" {
			t.Fatal("SORTBY must be omitted")
		}
	}
	if args[2] != "LIMIT" || args[4] != "2" {
		t.Errorf("expected LIMIT 0 2 after the query, got %v", args[2:5])
	}
}

func TestSearchList_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "idx", "*", "LIMIT", "0", "10", "RETURN", "2", "__id", "__payload")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("k1"),
			mock.RedisArray(mock.RedisString("__id"), mock.RedisString("1")),
			mock.RedisString("k2"),
			mock.RedisArray(mock.RedisString("__id"), mock.RedisString("2")),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchList(context.Background(), "idx", "*", 0, 10, []string{"__id", "__payload"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Entries[1].Fields["__id"] != "2" {
		t.Errorf("entry[1] = %+v", result.Entries[1])
	}
}

func TestSearchCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "idx", "*", "LIMIT", "0", "0")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	s := NewStoreForTest(c)
	n, err := s.SearchCount(context.Background(), "idx", "*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
}

func TestSearchCount_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisArray()))

	s := NewStoreForTest(c)
	n, err := s.SearchCount(context.Background(), "idx", "*")
	if err != nil || n != 0 {
		t.Fatalf("got %d, %v; want 0, nil", n, err)
	}
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name    string
		filters value.Map
		numeric map[string]bool
		want    string
	}{
		{"empty", nil, nil, ""},
		{"tag string", value.Map{"level": value.String("beginner")}, nil, "@level:{beginner}"},
		{"tag escaped", value.Map{"topic": value.String("go-lang 1.22")}, nil, `@topic:{go\-lang\ 1\.22}`},
		{"tag bool", value.Map{"public": value.Bool(true)}, nil, "@public:{true}"},
		{"number on tag field", value.Map{"category_id": value.Number(10)}, nil, "@category_id:{10}"},
		{
			"number on numeric field",
			value.Map{"category_id": value.Number(10)},
			map[string]bool{"category_id": true},
			"@category_id:[10 10]",
		},
		{
			"inclusive range",
			value.Map{"duration": rangeValue(t, nil, floatPtr(2), nil, floatPtr(4))},
			map[string]bool{"duration": true},
			"@duration:[2 4]",
		},
		{
			"exclusive open range",
			value.Map{"duration": rangeValue(t, floatPtr(1.5), nil, nil, nil)},
			nil,
			"@duration:[(1.5 +inf]",
		},
		{
			"upper only",
			value.Map{"duration": rangeValue(t, nil, nil, floatPtr(10), nil)},
			nil,
			"@duration:[-inf (10]",
		},
		{
			"conjunction sorted",
			value.Map{"b": value.String("x"), "a": value.String("y")},
			nil,
			"@a:{y} @b:{x}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildFilter(compile(t, tt.filters), tt.numeric)
			if got != tt.want {
				t.Errorf("buildFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVectorToBytes(t *testing.T) {
	b := vectorToBytes([]float32{1.0, -2.5})
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32([]byte(b[4:]))); got != -2.5 {
		t.Errorf("second float = %v, want -2.5", got)
	}
}
