package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/collection/field"
	"github.com/kailas-cloud/vecsync/internal/domain/resource"
	"github.com/kailas-cloud/vecsync/internal/repository/memory"
	collectionuc "github.com/kailas-cloud/vecsync/internal/usecase/collection"
	"github.com/kailas-cloud/vecsync/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vecsync/internal/usecase/health"
	searchuc "github.com/kailas-cloud/vecsync/internal/usecase/search"
	syncuc "github.com/kailas-cloud/vecsync/internal/usecase/sync"
)

const testDim = 4

var keywords = []string{"go", "python", "rust", "cooking"}

// keywordVectorizer embeds text as keyword presence. Texts containing "fail" error.
type keywordVectorizer struct {
	down bool
}

func (k *keywordVectorizer) GenerateVector(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	if k.down || strings.Contains(lower, "fail") {
		return nil, errors.Join(domain.ErrEmbeddingProviderError, errors.New("connection refused"))
	}
	vec := make([]float32, testDim)
	for i, kw := range keywords {
		vec[i] = 0.01
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (k *keywordVectorizer) VectorForRecord(ctx context.Context, title, description string) ([]float32, error) {
	return k.GenerateVector(ctx, embedding.RecordText(title, description))
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type testEnv struct {
	server *Server
	store  *memory.Store
	vec    *keywordVectorizer
	pinger *mockPinger
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := memory.New()
	vec := &keywordVectorizer{}
	pinger := &mockPinger{}

	defs := map[string]collectionuc.Definition{
		"learning_paths": {Fields: []field.Field{
			field.Reconstruct("level", field.Tag),
			field.Reconstruct("duration_hours", field.Numeric),
		}},
	}
	colls := collectionuc.New(store, store, defs, testDim, logger)
	if err := colls.EnsureConfigured(context.Background()); err != nil {
		t.Fatalf("ensure collections: %v", err)
	}
	syncSvc := syncuc.New(store, store, vec, logger)
	searchSvc := searchuc.New(store, store, vec, resource.DefaultResolver(), logger)
	health := healthuc.New(pinger, nil, nil, logger)

	srv := NewServer(colls, syncSvc, searchSvc, health, logger)
	return &testEnv{server: srv, store: store, vec: vec, pinger: pinger, router: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	resp := decode[ErrorResponse](t, rec)
	if resp.Code != code {
		t.Errorf("code = %q, want %q (message %q)", resp.Code, code, resp.Message)
	}
}
