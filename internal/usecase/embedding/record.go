package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

// RecordText is the text-shaping rule shared by indexing and querying.
func RecordText(title, description string) string {
	return fmt.Sprintf("Title: %s. Content: %s", title, description)
}

// RecordEmbedder turns query text and resource records into vectors.
// Every call is bounded by timeout; a zero timeout leaves ctx as is.
type RecordEmbedder struct {
	inner   domain.Embedder
	timeout time.Duration
}

// NewRecordEmbedder creates a record embedder over the decorated provider chain.
func NewRecordEmbedder(inner domain.Embedder, timeout time.Duration) *RecordEmbedder {
	return &RecordEmbedder{inner: inner, timeout: timeout}
}

// GenerateVector embeds text as is. Empty text is not rejected.
func (e *RecordEmbedder) GenerateVector(ctx context.Context, text string) ([]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingProviderError) {
			return nil, fmt.Errorf("generate vector: %w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return nil, fmt.Errorf("generate vector: %w", err)
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("generate vector: empty embedding: %w", domain.ErrEmbeddingProviderError)
	}
	return res.Embedding, nil
}

// VectorForRecord embeds a record using RecordText.
func (e *RecordEmbedder) VectorForRecord(ctx context.Context, title, description string) ([]float32, error) {
	return e.GenerateVector(ctx, RecordText(title, description))
}
