package chi

import (
	"encoding/json"

	"github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
	collectionuc "github.com/kailas-cloud/vecsync/internal/usecase/collection"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeCollectionNotFound     = "collection_not_found"
	codeVectorDimMismatch      = "vector_dim_mismatch"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeRateLimited            = "rate_limited"
	codeInternalError          = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Sync ---

// SyncRequest is one record pushed by the system of record.
// Metadata stays raw so a bulk request can reject a single bad item.
type SyncRequest struct {
	PathID         point.ID        `json:"path_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CollectionName string          `json:"collection_name,omitempty"`
}

// BulkSyncRequest carries many records for one collection.
type BulkSyncRequest struct {
	LearningPaths  []SyncRequest `json:"learning_paths"`
	CollectionName string        `json:"collection_name,omitempty"`
}

// DeleteRequest removes one record.
type DeleteRequest struct {
	PathID         point.ID `json:"path_id"`
	CollectionName string   `json:"collection_name,omitempty"`
}

// SyncResponse acknowledges a single sync or delete.
type SyncResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	PathID  point.ID `json:"path_id"`
}

// BulkSyncResponse reports per-item outcomes of a bulk sync.
type BulkSyncResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// --- Search ---

// SearchRequest is a semantic query.
type SearchRequest struct {
	Query        string    `json:"query"`
	TopK         *int      `json:"top_k,omitempty"`
	Filters      value.Map `json:"filters,omitempty"`
	ResourceType string    `json:"resource_type,omitempty"`
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	ID      point.ID  `json:"id"`
	Score   float64   `json:"score"`
	Payload value.Map `json:"payload"`
}

// SearchResponse lists ranked hits.
type SearchResponse struct {
	Query   string             `json:"query"`
	Total   int                `json:"total"`
	Results []SearchResultItem `json:"results"`
}

// EmbedRequest asks for the embedding of a text.
type EmbedRequest struct {
	Text string `json:"text"`
}

// EmbedResponse carries an embedding vector.
type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// --- Collections ---

// InitCollectionRequest ensures a collection exists.
type InitCollectionRequest struct {
	CollectionName string `json:"collection_name"`
	VectorSize     int    `json:"vector_size,omitempty"`
}

// StatusResponse is a generic success acknowledgement.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VectorsConfig describes a collection's vector space.
type VectorsConfig struct {
	Size      int    `json:"size"`
	Distance  string `json:"distance"`
	Algorithm string `json:"algorithm"`
}

// SamplePoint is a stored point without its vector.
type SamplePoint struct {
	ID      point.ID  `json:"id"`
	Payload value.Map `json:"payload"`
}

// CollectionDebugResponse is the diagnostic view of a collection.
type CollectionDebugResponse struct {
	CollectionName string        `json:"collection_name"`
	PointsCount    int           `json:"points_count"`
	VectorsConfig  VectorsConfig `json:"vectors_config"`
	SamplePoints   []SamplePoint `json:"sample_points"`
	TotalScrolled  int           `json:"total_scrolled"`
}

// --- System ---

// RootResponse is the service banner.
type RootResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthResponse reports dependency health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

func searchResultToDTO(r *result.Result) SearchResultItem {
	payload := r.Payload()
	if payload == nil {
		payload = value.Map{}
	}
	return SearchResultItem{ID: r.ID(), Score: r.Score(), Payload: payload}
}

func descriptionToDTO(d collectionuc.Description) CollectionDebugResponse {
	samples := make([]SamplePoint, len(d.SamplePoints))
	for i, p := range d.SamplePoints {
		payload := p.Payload()
		if payload == nil {
			payload = value.Map{}
		}
		samples[i] = SamplePoint{ID: p.ID(), Payload: payload}
	}
	return CollectionDebugResponse{
		CollectionName: d.Name,
		PointsCount:    d.PointsCount,
		VectorsConfig: VectorsConfig{
			Size:      d.Vectors.Size,
			Distance:  d.Vectors.Distance,
			Algorithm: d.Vectors.Algorithm,
		},
		SamplePoints:  samples,
		TotalScrolled: d.TotalScrolled,
	}
}
