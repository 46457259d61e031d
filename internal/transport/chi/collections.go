package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

// InitCollection handles POST /api/v1/search/collections/init.
func (s *Server) InitCollection(w http.ResponseWriter, r *http.Request) {
	var req InitCollectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CollectionName == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "collection_name is required")
		return
	}
	if req.VectorSize < 0 {
		s.handleDomainError(w, r, fmt.Errorf("vector_size must be positive: %w", domain.ErrValidation))
		return
	}

	created, err := s.collections.Ensure(r.Context(), req.CollectionName, req.VectorSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	msg := fmt.Sprintf("Collection %s already exists", req.CollectionName)
	if created {
		msg = fmt.Sprintf("Collection %s created", req.CollectionName)
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: msg})
}

// DebugCollection handles GET /api/v1/search/collections/{collection}/debug.
func (s *Server) DebugCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")

	desc, err := s.collections.Describe(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, descriptionToDTO(desc))
}
