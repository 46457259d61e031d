package chi

import (
	"fmt"
	"net/http"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/search/filter"
	"github.com/kailas-cloud/vecsync/internal/domain/search/request"
)

// Search handles POST /api/v1/search and /api/v1/search/.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !decodeBody(w, r, &body) {
		return
	}

	expr, err := filter.Compile(body.Filters)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrValidation, err))
		return
	}

	req, err := request.New(body.Query, body.TopK, expr, body.ResourceType, s.searchLimits)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrValidation, err))
		return
	}

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = searchResultToDTO(&resp.Results[i])
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   resp.Query,
		Total:   resp.Total,
		Results: items,
	})
}

// Embed handles POST /api/v1/search/embed.
func (s *Server) Embed(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	vec, err := s.search.Embed(r.Context(), req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, EmbedResponse{Embedding: vec})
}
