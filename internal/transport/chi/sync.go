package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/vecsync/internal/domain/value"
	syncuc "github.com/kailas-cloud/vecsync/internal/usecase/sync"
)

// SyncItem handles POST /api/v1/search/sync.
func (s *Server) SyncItem(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := commandFromRequest(req)
	if cmd.DecodeErr != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, cmd.DecodeErr.Error())
		return
	}

	if err := s.sync.Upsert(r.Context(), collectionOrDefault(req.CollectionName), cmd); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{
		Success: true,
		Message: fmt.Sprintf("Learning path %s synced successfully", req.PathID.String()),
		PathID:  req.PathID,
	})
}

// SyncBulk handles POST /api/v1/search/sync/bulk. Item failures are reported
// in the body; only a malformed or oversized request fails as a whole.
func (s *Server) SyncBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkSyncRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cmds := make([]syncuc.Command, len(req.LearningPaths))
	for i, item := range req.LearningPaths {
		cmds[i] = commandFromRequest(item)
	}

	res, err := s.sync.BulkUpsert(r.Context(), collectionOrDefault(req.CollectionName), cmds)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BulkSyncResponse{
		Success:   res.Success(),
		Message:   fmt.Sprintf("Synced %d of %d learning paths", res.Succeeded, res.Total),
		Total:     res.Total,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Errors:    res.Errors,
	})
}

// DeleteItem handles POST /api/v1/search/sync/delete.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.sync.Delete(r.Context(), collectionOrDefault(req.CollectionName), req.PathID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{
		Success: true,
		Message: fmt.Sprintf("Learning path %s deleted successfully", req.PathID.String()),
		PathID:  req.PathID,
	})
}

func commandFromRequest(req SyncRequest) syncuc.Command {
	cmd := syncuc.Command{
		ID:          req.PathID,
		Title:       req.Title,
		Description: req.Description,
	}
	meta, err := decodeMetadata(req.Metadata)
	if err != nil {
		cmd.DecodeErr = err
		return cmd
	}
	cmd.Metadata = meta
	return cmd
}

func decodeMetadata(raw json.RawMessage) (value.Map, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return value.Map{}, nil
	}
	var meta value.Map
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return meta, nil
}

func collectionOrDefault(name string) string {
	if name == "" {
		return DefaultCollection
	}
	return name
}
