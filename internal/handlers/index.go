package handlers

import (
	"net/http"

	"neurovault/internal/contextutil"
	"neurovault/internal/index"
	"neurovault/internal/ingest"
)

// IndexHandler exposes vector index maintenance operations.
type IndexHandler struct {
	pipeline *ingest.Pipeline
	store    index.Store
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(pipeline *ingest.Pipeline, store index.Store) *IndexHandler {
	return &IndexHandler{pipeline: pipeline, store: store}
}

// Stats reports vector counts and orphan ratio for a user's index.
func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(ctx, w, http.StatusBadRequest, "user_id is required")
		return
	}

	stats, err := h.store.Stats(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read index stats", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to read index stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

// Rebuild compacts a user's index, dropping orphaned vectors and
// reassigning local ids.
func (h *IndexHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(ctx, w, http.StatusBadRequest, "user_id is required")
		return
	}

	stats, err := h.pipeline.RebuildIndex(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "index rebuild failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Index rebuild failed")
		return
	}

	logger.InfoContext(ctx, "index rebuilt",
		"user_id", userID,
		"total_vectors", stats.TotalVectors,
	)
	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"status": "rebuilt",
		"stats":  stats,
	})
}
