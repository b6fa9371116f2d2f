package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"neurovault/internal/cognition"
	"neurovault/internal/contextutil"
	"neurovault/internal/search"
	"neurovault/internal/service"
)

// SearchHandler handles HTTP requests for cognitive search.
type SearchHandler struct {
	engine search.Engine
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(engine search.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// ServeHTTP handles HTTP requests for cognitive search.
//
// Search a user's documents by meaning, re-ranked by cognitive relevance
// (semantic similarity blended with recency and access frequency), with a
// per-result explanation of the ranking.
//
// swagger:route POST /api/search search
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Ranked, explained search results
//	'400':
//	  description: Bad request (empty query, missing user id, invalid tier)
//	'502':
//	  description: Embedding service unavailable
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req search.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TierFilter != "" && !req.TierFilter.Valid() {
		writeError(ctx, w, http.StatusBadRequest, fmt.Sprintf("Invalid tier filter: %s", req.TierFilter))
		return
	}

	resp, err := h.engine.Search(ctx, req)
	if err != nil {
		h.handleSearchError(w, r, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

// handleSearchError maps search engine errors to HTTP status codes.
func (h *SearchHandler) handleSearchError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		writeError(ctx, w, http.StatusBadRequest, "Query cannot be empty")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExternalService):
		logger.ErrorContext(ctx, "search failed", "error", err)
		writeError(ctx, w, http.StatusBadGateway, "Embedding service unavailable")
	default:
		logger.ErrorContext(ctx, "search failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Search failed")
	}
}

// tierFromQuery parses an optional tier query parameter, validating it.
func tierFromQuery(r *http.Request, key string) (cognition.Tier, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return "", nil
	}
	tier := cognition.Tier(raw)
	if !tier.Valid() {
		return "", fmt.Errorf("invalid tier: %s", raw)
	}
	return tier, nil
}
