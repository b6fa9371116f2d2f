package handlers

import (
	"net/http"

	"neurovault/internal/contextutil"
	"neurovault/internal/service"
)

// AnalyticsHandler serves aggregate views over a user's document corpus.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// AnalyticsOverviewResponse is the wire form of the analytics overview.
//
// swagger:model AnalyticsOverviewResponse
type AnalyticsOverviewResponse struct {
	TotalDocuments    int                 `json:"total_documents"`
	TierDistribution  []service.TierStats `json:"tier_distribution"`
	AvgCognitiveScore float64             `json:"avg_cognitive_score"`
	TopDocuments      []DocumentResponse  `json:"top_documents"`
}

// Overview returns tier distribution, average score, and top documents.
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(ctx, w, http.StatusBadRequest, "user_id is required")
		return
	}

	overview, err := h.analytics.Overview(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build analytics overview", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to build analytics overview")
		return
	}

	top := make([]DocumentResponse, 0, len(overview.TopDocuments))
	for i := range overview.TopDocuments {
		top = append(top, toDocumentResponse(&overview.TopDocuments[i]))
	}
	writeJSON(ctx, w, http.StatusOK, AnalyticsOverviewResponse{
		TotalDocuments:    overview.TotalDocuments,
		TierDistribution:  overview.TierDistribution,
		AvgCognitiveScore: overview.AvgCognitiveScore,
		TopDocuments:      top,
	})
}

// Lifecycle returns per-document lifecycle nodes and a score histogram.
func (h *AnalyticsHandler) Lifecycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(ctx, w, http.StatusBadRequest, "user_id is required")
		return
	}

	data, err := h.analytics.Lifecycle(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build lifecycle data", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to build lifecycle data")
		return
	}
	writeJSON(ctx, w, http.StatusOK, data)
}

// Tiers returns the tier summary with colors and descriptions.
func (h *AnalyticsHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(ctx, w, http.StatusBadRequest, "user_id is required")
		return
	}

	summary, err := h.analytics.TierSummary(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build tier summary", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to build tier summary")
		return
	}
	writeJSON(ctx, w, http.StatusOK, summary)
}
