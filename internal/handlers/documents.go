package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"neurovault/internal/cognition"
	"neurovault/internal/contextutil"
	"neurovault/internal/explain"
	"neurovault/internal/ingest"
	"neurovault/internal/service"
	"neurovault/internal/storage"
)

const previewChars = 300

// DocumentsHandler handles document CRUD and access recording.
type DocumentsHandler struct {
	pipeline   *ingest.Pipeline
	docs       storage.DocumentStore
	accessLogs storage.AccessLogStore
	engine     *cognition.Engine
	explainer  *explain.Explainer
	now        func() time.Time
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(
	pipeline *ingest.Pipeline,
	docs storage.DocumentStore,
	accessLogs storage.AccessLogStore,
	engine *cognition.Engine,
	explainer *explain.Explainer,
) *DocumentsHandler {
	return &DocumentsHandler{
		pipeline:   pipeline,
		docs:       docs,
		accessLogs: accessLogs,
		engine:     engine,
		explainer:  explainer,
		now:        time.Now,
	}
}

// IngestDocumentRequest is the payload for document ingestion. Content is
// the extracted plain text; extraction from binary formats happens upstream.
//
// swagger:model IngestDocumentRequest
type IngestDocumentRequest struct {
	UserID      string   `json:"user_id"`
	Filename    string   `json:"filename"`
	FileType    string   `json:"file_type"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectTags []string `json:"project_tags,omitempty"`
}

// DocumentResponse is the wire form of a stored document.
//
// swagger:model DocumentResponse
type DocumentResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Filename       string    `json:"filename"`
	FileType       string    `json:"file_type"`
	Tier           string    `json:"tier"`
	CognitiveScore float64   `json:"cognitive_score"`
	SemanticScore  float64   `json:"semantic_score"`
	AccessCount    int       `json:"access_count"`
	LastAccessed   time.Time `json:"last_accessed"`
	CreatedAt      time.Time `json:"created_at"`
	ChunkCount     int       `json:"chunk_count"`
	FileSize       int64     `json:"file_size"`
	Description    string    `json:"description,omitempty"`
	ProjectTags    []string  `json:"project_tags"`
}

// DocumentDetail extends DocumentResponse with a content preview and the
// full explanation of the document's current ranking state.
//
// swagger:model DocumentDetail
type DocumentDetail struct {
	DocumentResponse
	ContentPreview string              `json:"content_preview"`
	Explanation    explain.Explanation `json:"explanation"`
}

// Create ingests a new document.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req IngestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Filename == "" {
		writeError(ctx, w, http.StatusBadRequest, "Filename is required")
		return
	}

	doc, err := h.pipeline.Ingest(ctx, ingest.IngestRequest{
		UserID:      req.UserID,
		Filename:    req.Filename,
		FileType:    req.FileType,
		Content:     req.Content,
		Description: req.Description,
		ProjectTags: req.ProjectTags,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		logger.ErrorContext(ctx, "document ingestion failed", "error", err)
		if errors.Is(err, service.ErrExternalService) {
			writeError(ctx, w, http.StatusBadGateway, "Embedding service unavailable")
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "Failed to ingest document")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, toDocumentResponse(doc))
}

// List returns a user's documents, optionally filtered by tier.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(ctx, w, http.StatusBadRequest, "user_id is required")
		return
	}
	tier, err := tierFromQuery(r, "tier")
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	offset := intQuery(r, "skip", 0)
	limit := intQuery(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}

	docs, err := h.docs.ListByUser(ctx, userID, string(tier), offset, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentResponse(&docs[i]))
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// Get returns one document with its content preview and explanation.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	doc, ok := h.fetch(w, r)
	if !ok {
		return
	}

	explanation := h.explainer.Build(
		doc.ID, doc.Filename, doc.SemanticScore,
		doc.LastAccessed, doc.AccessCount, doc.CreatedAt,
		cognition.Tier(doc.Tier), h.now(),
	)
	detail := DocumentDetail{
		DocumentResponse: toDocumentResponse(doc),
		ContentPreview:   ingest.Preview(doc.ContentText, previewChars),
		Explanation:      explanation,
	}

	logger.DebugContext(ctx, "document detail served", "document_id", doc.ID)
	writeJSON(ctx, w, http.StatusOK, detail)
}

// Delete soft-deletes a document from the index and removes its record.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(ctx, w, http.StatusBadRequest, "user_id is required")
		return
	}
	docID := chi.URLParam(r, "id")

	if err := h.pipeline.Remove(ctx, userID, docID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Document not found")
			return
		}
		logger.ErrorContext(ctx, "failed to delete document", "document_id", docID, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted", "doc_id": docID})
}

// RecordAccessRequest is the payload for recording a document access.
//
// swagger:model RecordAccessRequest
type RecordAccessRequest struct {
	QueryUsed      string  `json:"query_used,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
	AccessType     string  `json:"access_type,omitempty"`
}

// RecordAccess bumps a document's access signals and reclassifies it.
func (h *DocumentsHandler) RecordAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	doc, ok := h.fetch(w, r)
	if !ok {
		return
	}

	var req RecordAccessRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	now := h.now()
	accessCount := doc.AccessCount + 1
	score := h.engine.StorageScore(now, accessCount, now)
	tier := h.engine.ClassifyTier(score)

	if err := h.docs.UpdateLifecycle(ctx, doc.ID, accessCount, now, score, string(tier)); err != nil {
		logger.ErrorContext(ctx, "failed to record access", "document_id", doc.ID, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to record access")
		return
	}

	entry := &storage.AccessLogRecord{
		DocumentID:     doc.ID,
		UserID:         doc.UserID,
		AccessedAt:     now,
		QueryUsed:      req.QueryUsed,
		RelevanceScore: req.RelevanceScore,
		AccessType:     req.AccessType,
	}
	if err := h.accessLogs.Insert(ctx, entry); err != nil {
		// The lifecycle update already committed; a lost log row is not
		// worth failing the request over.
		logger.WarnContext(ctx, "failed to append access log", "document_id", doc.ID, "error", err)
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"status":          "ok",
		"cognitive_score": score,
		"tier":            tier,
	})
}

// AccessLogEntry is the wire form of one recorded document access.
//
// swagger:model AccessLogEntry
type AccessLogEntry struct {
	AccessedAt     time.Time `json:"accessed_at"`
	QueryUsed      string    `json:"query_used,omitempty"`
	RelevanceScore float64   `json:"relevance_score,omitempty"`
	AccessType     string    `json:"access_type"`
}

// AccessHistory returns a document's recorded accesses, newest first.
func (h *DocumentsHandler) AccessHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	doc, ok := h.fetch(w, r)
	if !ok {
		return
	}

	limit := intQuery(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	entries, err := h.accessLogs.ListByDocument(ctx, doc.ID, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list access history", "document_id", doc.ID, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to list access history")
		return
	}

	out := make([]AccessLogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, AccessLogEntry{
			AccessedAt:     e.AccessedAt,
			QueryUsed:      e.QueryUsed,
			RelevanceScore: e.RelevanceScore,
			AccessType:     e.AccessType,
		})
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// fetch loads the document named in the URL, writing the error response on
// failure.
func (h *DocumentsHandler) fetch(w http.ResponseWriter, r *http.Request) (*storage.DocumentRecord, bool) {
	ctx := r.Context()

	docID := chi.URLParam(r, "id")
	doc, err := h.docs.GetByID(ctx, docID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(ctx, w, http.StatusNotFound, "Document not found")
		return nil, false
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load document", "document_id", docID, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to load document")
		return nil, false
	}
	return doc, true
}

func toDocumentResponse(doc *storage.DocumentRecord) DocumentResponse {
	tags := doc.ProjectTags
	if tags == nil {
		tags = []string{}
	}
	return DocumentResponse{
		ID:             doc.ID,
		UserID:         doc.UserID,
		Filename:       doc.Filename,
		FileType:       doc.FileType,
		Tier:           doc.Tier,
		CognitiveScore: doc.CognitiveScore,
		SemanticScore:  doc.SemanticScore,
		AccessCount:    doc.AccessCount,
		LastAccessed:   doc.LastAccessed,
		CreatedAt:      doc.CreatedAt,
		ChunkCount:     doc.ChunkCount,
		FileSize:       doc.FileSize,
		Description:    doc.Description,
		ProjectTags:    tags,
	}
}

// intQuery parses an integer query parameter, falling back to a default.
func intQuery(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}
