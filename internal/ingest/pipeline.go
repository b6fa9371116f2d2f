package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"neurovault/internal/cognition"
	"neurovault/internal/contextutil"
	"neurovault/internal/index"
	"neurovault/internal/service"
	"neurovault/internal/storage"
)

// Embedder converts texts into fixed-length vectors. One batched call per
// document.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestRequest carries one document's extracted text and metadata.
// Text extraction from binary formats happens upstream; this pipeline
// receives plain text.
type IngestRequest struct {
	UserID      string
	Filename    string
	FileType    string
	Content     string
	Description string
	ProjectTags []string
}

// Pipeline ingests documents: chunk, embed, index, score, store.
type Pipeline struct {
	docs     storage.DocumentStore
	index    index.Store
	embedder Embedder
	engine   *cognition.Engine
	chunker  *Chunker
	now      func() time.Time
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(docs storage.DocumentStore, idx index.Store, embedder Embedder, engine *cognition.Engine) *Pipeline {
	return &Pipeline{
		docs:     docs,
		index:    idx,
		embedder: embedder,
		engine:   engine,
		chunker:  NewChunker(DefaultChunkSize, DefaultChunkOverlap),
		now:      time.Now,
	}
}

// Ingest processes one document end to end and returns the stored record.
// The document starts with a storage score (no query context yet) and the
// tier that score classifies into.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*storage.DocumentRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.UserID == "" {
		return nil, &service.ValidationError{Field: "user_id", Message: "user id is required"}
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, &service.ValidationError{Field: "content", Message: "document content is empty"}
	}

	chunks := p.chunker.Chunk(req.Content, req.FileType)
	if len(chunks) == 0 {
		chunks = []string{Preview(req.Content, DefaultChunkSize)}
	}

	vectors, err := p.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed chunks: %w", service.ErrExternalService, err)
	}

	now := p.now()
	score := p.engine.StorageScore(now, 0, now)
	tier := p.engine.ClassifyTier(score)

	docID := uuid.New().String()
	localIDs, err := p.index.Add(ctx, req.UserID, docID, vectors)
	if err != nil {
		return nil, service.WrapError(err, "failed to index vectors")
	}

	doc := &storage.DocumentRecord{
		ID:             docID,
		UserID:         req.UserID,
		Filename:       req.Filename,
		FileType:       req.FileType,
		ContentText:    req.Content,
		ChunkCount:     len(chunks),
		Tier:           string(tier),
		CognitiveScore: score,
		SemanticScore:  0,
		AccessCount:    0,
		LastAccessed:   now,
		CreatedAt:      now,
		IndexIDs:       localIDs,
		FileSize:       int64(len(req.Content)),
		ProjectTags:    req.ProjectTags,
		Description:    req.Description,
	}
	if err := p.docs.Insert(ctx, doc); err != nil {
		// Unmap the vectors so they cannot surface as hits for a document
		// that was never stored. They remain as orphans until a rebuild.
		_ = p.index.RemoveDocument(ctx, req.UserID, localIDs)
		return nil, service.WrapError(err, "failed to store document")
	}

	logger.InfoContext(ctx, "document ingested",
		"document_id", docID,
		"user_id", req.UserID,
		"filename", req.Filename,
		"chunks", len(chunks),
		"tier", tier,
	)
	return doc, nil
}

// Remove soft-deletes a document: its local ids leave the id-map and the
// record is removed. Ownership mismatches report not-found rather than
// leaking the document's existence.
func (p *Pipeline) Remove(ctx context.Context, userID, documentID string) error {
	doc, err := p.docs.GetByID(ctx, documentID)
	if errors.Is(err, storage.ErrNotFound) {
		return service.ErrNotFound
	}
	if err != nil {
		return err
	}
	if doc.UserID != userID {
		return service.ErrNotFound
	}

	if err := p.index.RemoveDocument(ctx, userID, doc.IndexIDs); err != nil {
		return service.WrapError(err, "failed to unmap vectors")
	}
	if err := p.docs.Delete(ctx, documentID); err != nil {
		return service.WrapError(err, "failed to delete document")
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "document removed",
		"document_id", documentID, "user_id", userID, "vectors_unmapped", len(doc.IndexIDs))
	return nil
}

// RebuildIndex compacts a user's index, dropping orphaned vectors, and
// rewrites each surviving document's local-id references. Maintenance
// operation; invoked explicitly, never as a side effect.
func (p *Pipeline) RebuildIndex(ctx context.Context, userID string) (index.Stats, error) {
	remap, err := p.index.Rebuild(ctx, userID)
	if err != nil {
		return index.Stats{}, fmt.Errorf("failed to rebuild index: %w", err)
	}
	for docID, localIDs := range remap {
		if err := p.docs.UpdateIndexIDs(ctx, docID, localIDs); err != nil {
			return index.Stats{}, fmt.Errorf("failed to update index ids for document %s: %w", docID, err)
		}
	}
	return p.index.Stats(ctx, userID)
}
