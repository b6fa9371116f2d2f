package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"neurovault/internal/cognition"
	"neurovault/internal/contextutil"
	"neurovault/internal/explain"
	"neurovault/internal/index"
	"neurovault/internal/ingest"
	"neurovault/internal/service"
	"neurovault/internal/storage"
)

// ErrEmptyQuery is returned when the query text is blank.
var ErrEmptyQuery = errors.New("query cannot be empty")

const (
	defaultK = 5
	maxK     = 50

	// candidateFactor oversamples the index request; the index itself
	// oversamples a further 5x before deduplication, a combined 15x over
	// the final result count to absorb per-document chunk collisions and
	// orphaned entries.
	candidateFactor = 3

	snippetChars = 250
)

// Embedder converts a query into a fixed-length vector.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Engine answers search requests: embed, retrieve, re-rank by cognitive
// score, filter, explain.
type Engine interface {
	Search(ctx context.Context, req Request) (Response, error)
}

type searchEngine struct {
	embedder  Embedder
	index     index.Store
	docs      storage.DocumentStore
	engine    *cognition.Engine
	explainer *explain.Explainer
	now       func() time.Time
}

// NewEngine creates a search engine.
func NewEngine(embedder Embedder, idx index.Store, docs storage.DocumentStore, engine *cognition.Engine, explainer *explain.Explainer) Engine {
	return &searchEngine{
		embedder:  embedder,
		index:     idx,
		docs:      docs,
		engine:    engine,
		explainer: explainer,
		now:       time.Now,
	}
}

// ranked pairs a resolved document with its freshly computed scores.
type ranked struct {
	doc       *storage.DocumentRecord
	semantic  float64
	cognitive float64
	tier      cognition.Tier
}

// Search runs the full pipeline for one request. Every surviving document's
// cached semantic score, cognitive score and tier are updated in one
// transaction committed with the response: search is not read-only.
func (e *searchEngine) Search(ctx context.Context, req Request) (Response, error) {
	logger := contextutil.LoggerFromContext(ctx)
	started := e.now()

	if strings.TrimSpace(req.Query) == "" {
		return Response{}, ErrEmptyQuery
	}
	if req.UserID == "" {
		return Response{}, &service.ValidationError{Field: "user_id", Message: "user id is required"}
	}

	k := req.K
	if k <= 0 {
		k = defaultK
	}
	if k > maxK {
		k = maxK
	}

	vectors, err := e.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil {
		return Response{}, fmt.Errorf("%w: failed to embed query: %w", service.ErrExternalService, err)
	}
	if len(vectors) == 0 {
		return Response{}, fmt.Errorf("no embedding returned for query")
	}

	candidates, err := e.index.Search(ctx, req.UserID, vectors[0], k*candidateFactor)
	if err != nil {
		return Response{}, fmt.Errorf("failed to search index: %w", err)
	}

	now := e.now()
	survivors := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		doc, err := e.docs.GetByID(ctx, c.DocumentID)
		if errors.Is(err, storage.ErrNotFound) {
			// Candidate no longer resolvable: evidence of eventual
			// consistency with the record store, not a failure.
			logger.DebugContext(ctx, "skipping unresolved candidate", "document_id", c.DocumentID)
			continue
		}
		if err != nil {
			return Response{}, fmt.Errorf("failed to resolve candidate %s: %w", c.DocumentID, err)
		}
		if doc.UserID != req.UserID {
			logger.DebugContext(ctx, "skipping foreign candidate", "document_id", c.DocumentID)
			continue
		}

		semantic := float64(c.Score)
		cognitive := e.engine.CompositeScore(semantic, doc.LastAccessed, doc.AccessCount, now)
		tier := e.engine.ClassifyTier(cognitive)

		if req.TierFilter != "" && tier != req.TierFilter {
			continue
		}
		if cognitive < req.MinScore {
			continue
		}

		survivors = append(survivors, ranked{doc: doc, semantic: semantic, cognitive: cognitive, tier: tier})
	}

	// Cognitive score descending; equal scores break on document id so the
	// ordering is deterministic rather than an accident of sort stability.
	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].cognitive != survivors[j].cognitive {
			return survivors[i].cognitive > survivors[j].cognitive
		}
		return survivors[i].doc.ID < survivors[j].doc.ID
	})
	if len(survivors) > k {
		survivors = survivors[:k]
	}

	updates := make([]storage.ScoreUpdate, 0, len(survivors))
	results := make([]Result, 0, len(survivors))
	for i, s := range survivors {
		explanation := e.explainer.Build(
			s.doc.ID, s.doc.Filename, s.semantic,
			s.doc.LastAccessed, s.doc.AccessCount, s.doc.CreatedAt,
			s.tier, now,
		)
		results = append(results, Result{
			DocumentID:     s.doc.ID,
			Filename:       s.doc.Filename,
			FileType:       s.doc.FileType,
			Tier:           s.tier,
			FinalScore:     s.cognitive,
			ContentSnippet: ingest.Preview(s.doc.ContentText, snippetChars),
			Breakdown:      explanation,
			Rank:           i + 1,
		})
		updates = append(updates, storage.ScoreUpdate{
			ID:             s.doc.ID,
			SemanticScore:  s.semantic,
			CognitiveScore: s.cognitive,
			Tier:           string(s.tier),
		})
	}

	if err := e.docs.UpdateScores(ctx, updates); err != nil {
		return Response{}, fmt.Errorf("failed to persist result scores: %w", err)
	}

	elapsed := float64(e.now().Sub(started).Microseconds()) / 1000.0
	logger.InfoContext(ctx, "search completed",
		"user_id", req.UserID,
		"candidates", len(candidates),
		"results", len(results),
		"k", k,
		"query_time_ms", elapsed,
	)

	return Response{
		Query:        req.Query,
		TotalResults: len(results),
		Results:      results,
		QueryTimeMs:  elapsed,
	}, nil
}
