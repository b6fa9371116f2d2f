// Package lifecycle runs the scheduled background re-scoring sweep. The
// core scoring engine stays pure; this package is the external scheduler
// that applies storage scores and tier reclassification over time.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"neurovault/internal/cognition"
	"neurovault/internal/storage"
)

// Rescorer periodically recomputes every document's storage score (the
// composite score with no query context) so recency decay moves documents
// toward colder tiers between searches.
type Rescorer struct {
	docs   storage.DocumentStore
	engine *cognition.Engine
	cron   *cron.Cron
	now    func() time.Time
	logger *slog.Logger
}

// NewRescorer creates a rescorer. Call Start to schedule it.
func NewRescorer(docs storage.DocumentStore, engine *cognition.Engine) *Rescorer {
	return &Rescorer{
		docs:   docs,
		engine: engine,
		cron:   cron.New(),
		now:    time.Now,
		logger: slog.Default(),
	}
}

// Start registers the sweep under the given cron schedule (standard
// five-field expression) and starts the scheduler.
func (r *Rescorer) Start(schedule string) error {
	_, err := r.cron.AddFunc(schedule, func() {
		if err := r.RunOnce(context.Background()); err != nil {
			r.logger.Error("lifecycle re-scoring sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid rescore schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	r.logger.Info("lifecycle re-scoring scheduled", "schedule", schedule)
	return nil
}

// Stop stops the scheduler, waiting for a running sweep to finish.
func (r *Rescorer) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce re-scores and reclassifies every stored document. Documents keep
// their cached semantic score; only the cognitive score and tier move.
func (r *Rescorer) RunOnce(ctx context.Context) error {
	docs, err := r.docs.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	now := r.now()
	updates := make([]storage.ScoreUpdate, 0, len(docs))
	changedTiers := 0
	for _, doc := range docs {
		score := r.engine.StorageScore(doc.LastAccessed, doc.AccessCount, now)
		tier := r.engine.ClassifyTier(score)
		if string(tier) != doc.Tier {
			changedTiers++
		}
		updates = append(updates, storage.ScoreUpdate{
			ID:             doc.ID,
			SemanticScore:  doc.SemanticScore,
			CognitiveScore: score,
			Tier:           string(tier),
		})
	}

	if err := r.docs.UpdateScores(ctx, updates); err != nil {
		return fmt.Errorf("failed to persist re-scored documents: %w", err)
	}

	r.logger.Info("lifecycle re-scoring sweep completed",
		"documents", len(updates), "tier_changes", changedTiers)
	return nil
}
