package service

import (
	"context"
	"fmt"
	"time"

	"neurovault/internal/cognition"
	"neurovault/internal/storage"
)

const histogramBuckets = 10

// TierStats summarizes one tier's slice of a user's corpus.
type TierStats struct {
	Tier     cognition.Tier `json:"tier"`
	Count    int            `json:"count"`
	AvgScore float64        `json:"avg_score"`
	Color    string         `json:"color"`
}

// Overview is the top-level analytics result for one user. The handler maps
// it to its wire form; TopDocuments are full records so it can reuse the
// document response shape.
type Overview struct {
	TotalDocuments    int
	TierDistribution  []TierStats
	AvgCognitiveScore float64
	TopDocuments      []storage.DocumentRecord
}

// HistogramBucket is one score-range bucket for visualization.
type HistogramBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// LifecycleNode is one document in the lifecycle visualization.
type LifecycleNode struct {
	ID           string  `json:"id"`
	Filename     string  `json:"filename"`
	Score        float64 `json:"score"`
	Tier         string  `json:"tier"`
	AccessCount  int     `json:"access_count"`
	FileType     string  `json:"file_type"`
	Color        string  `json:"color"`
	CreatedAt    string  `json:"created_at"`
	LastAccessed string  `json:"last_accessed"`
}

// LifecycleData is the histogram payload for the lifecycle view.
type LifecycleData struct {
	Nodes          []LifecycleNode    `json:"nodes"`
	Histogram      []HistogramBucket  `json:"histogram"`
	TierThresholds map[string]float64 `json:"tier_thresholds"`
}

// AnalyticsService aggregates cognitive-state statistics over a user's
// documents. Read-only; it never re-scores.
type AnalyticsService struct {
	docs   storage.DocumentStore
	engine *cognition.Engine
}

// NewAnalyticsService creates an analytics service.
func NewAnalyticsService(docs storage.DocumentStore, engine *cognition.Engine) *AnalyticsService {
	return &AnalyticsService{docs: docs, engine: engine}
}

// Overview returns totals, the tier distribution and the top documents by
// cognitive score.
func (s *AnalyticsService) Overview(ctx context.Context, userID string) (Overview, error) {
	docs, err := s.docs.ListByUser(ctx, userID, "", 0, 0)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to list documents: %w", err)
	}

	byTier := make(map[cognition.Tier][]float64)
	var sum float64
	for _, d := range docs {
		byTier[cognition.Tier(d.Tier)] = append(byTier[cognition.Tier(d.Tier)], d.CognitiveScore)
		sum += d.CognitiveScore
	}

	distribution := make([]TierStats, 0, len(cognition.TierOrder))
	for _, tier := range cognition.TierOrder {
		scores := byTier[tier]
		var avg float64
		if len(scores) > 0 {
			for _, sc := range scores {
				avg += sc
			}
			avg /= float64(len(scores))
		}
		distribution = append(distribution, TierStats{
			Tier:     tier,
			Count:    len(scores),
			AvgScore: avg,
			Color:    tier.Color(),
		})
	}

	var avgScore float64
	if len(docs) > 0 {
		avgScore = sum / float64(len(docs))
	}

	// docs are already ordered by cognitive score descending.
	top := docs
	if len(top) > 10 {
		top = top[:10]
	}

	return Overview{
		TotalDocuments:    len(docs),
		TierDistribution:  distribution,
		AvgCognitiveScore: avgScore,
		TopDocuments:      top,
	}, nil
}

// Lifecycle returns per-document nodes plus a ten-bucket score histogram.
func (s *AnalyticsService) Lifecycle(ctx context.Context, userID string) (LifecycleData, error) {
	docs, err := s.docs.ListByUser(ctx, userID, "", 0, 0)
	if err != nil {
		return LifecycleData{}, fmt.Errorf("failed to list documents: %w", err)
	}

	nodes := make([]LifecycleNode, 0, len(docs))
	buckets := make([]int, histogramBuckets)
	for _, d := range docs {
		tier := cognition.Tier(d.Tier)
		nodes = append(nodes, LifecycleNode{
			ID:           d.ID,
			Filename:     d.Filename,
			Score:        d.CognitiveScore,
			Tier:         d.Tier,
			AccessCount:  d.AccessCount,
			FileType:     d.FileType,
			Color:        tier.Color(),
			CreatedAt:    d.CreatedAt.UTC().Format(time.RFC3339),
			LastAccessed: d.LastAccessed.UTC().Format(time.RFC3339),
		})
		idx := int(d.CognitiveScore * histogramBuckets)
		if idx >= histogramBuckets {
			idx = histogramBuckets - 1
		}
		if idx < 0 {
			idx = 0
		}
		buckets[idx]++
	}

	histogram := make([]HistogramBucket, histogramBuckets)
	for i := 0; i < histogramBuckets; i++ {
		histogram[i] = HistogramBucket{
			Range: fmt.Sprintf("%.1f–%.1f", float64(i)/10, float64(i+1)/10),
			Count: buckets[i],
		}
	}

	params := s.engine.Params()
	return LifecycleData{
		Nodes:     nodes,
		Histogram: histogram,
		TierThresholds: map[string]float64{
			"active":     params.ActiveThreshold,
			"contextual": params.ContextualThreshold,
			"archived":   params.ArchivedThreshold,
		},
	}, nil
}

// TierSummary returns per-tier counts, average scores and display metadata.
func (s *AnalyticsService) TierSummary(ctx context.Context, userID string) (map[string]TierSummaryEntry, error) {
	overview, err := s.Overview(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]TierSummaryEntry, len(overview.TierDistribution))
	for _, ts := range overview.TierDistribution {
		out[string(ts.Tier)] = TierSummaryEntry{
			Count:       ts.Count,
			AvgScore:    ts.AvgScore,
			Color:       ts.Color,
			Description: ts.Tier.Description(),
		}
	}
	return out, nil
}

// TierSummaryEntry is one tier's row in the tier summary.
type TierSummaryEntry struct {
	Count       int     `json:"count"`
	AvgScore    float64 `json:"avg_score"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
}
