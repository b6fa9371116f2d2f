package cognition

import (
	"fmt"
	"math"
	"time"
)

// Params holds the scoring weights, decay rate and tier thresholds.
// Weights are not required to sum to 1; the composite score is clamped instead.
type Params struct {
	SemanticWeight float64
	RecencyWeight  float64
	AccessWeight   float64

	// DecayLambda is the exponential recency decay rate per day.
	DecayLambda float64

	ActiveThreshold     float64
	ContextualThreshold float64
	ArchivedThreshold   float64
}

// DefaultParams returns the standard scoring configuration.
func DefaultParams() Params {
	return Params{
		SemanticWeight:      0.6,
		RecencyWeight:       0.2,
		AccessWeight:        0.2,
		DecayLambda:         0.1,
		ActiveThreshold:     0.75,
		ContextualThreshold: 0.50,
		ArchivedThreshold:   0.25,
	}
}

// Validate checks that the parameters are internally consistent.
// Thresholds must be strictly ordered and weights non-negative.
func (p Params) Validate() error {
	if p.SemanticWeight < 0 || p.RecencyWeight < 0 || p.AccessWeight < 0 {
		return fmt.Errorf("scoring weights must be non-negative (semantic=%v recency=%v access=%v)",
			p.SemanticWeight, p.RecencyWeight, p.AccessWeight)
	}
	if p.DecayLambda < 0 {
		return fmt.Errorf("decay lambda must be non-negative, got %v", p.DecayLambda)
	}
	if !(p.ActiveThreshold > p.ContextualThreshold && p.ContextualThreshold > p.ArchivedThreshold) {
		return fmt.Errorf("tier thresholds must be strictly ordered: active (%v) > contextual (%v) > archived (%v)",
			p.ActiveThreshold, p.ContextualThreshold, p.ArchivedThreshold)
	}
	return nil
}

// Components is the breakdown of a composite score into its raw and
// weight-scaled parts. Ephemeral: recomputed on every scoring call.
type Components struct {
	Total            float64 `json:"total"`
	Semantic         float64 `json:"semantic"`
	Recency          float64 `json:"recency"`
	Access           float64 `json:"access"`
	SemanticWeighted float64 `json:"semantic_weighted"`
	RecencyWeighted  float64 `json:"recency_weighted"`
	AccessWeighted   float64 `json:"access_weighted"`
}

// Engine computes cognitive relevance scores and lifecycle tiers.
// All methods are pure given their inputs and the supplied "now" instant.
type Engine struct {
	params Params
}

// NewEngine creates a scoring engine, validating the parameters first.
func NewEngine(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cognition params: %w", err)
	}
	return &Engine{params: p}, nil
}

// Params returns the engine's configuration.
func (e *Engine) Params() Params {
	return e.params
}

// RecencyScore computes exp(-lambda * days_since_access).
// It is exactly 1.0 at zero elapsed days and decays toward zero without
// ever reaching it. Timestamps in the future are treated as "just now".
func (e *Engine) RecencyScore(lastAccessed, now time.Time) float64 {
	days := math.Max(0, now.Sub(lastAccessed).Hours()/24)
	return math.Exp(-e.params.DecayLambda * days)
}

// AccessScore computes ln(1+count)/ln(101), a log-normalized frequency score.
// Zero accesses score 0.0, one hundred accesses score 1.0; counts above 100
// exceed 1.0 and are clamped only by the composite formula.
func (e *Engine) AccessScore(accessCount int) float64 {
	if accessCount < 0 {
		accessCount = 0
	}
	return math.Log(1+float64(accessCount)) / math.Log(101)
}

// CompositeScore blends semantic similarity, recency and access frequency
// into a single cognitive relevance score clamped to [0, 1].
func (e *Engine) CompositeScore(semantic float64, lastAccessed time.Time, accessCount int, now time.Time) float64 {
	score := e.params.SemanticWeight*semantic +
		e.params.RecencyWeight*e.RecencyScore(lastAccessed, now) +
		e.params.AccessWeight*e.AccessScore(accessCount)
	return clamp01(score)
}

// StorageScore is the composite score with no query context: semantic
// similarity is fixed at 0.5. Used for a document's initial score after
// ingestion and for background reclassification.
func (e *Engine) StorageScore(lastAccessed time.Time, accessCount int, now time.Time) float64 {
	return e.CompositeScore(0.5, lastAccessed, accessCount, now)
}

// ClassifyTier maps a score to a lifecycle tier. Boundary values classify
// into the higher tier: a score exactly at the active threshold is Active.
func (e *Engine) ClassifyTier(score float64) Tier {
	switch {
	case score >= e.params.ActiveThreshold:
		return TierActive
	case score >= e.params.ContextualThreshold:
		return TierContextual
	case score >= e.params.ArchivedThreshold:
		return TierArchived
	default:
		return TierDormant
	}
}

// Components returns the full score breakdown for one document.
func (e *Engine) Components(semantic float64, lastAccessed time.Time, accessCount int, now time.Time) Components {
	r := e.RecencyScore(lastAccessed, now)
	a := e.AccessScore(accessCount)
	return Components{
		Total:            e.CompositeScore(semantic, lastAccessed, accessCount, now),
		Semantic:         semantic,
		Recency:          r,
		Access:           a,
		SemanticWeighted: e.params.SemanticWeight * semantic,
		RecencyWeighted:  e.params.RecencyWeight * r,
		AccessWeighted:   e.params.AccessWeight * a,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
