package explain

import (
	"fmt"
	"math"
	"time"

	"neurovault/internal/cognition"
)

// Explanation is the structured rationale for one retrieval result.
// It is a flat value object the caller can render directly.
type Explanation struct {
	FinalScore         float64        `json:"final_score"`
	SemanticSimilarity float64        `json:"semantic_similarity"`
	SemanticPercentage int            `json:"semantic_percentage"`
	SemanticWeighted   float64        `json:"semantic_weighted"`
	RecencyScore       float64        `json:"recency_score"`
	RecencyWeighted    float64        `json:"recency_weighted"`
	RecencyLabel       string         `json:"recency_label"`
	AccessScore        float64        `json:"access_score"`
	AccessWeighted     float64        `json:"access_weighted"`
	AccessLabel        string         `json:"access_label"`
	Tier               cognition.Tier `json:"tier"`
	TierColor          string         `json:"tier_color"`
	TierDescription    string         `json:"tier_description"`
	Summary            string         `json:"explanation"`
}

// Explainer builds human-readable explanations for retrieval results.
type Explainer struct {
	engine *cognition.Engine
}

// NewExplainer creates an explainer backed by the given scoring engine.
func NewExplainer(engine *cognition.Engine) *Explainer {
	return &Explainer{engine: engine}
}

// Build computes the score breakdown and labels for one document.
// It has no side effects and is deterministic given the same "now" instant.
func (e *Explainer) Build(
	documentID string,
	filename string,
	semanticSimilarity float64,
	lastAccessed time.Time,
	accessCount int,
	createdAt time.Time,
	tier cognition.Tier,
	now time.Time,
) Explanation {
	components := e.engine.Components(semanticSimilarity, lastAccessed, accessCount, now)

	days := daysSince(lastAccessed, now)
	daysSinceCreated := daysSince(createdAt, now)

	semanticPct := int(math.Round(semanticSimilarity * 100))
	recencyLbl := recencyLabel(days)
	accessLbl := accessLabel(accessCount, daysSinceCreated)

	summary := fmt.Sprintf(
		"Matched %d%% semantically to your query. %s. %s. Classified as %s (%s).",
		semanticPct, recencyLbl, accessLbl, tier, tier.Description(),
	)

	return Explanation{
		FinalScore:         components.Total,
		SemanticSimilarity: components.Semantic,
		SemanticPercentage: semanticPct,
		SemanticWeighted:   components.SemanticWeighted,
		RecencyScore:       components.Recency,
		RecencyWeighted:    components.RecencyWeighted,
		RecencyLabel:       recencyLbl,
		AccessScore:        components.Access,
		AccessWeighted:     components.AccessWeighted,
		AccessLabel:        accessLbl,
		Tier:               tier,
		TierColor:          tier.Color(),
		TierDescription:    tier.Description(),
		Summary:            summary,
	}
}

func daysSince(t, now time.Time) float64 {
	return math.Max(0, now.Sub(t).Hours()/24)
}

// recencyLabel buckets elapsed days into a display label.
func recencyLabel(days float64) string {
	switch {
	case days < 1:
		return "Accessed today"
	case days < 3:
		return "Recent activity detected"
	case days < 7:
		return "Accessed this week"
	case days < 30:
		return "Accessed this month"
	default:
		return fmt.Sprintf("Last accessed %d days ago", int(days))
	}
}

// accessLabel derives a frequency label from the per-week access rate since
// the document was created. Days since creation is floored at 1 so a
// brand-new document does not blow up the rate.
func accessLabel(count int, daysSinceCreated float64) string {
	if daysSinceCreated < 1 {
		daysSinceCreated = 1
	}
	perWeek := float64(count) / math.Max(1, daysSinceCreated/7)
	switch {
	case perWeek >= 5:
		return fmt.Sprintf("%d× accessed — very frequent", count)
	case perWeek >= 2:
		return fmt.Sprintf("%d× accessed this period — frequent", count)
	case count >= 3:
		return fmt.Sprintf("%d× accessed", count)
	case count == 1:
		return "Accessed once"
	default:
		return "Rarely accessed"
	}
}
