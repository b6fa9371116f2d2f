package cognition

// Tier is a lifecycle classification derived from a document's cognitive score.
type Tier string

const (
	TierActive     Tier = "Active"
	TierContextual Tier = "Contextual"
	TierArchived   Tier = "Archived"
	TierDormant    Tier = "Dormant"
)

// TierOrder lists all tiers from hottest to coldest.
var TierOrder = []Tier{TierActive, TierContextual, TierArchived, TierDormant}

var tierColors = map[Tier]string{
	TierActive:     "#00ff88",
	TierContextual: "#00d4ff",
	TierArchived:   "#ff9500",
	TierDormant:    "#666688",
}

var tierDescriptions = map[Tier]string{
	TierActive:     "Hot Tier — frequently accessed, highly relevant",
	TierContextual: "Warm Tier — moderately relevant, recent context",
	TierArchived:   "Cold Tier — low activity, infrequent access",
	TierDormant:    "Deep Archive — rarely accessed, low relevance",
}

// Valid reports whether t is one of the four known tiers.
func (t Tier) Valid() bool {
	_, ok := tierColors[t]
	return ok
}

// Color returns the display color for the tier.
func (t Tier) Color() string {
	if c, ok := tierColors[t]; ok {
		return c
	}
	return "#888888"
}

// Description returns the human-readable description for the tier.
func (t Tier) Description() string {
	return tierDescriptions[t]
}
