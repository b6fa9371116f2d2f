package search

import (
	"neurovault/internal/cognition"
	"neurovault/internal/explain"
)

// Request represents one search over a user's documents.
type Request struct {
	// Query is the raw query text. Blank queries are rejected.
	Query string `json:"query"`
	// UserID selects the per-user index and scopes document ownership.
	UserID string `json:"user_id"`
	// K is the desired result count. Zero means the default of 5.
	K int `json:"k,omitempty"`
	// MinScore drops results whose composite score falls below it.
	MinScore float64 `json:"min_score,omitempty"`
	// TierFilter keeps only documents classifying into the given tier.
	TierFilter cognition.Tier `json:"tier_filter,omitempty"`
}

// Result is one ranked, explained search hit.
type Result struct {
	DocumentID     string              `json:"document_id"`
	Filename       string              `json:"filename"`
	FileType       string              `json:"file_type"`
	Tier           cognition.Tier      `json:"tier"`
	FinalScore     float64             `json:"final_score"`
	ContentSnippet string              `json:"content_snippet"`
	Breakdown      explain.Explanation `json:"breakdown"`
	Rank           int                 `json:"rank"`
}

// Response is the full search response.
type Response struct {
	Query        string   `json:"query"`
	TotalResults int      `json:"total_results"`
	Results      []Result `json:"results"`
	QueryTimeMs  float64  `json:"query_time_ms"`
}
