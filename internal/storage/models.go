package storage

import "time"

// DocumentRecord represents one stored document and its cached cognitive state.
type DocumentRecord struct {
	ID          string // UUID
	UserID      string
	Filename    string
	FileType    string
	ContentText string
	ChunkCount  int

	// Cognitive state, updated on every search that surfaces the document
	// and on background re-scoring.
	Tier           string
	CognitiveScore float64
	SemanticScore  float64

	// Lifecycle signals consumed by the scoring engine.
	AccessCount  int
	LastAccessed time.Time
	CreatedAt    time.Time

	// IndexIDs are the local ids of this document's vectors in the owning
	// user's similarity index (stored as JSON).
	IndexIDs []int64

	FileSize    int64
	ProjectTags []string // stored as JSON
	Description string
}

// AccessLogRecord represents one recorded access to a document.
type AccessLogRecord struct {
	ID             int64
	DocumentID     string
	UserID         string
	AccessedAt     time.Time
	QueryUsed      string
	RelevanceScore float64
	AccessType     string // search, direct, system
}

// ScoreUpdate carries the re-scored state for one document, applied
// atomically with its siblings after a search.
type ScoreUpdate struct {
	ID             string
	SemanticScore  float64
	CognitiveScore float64
	Tier           string
}
