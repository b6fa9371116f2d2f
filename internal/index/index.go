// Package index maintains one flat similarity index per user and answers
// nearest-neighbor queries under cosine similarity. Vectors are L2-normalized
// at insertion time so inner product equals cosine similarity.
//
// Deletion is soft: removing a document only deletes its id-map entries, in
// O(k) of the ids removed. The underlying vectors stay in the index (a flat
// structure has no efficient point deletion) and keep participating in
// similarity scans as orphaned entries until a Rebuild. The trade-off is
// unbounded index growth under churn; Rebuild is the required maintenance
// path that reclaims the space.
package index

import "context"

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks neurovault/internal/index Store

// Candidate is one deduplicated search hit: a document and the maximum
// similarity across its indexed chunks.
type Candidate struct {
	DocumentID string
	Score      float32
}

// Stats describes the current shape of one user's index.
type Stats struct {
	TotalVectors    int `json:"total_vectors"`
	MappedVectors   int `json:"mapped_vectors"`
	OrphanedVectors int `json:"orphaned_vectors"`
	Dimension       int `json:"dimension"`
}

// Store defines the per-user vector index operations.
type Store interface {
	// Add appends vectors for one document, assigns each the next unused
	// local id and returns the ids in input order. The index is persisted
	// before Add returns. Fails with DimensionMismatchError, leaving the
	// index unchanged, if any vector's length differs from the configured
	// dimensionality.
	Add(ctx context.Context, userID, documentID string, vectors [][]float32) ([]int64, error)

	// Search scans all stored vectors (orphaned ones included), oversamples
	// by 5x, collapses candidates sharing a document id by keeping the
	// maximum score and returns the collapsed set sorted by score
	// descending. An empty or absent index yields an empty result, not an
	// error. Fewer than k candidates may be returned.
	Search(ctx context.Context, userID string, query []float32, k int) ([]Candidate, error)

	// RemoveDocument deletes the given local ids from the id-map only.
	// Underlying vectors remain as orphaned entries.
	RemoveDocument(ctx context.Context, userID string, localIDs []int64) error

	// Rebuild reconstructs a fresh index from only the currently mapped
	// vectors, dropping orphans. Local ids are reassigned; the returned map
	// gives each document its new ids so callers can update stored
	// references. Out-of-band maintenance, never invoked implicitly.
	Rebuild(ctx context.Context, userID string) (map[string][]int64, error)

	// Stats reports vector counts for one user's index.
	Stats(ctx context.Context, userID string) (Stats, error)
}
