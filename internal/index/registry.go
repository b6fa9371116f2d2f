package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry implements Store with one in-memory flat index per user, loaded
// lazily from an on-disk snapshot (or created empty) on first access and
// cached for the lifetime of the process.
//
// Operations on different users run fully in parallel. Within one user's
// index, mutations are serialized behind a write lock while searches proceed
// concurrently under a read lock.
type Registry struct {
	dir    string
	dim    int
	logger *slog.Logger

	mu    sync.Mutex
	users map[string]*userIndex
}

// userIndex holds one user's vectors and id-map. Local ids are assigned
// monotonically from zero and never reused; since vectors are never removed
// from the slice, a vector's local id is its slice position.
type userIndex struct {
	mu      sync.RWMutex
	dim     int
	path    string
	vectors [][]float32
	idMap   map[int64]string

	// dirty flags an in-memory state that failed to persist. The next
	// mutating operation retries the flush so memory and disk never stay
	// silently diverged.
	dirty bool
}

// NewRegistry creates a registry that stores one snapshot file per user
// under dir. dim is the fixed vector dimensionality for every index.
func NewRegistry(dir string, dim int) (*Registry, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dim)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	return &Registry{
		dir:    dir,
		dim:    dim,
		logger: slog.Default(),
		users:  make(map[string]*userIndex),
	}, nil
}

// handle returns the cached index for a user, loading the snapshot or
// creating an empty index under a compare-and-insert on first access.
func (r *Registry) handle(userID string) (*userIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[userID]; ok {
		return u, nil
	}

	u := &userIndex{
		dim:   r.dim,
		path:  filepath.Join(r.dir, snapshotFilename(userID)),
		idMap: make(map[int64]string),
	}
	if _, err := os.Stat(u.path); err == nil {
		if err := u.load(); err != nil {
			return nil, fmt.Errorf("load index snapshot for user %q: %w", userID, err)
		}
		r.logger.Info("loaded index snapshot", "user_id", userID, "vectors", len(u.vectors))
	} else {
		r.logger.Info("created empty index", "user_id", userID)
	}
	r.users[userID] = u
	return u, nil
}

// Add implements Store.
func (r *Registry) Add(ctx context.Context, userID, documentID string, vectors [][]float32) ([]int64, error) {
	u, err := r.handle(userID)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	// Validate every vector before mutating anything: no partial inserts.
	for _, vec := range vectors {
		if len(vec) != u.dim {
			return nil, &DimensionMismatchError{Want: u.dim, Got: len(vec)}
		}
	}

	ids := make([]int64, 0, len(vectors))
	for _, vec := range vectors {
		id := int64(len(u.vectors))
		u.vectors = append(u.vectors, normalize(vec))
		u.idMap[id] = documentID
		ids = append(ids, id)
	}

	if err := u.persist(); err != nil {
		return nil, fmt.Errorf("persist index snapshot for user %q: %w", userID, err)
	}
	return ids, nil
}

// Search implements Store.
func (r *Registry) Search(ctx context.Context, userID string, query []float32, k int) ([]Candidate, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	u, err := r.handle(userID)
	if err != nil {
		return nil, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	if len(u.vectors) == 0 {
		return nil, nil
	}
	if len(query) != u.dim {
		return nil, &DimensionMismatchError{Want: u.dim, Got: len(query)}
	}

	type hit struct {
		id    int64
		score float32
	}
	hits := make([]hit, len(u.vectors))
	for i, vec := range u.vectors {
		hits[i] = hit{id: int64(i), score: dot(query, vec)}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	// Oversample to absorb duplicate per-document chunks and orphans.
	oversample := k * 5
	if oversample > len(hits) {
		oversample = len(hits)
	}
	hits = hits[:oversample]

	// Collapse per document, keeping the maximum chunk score. Orphaned ids
	// resolve to no document and are silently dropped.
	best := make(map[string]float32)
	for _, h := range hits {
		docID, ok := u.idMap[h.id]
		if !ok {
			continue
		}
		if s, seen := best[docID]; !seen || h.score > s {
			best[docID] = h.score
		}
	}

	results := make([]Candidate, 0, len(best))
	for docID, score := range best {
		results = append(results, Candidate{DocumentID: docID, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	return results, nil
}

// RemoveDocument implements Store.
func (r *Registry) RemoveDocument(ctx context.Context, userID string, localIDs []int64) error {
	u, err := r.handle(userID)
	if err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	for _, id := range localIDs {
		delete(u.idMap, id)
	}
	if err := u.persist(); err != nil {
		return fmt.Errorf("persist index snapshot for user %q: %w", userID, err)
	}
	return nil
}

// Rebuild implements Store.
func (r *Registry) Rebuild(ctx context.Context, userID string) (map[string][]int64, error) {
	u, err := r.handle(userID)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	mapped := make([]int64, 0, len(u.idMap))
	for id := range u.idMap {
		mapped = append(mapped, id)
	}
	sort.Slice(mapped, func(i, j int) bool { return mapped[i] < mapped[j] })

	newVectors := make([][]float32, 0, len(mapped))
	newIDMap := make(map[int64]string, len(mapped))
	remap := make(map[string][]int64)
	for _, oldID := range mapped {
		docID := u.idMap[oldID]
		newID := int64(len(newVectors))
		newVectors = append(newVectors, u.vectors[oldID])
		newIDMap[newID] = docID
		remap[docID] = append(remap[docID], newID)
	}

	dropped := len(u.vectors) - len(newVectors)
	u.vectors = newVectors
	u.idMap = newIDMap

	if err := u.persist(); err != nil {
		return nil, fmt.Errorf("persist index snapshot for user %q: %w", userID, err)
	}
	r.logger.Info("rebuilt index", "user_id", userID, "vectors", len(newVectors), "orphans_dropped", dropped)
	return remap, nil
}

// Stats implements Store.
func (r *Registry) Stats(ctx context.Context, userID string) (Stats, error) {
	u, err := r.handle(userID)
	if err != nil {
		return Stats{}, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	return Stats{
		TotalVectors:    len(u.vectors),
		MappedVectors:   len(u.idMap),
		OrphanedVectors: len(u.vectors) - len(u.idMap),
		Dimension:       u.dim,
	}, nil
}

// snapshotFilename maps a user id to a safe snapshot file name.
func snapshotFilename(userID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(userID)
	return fmt.Sprintf("index_%s.nvx", safe)
}

// normalize returns an L2-normalized copy of vec. A zero vector is copied
// unchanged.
func normalize(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
