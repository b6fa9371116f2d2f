package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func testDocument(id, userID string, score float64) *DocumentRecord {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &DocumentRecord{
		ID:             id,
		UserID:         userID,
		Filename:       "notes.md",
		FileType:       "md",
		ContentText:    "chunked content",
		ChunkCount:     2,
		Tier:           "Contextual",
		CognitiveScore: score,
		SemanticScore:  0.5,
		AccessCount:    0,
		LastAccessed:   now,
		CreatedAt:      now,
		IndexIDs:       []int64{0, 1},
		FileSize:       1024,
		ProjectTags:    []string{"alpha", "beta"},
		Description:    "test document",
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestDocumentRepo_InsertAndGet(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	doc := testDocument("doc-1", "u1", 0.6)
	if err := repo.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Filename != doc.Filename || got.UserID != doc.UserID || got.Tier != doc.Tier {
		t.Errorf("GetByID() = %+v, want fields of %+v", got, doc)
	}
	if len(got.IndexIDs) != 2 || got.IndexIDs[0] != 0 || got.IndexIDs[1] != 1 {
		t.Errorf("IndexIDs = %v, want [0 1]", got.IndexIDs)
	}
	if len(got.ProjectTags) != 2 || got.ProjectTags[0] != "alpha" {
		t.Errorf("ProjectTags = %v, want [alpha beta]", got.ProjectTags)
	}
	if !got.LastAccessed.Equal(doc.LastAccessed) {
		t.Errorf("LastAccessed = %v, want %v", got.LastAccessed, doc.LastAccessed)
	}
}

func TestDocumentRepo_GetByID_NotFound(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_ListByUser(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	for _, d := range []*DocumentRecord{
		testDocument("doc-low", "u1", 0.2),
		testDocument("doc-high", "u1", 0.9),
		testDocument("doc-mid", "u1", 0.5),
		testDocument("doc-other", "u2", 0.99),
	} {
		if err := repo.Insert(ctx, d); err != nil {
			t.Fatalf("Insert(%s) error = %v", d.ID, err)
		}
	}

	docs, err := repo.ListByUser(ctx, "u1", "", 0, 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("ListByUser() returned %d docs, want 3", len(docs))
	}
	if docs[0].ID != "doc-high" || docs[1].ID != "doc-mid" || docs[2].ID != "doc-low" {
		t.Errorf("ListByUser() order = [%s %s %s], want score-descending", docs[0].ID, docs[1].ID, docs[2].ID)
	}

	// Pagination.
	page, err := repo.ListByUser(ctx, "u1", "", 1, 1)
	if err != nil {
		t.Fatalf("ListByUser() paged error = %v", err)
	}
	if len(page) != 1 || page[0].ID != "doc-mid" {
		t.Errorf("ListByUser() page = %v, want [doc-mid]", page)
	}
}

func TestDocumentRepo_ListByUser_TierFilter(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	active := testDocument("doc-active", "u1", 0.9)
	active.Tier = "Active"
	dormant := testDocument("doc-dormant", "u1", 0.1)
	dormant.Tier = "Dormant"
	for _, d := range []*DocumentRecord{active, dormant} {
		if err := repo.Insert(ctx, d); err != nil {
			t.Fatalf("Insert(%s) error = %v", d.ID, err)
		}
	}

	docs, err := repo.ListByUser(ctx, "u1", "Active", 0, 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-active" {
		t.Errorf("ListByUser(tier=Active) = %v, want only doc-active", docs)
	}
}

func TestDocumentRepo_Delete(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testDocument("doc-1", "u1", 0.5)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := repo.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() of missing document error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_UpdateLifecycle(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testDocument("doc-1", "u1", 0.5)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	accessed := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	if err := repo.UpdateLifecycle(ctx, "doc-1", 5, accessed, 0.82, "Active"); err != nil {
		t.Fatalf("UpdateLifecycle() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.AccessCount != 5 || got.CognitiveScore != 0.82 || got.Tier != "Active" {
		t.Errorf("after UpdateLifecycle: count=%d score=%v tier=%s, want 5 0.82 Active",
			got.AccessCount, got.CognitiveScore, got.Tier)
	}
	if !got.LastAccessed.Equal(accessed) {
		t.Errorf("LastAccessed = %v, want %v", got.LastAccessed, accessed)
	}

	if err := repo.UpdateLifecycle(ctx, "missing", 1, accessed, 0.1, "Dormant"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateLifecycle() of missing document error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_UpdateScores(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"doc-1", "doc-2"} {
		if err := repo.Insert(ctx, testDocument(id, "u1", 0.5)); err != nil {
			t.Fatalf("Insert(%s) error = %v", id, err)
		}
	}

	updates := []ScoreUpdate{
		{ID: "doc-1", SemanticScore: 0.91, CognitiveScore: 0.8, Tier: "Active"},
		{ID: "doc-2", SemanticScore: 0.3, CognitiveScore: 0.4, Tier: "Archived"},
	}
	if err := repo.UpdateScores(ctx, updates); err != nil {
		t.Fatalf("UpdateScores() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.SemanticScore != 0.91 || got.CognitiveScore != 0.8 || got.Tier != "Active" {
		t.Errorf("doc-1 after UpdateScores = %+v, want 0.91/0.8/Active", got)
	}

	// Empty updates are a no-op, not an error.
	if err := repo.UpdateScores(ctx, nil); err != nil {
		t.Errorf("UpdateScores(nil) error = %v", err)
	}
}

func TestDocumentRepo_UpdateIndexIDs(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testDocument("doc-1", "u1", 0.5)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := repo.UpdateIndexIDs(ctx, "doc-1", []int64{7, 8, 9}); err != nil {
		t.Fatalf("UpdateIndexIDs() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.IndexIDs) != 3 || got.IndexIDs[0] != 7 {
		t.Errorf("IndexIDs = %v, want [7 8 9]", got.IndexIDs)
	}
}

func TestDocumentRepo_ListAll(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	for _, d := range []*DocumentRecord{
		testDocument("doc-1", "u1", 0.5),
		testDocument("doc-2", "u2", 0.7),
	} {
		if err := repo.Insert(ctx, d); err != nil {
			t.Fatalf("Insert(%s) error = %v", d.ID, err)
		}
	}

	docs, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("ListAll() returned %d docs, want 2", len(docs))
	}
}
