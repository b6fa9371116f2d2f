package storage

import (
	"context"
	"testing"
	"time"
)

func TestAccessLogRepo_InsertAndList(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	logs := NewAccessLogRepo(db)
	ctx := context.Background()

	if err := docs.Insert(ctx, testDocument("doc-1", "u1", 0.5)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := &AccessLogRecord{
			DocumentID:     "doc-1",
			UserID:         "u1",
			AccessedAt:     base.Add(time.Duration(i) * time.Hour),
			QueryUsed:      "deployment checklist",
			RelevanceScore: 0.7,
		}
		if err := logs.Insert(ctx, entry); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if entry.ID == 0 {
			t.Error("Insert() did not backfill the entry ID")
		}
	}

	entries, err := logs.ListByDocument(ctx, "doc-1", 0)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ListByDocument() returned %d entries, want 3", len(entries))
	}
	// Newest first.
	if !entries[0].AccessedAt.After(entries[1].AccessedAt) {
		t.Errorf("entries not newest-first: %v then %v", entries[0].AccessedAt, entries[1].AccessedAt)
	}
	if entries[0].AccessType != "search" {
		t.Errorf("AccessType = %q, want default %q", entries[0].AccessType, "search")
	}

	limited, err := logs.ListByDocument(ctx, "doc-1", 2)
	if err != nil {
		t.Fatalf("ListByDocument() limited error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListByDocument(limit=2) returned %d entries, want 2", len(limited))
	}
}

func TestAccessLogRepo_CascadeDelete(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	logs := NewAccessLogRepo(db)
	ctx := context.Background()

	if err := docs.Insert(ctx, testDocument("doc-1", "u1", 0.5)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	entry := &AccessLogRecord{DocumentID: "doc-1", UserID: "u1", AccessedAt: time.Now(), AccessType: "direct"}
	if err := logs.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := docs.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	entries, err := logs.ListByDocument(ctx, "doc-1", 0)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("access logs survived document deletion: %v", entries)
	}
}
