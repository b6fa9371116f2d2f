package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"neurovault/internal/cognition"
	"neurovault/internal/storage"
	storage_mocks "neurovault/internal/storage/mocks"
)

func newAnalyticsFixture(t *testing.T) (*AnalyticsService, *storage_mocks.MockDocumentStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	engine, err := cognition.NewEngine(cognition.DefaultParams())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	mockDocs := storage_mocks.NewMockDocumentStore(ctrl)
	return NewAnalyticsService(mockDocs, engine), mockDocs
}

func analyticsCorpus() []storage.DocumentRecord {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return []storage.DocumentRecord{
		{ID: "doc-1", Filename: "a.md", Tier: "Active", CognitiveScore: 0.9, CreatedAt: now, LastAccessed: now},
		{ID: "doc-2", Filename: "b.md", Tier: "Active", CognitiveScore: 0.8, CreatedAt: now, LastAccessed: now},
		{ID: "doc-3", Filename: "c.md", Tier: "Contextual", CognitiveScore: 0.6, CreatedAt: now, LastAccessed: now},
		{ID: "doc-4", Filename: "d.md", Tier: "Dormant", CognitiveScore: 0.1, CreatedAt: now, LastAccessed: now},
	}
}

func TestOverview(t *testing.T) {
	svc, mockDocs := newAnalyticsFixture(t)
	mockDocs.EXPECT().ListByUser(gomock.Any(), "u1", "", 0, 0).Return(analyticsCorpus(), nil)

	overview, err := svc.Overview(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}

	if overview.TotalDocuments != 4 {
		t.Errorf("TotalDocuments = %d, want 4", overview.TotalDocuments)
	}
	wantAvg := (0.9 + 0.8 + 0.6 + 0.1) / 4
	if math.Abs(overview.AvgCognitiveScore-wantAvg) > 1e-9 {
		t.Errorf("AvgCognitiveScore = %v, want %v", overview.AvgCognitiveScore, wantAvg)
	}

	// Every tier appears in the distribution, empty ones included.
	if len(overview.TierDistribution) != len(cognition.TierOrder) {
		t.Fatalf("TierDistribution has %d entries, want %d", len(overview.TierDistribution), len(cognition.TierOrder))
	}
	byTier := make(map[cognition.Tier]TierStats)
	for _, ts := range overview.TierDistribution {
		byTier[ts.Tier] = ts
	}
	if byTier[cognition.TierActive].Count != 2 {
		t.Errorf("Active count = %d, want 2", byTier[cognition.TierActive].Count)
	}
	if math.Abs(byTier[cognition.TierActive].AvgScore-0.85) > 1e-9 {
		t.Errorf("Active avg = %v, want 0.85", byTier[cognition.TierActive].AvgScore)
	}
	if byTier[cognition.TierArchived].Count != 0 {
		t.Errorf("Archived count = %d, want 0", byTier[cognition.TierArchived].Count)
	}

	if len(overview.TopDocuments) != 4 || overview.TopDocuments[0].ID != "doc-1" {
		t.Errorf("TopDocuments = %v, want the ordered corpus", overview.TopDocuments)
	}
}

func TestOverview_EmptyCorpus(t *testing.T) {
	svc, mockDocs := newAnalyticsFixture(t)
	mockDocs.EXPECT().ListByUser(gomock.Any(), "u1", "", 0, 0).Return(nil, nil)

	overview, err := svc.Overview(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if overview.TotalDocuments != 0 || overview.AvgCognitiveScore != 0 {
		t.Errorf("Overview() of empty corpus = %+v, want zeros", overview)
	}
}

func TestOverview_StoreFailure(t *testing.T) {
	svc, mockDocs := newAnalyticsFixture(t)
	mockDocs.EXPECT().ListByUser(gomock.Any(), "u1", "", 0, 0).Return(nil, errors.New("db closed"))

	if _, err := svc.Overview(context.Background(), "u1"); err == nil {
		t.Fatal("Overview() with failing store, want error")
	}
}

func TestLifecycle(t *testing.T) {
	svc, mockDocs := newAnalyticsFixture(t)
	mockDocs.EXPECT().ListByUser(gomock.Any(), "u1", "", 0, 0).Return(analyticsCorpus(), nil)

	data, err := svc.Lifecycle(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Lifecycle() error = %v", err)
	}

	if len(data.Nodes) != 4 {
		t.Fatalf("Nodes = %d, want 4", len(data.Nodes))
	}
	if data.Nodes[0].Color == "" {
		t.Error("node missing tier color")
	}
	if _, err := time.Parse(time.RFC3339, data.Nodes[0].CreatedAt); err != nil {
		t.Errorf("CreatedAt %q not RFC3339: %v", data.Nodes[0].CreatedAt, err)
	}

	if len(data.Histogram) != 10 {
		t.Fatalf("Histogram has %d buckets, want 10", len(data.Histogram))
	}
	var total int
	for _, b := range data.Histogram {
		total += b.Count
	}
	if total != 4 {
		t.Errorf("histogram counts sum to %d, want 4", total)
	}
	// 0.9 lands in the top bucket, 0.1 in the second.
	if data.Histogram[9].Count != 1 {
		t.Errorf("bucket 9 count = %d, want 1", data.Histogram[9].Count)
	}
	if data.Histogram[1].Count != 1 {
		t.Errorf("bucket 1 count = %d, want 1", data.Histogram[1].Count)
	}

	if data.TierThresholds["active"] != 0.75 || data.TierThresholds["archived"] != 0.25 {
		t.Errorf("TierThresholds = %v, want configured values", data.TierThresholds)
	}
}

func TestTierSummary(t *testing.T) {
	svc, mockDocs := newAnalyticsFixture(t)
	mockDocs.EXPECT().ListByUser(gomock.Any(), "u1", "", 0, 0).Return(analyticsCorpus(), nil)

	summary, err := svc.TierSummary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("TierSummary() error = %v", err)
	}
	if len(summary) != len(cognition.TierOrder) {
		t.Fatalf("TierSummary has %d entries, want %d", len(summary), len(cognition.TierOrder))
	}
	active := summary["Active"]
	if active.Count != 2 || active.Description == "" || active.Color == "" {
		t.Errorf("Active summary = %+v, want count 2 with display metadata", active)
	}
}
