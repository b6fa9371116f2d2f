package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"neurovault/internal/storage"
)

func TestHealthHandler(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	handler := NewHealthHandler(db)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}
	if resp.Checks["database"] != "ok" {
		t.Errorf("Checks = %v, want database ok", resp.Checks)
	}
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_ = db.Close()

	handler := NewHealthHandler(db)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "unhealthy" || len(resp.Issues) == 0 {
		t.Errorf("response = %+v, want unhealthy with issues", resp)
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	handler := NewHealthHandler(db)
	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
