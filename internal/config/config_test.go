package config

import (
	"log/slog"
	"path/filepath"
	"testing"
)

// setDataDirs keeps Load from creating ./data under the repo during tests.
func setDataDirs(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "test.db"))
	t.Setenv("INDEX_DIR", filepath.Join(dir, "indexes"))
}

func TestLoad_Defaults(t *testing.T) {
	setDataDirs(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != "9000" {
		t.Errorf("APIPort = %q, want 9000", cfg.APIPort)
	}
	if cfg.VectorDim != 384 {
		t.Errorf("VectorDim = %d, want 384", cfg.VectorDim)
	}
	if cfg.EmbeddingModelName != "all-MiniLM-L6-v2" {
		t.Errorf("EmbeddingModelName = %q, want all-MiniLM-L6-v2", cfg.EmbeddingModelName)
	}
	if cfg.Cognition.SemanticWeight != 0.6 || cfg.Cognition.RecencyWeight != 0.2 || cfg.Cognition.AccessWeight != 0.2 {
		t.Errorf("Cognition weights = %+v, want 0.6/0.2/0.2", cfg.Cognition)
	}
	if cfg.Cognition.ActiveThreshold != 0.75 {
		t.Errorf("ActiveThreshold = %v, want 0.75", cfg.Cognition.ActiveThreshold)
	}
	if cfg.RescoreSchedule != "0 3 * * *" {
		t.Errorf("RescoreSchedule = %q, want nightly default", cfg.RescoreSchedule)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
		t.Errorf("logging = %v/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setDataDirs(t)
	t.Setenv("API_PORT", "8088")
	t.Setenv("VECTOR_DIM", "768")
	t.Setenv("COGNITIVE_WEIGHT_SEMANTIC", "0.5")
	t.Setenv("TIER_ACTIVE_THRESHOLD", "0.8")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8088" || cfg.VectorDim != 768 {
		t.Errorf("overrides not applied: port %q dim %d", cfg.APIPort, cfg.VectorDim)
	}
	if cfg.Cognition.SemanticWeight != 0.5 || cfg.Cognition.ActiveThreshold != 0.8 {
		t.Errorf("Cognition overrides not applied: %+v", cfg.Cognition)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
		t.Errorf("logging = %v/%q, want debug/json", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad vector dim", "VECTOR_DIM", "not-a-number"},
		{"zero vector dim", "VECTOR_DIM", "0"},
		{"bad weight", "COGNITIVE_WEIGHT_RECENCY", "abc"},
		{"negative weight", "COGNITIVE_WEIGHT_ACCESS", "-1"},
		{"unordered thresholds", "TIER_ARCHIVED_THRESHOLD", "0.95"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"bad rescore schedule", "RESCORE_SCHEDULE", "every day at dawn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDataDirs(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s, want error", tt.key, tt.value)
			}
		})
	}
}
