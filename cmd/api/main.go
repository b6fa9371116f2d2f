package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"neurovault/internal/cognition"
	"neurovault/internal/config"
	"neurovault/internal/explain"
	"neurovault/internal/http"
	"neurovault/internal/index"
	"neurovault/internal/ingest"
	"neurovault/internal/lifecycle"
	"neurovault/internal/llm"
	"neurovault/internal/search"
	"neurovault/internal/service"
	"neurovault/internal/storage"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API provides cognitive document retrieval: semantic search re-ranked
// by recency and access frequency, with lifecycle tier management.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: NeuroVault API
//   description: |
//     Cognitive retrieval API. Documents are ingested, chunked, and embedded,
//     then retrieved by a composite score blending semantic similarity with
//     recency decay and access frequency. Each document carries a lifecycle
//     tier (Active, Contextual, Archived, Dormant) recomputed on search and
//     on a background schedule.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	documentRepo := storage.NewDocumentRepo(db)
	accessLogRepo := storage.NewAccessLogRepo(db)

	// Initialize the per-user vector index registry
	registry, err := index.NewRegistry(cfg.IndexDir, cfg.VectorDim)
	if err != nil {
		log.Fatalf("Failed to initialize index registry: %v", err)
	}
	slog.Info("Index registry initialized", "dir", cfg.IndexDir, "dimension", cfg.VectorDim)

	// Cognitive scoring engine (validates weights and tier thresholds)
	engine, err := cognition.NewEngine(cfg.Cognition)
	if err != nil {
		log.Fatalf("Invalid cognition parameters: %v", err)
	}
	explainer := explain.NewExplainer(engine)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.VectorDim)

	pipeline := ingest.NewPipeline(documentRepo, registry, embedder, engine)
	searchEngine := search.NewEngine(embedder, registry, documentRepo, engine, explainer)
	analytics := service.NewAnalyticsService(documentRepo, engine)
	slog.Info("Search engine initialized", "model", cfg.EmbeddingModelName)

	// Background lifecycle re-scoring
	rescorer := lifecycle.NewRescorer(documentRepo, engine)
	if err := rescorer.Start(cfg.RescoreSchedule); err != nil {
		log.Fatalf("Failed to start lifecycle rescorer: %v", err)
	}
	defer rescorer.Stop()
	slog.Info("Lifecycle rescorer started", "schedule", cfg.RescoreSchedule)

	// Create router with dependencies
	deps := &http.Deps{
		DB:           db,
		Documents:    documentRepo,
		AccessLogs:   accessLogRepo,
		Index:        registry,
		Pipeline:     pipeline,
		SearchEngine: searchEngine,
		Engine:       engine,
		Explainer:    explainer,
		Analytics:    analytics,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("Embedding configuration", "base_url", cfg.EmbeddingBaseURL, "model", cfg.EmbeddingModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
