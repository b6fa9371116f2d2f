package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"neurovault/internal/cognition"
	"neurovault/internal/explain"
	"neurovault/internal/handlers"
	"neurovault/internal/index"
	"neurovault/internal/ingest"
	"neurovault/internal/search"
	"neurovault/internal/service"
	"neurovault/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DB           *sql.DB
	Documents    storage.DocumentStore
	AccessLogs   storage.AccessLogStore
	Index        index.Store
	Pipeline     *ingest.Pipeline
	SearchEngine search.Engine
	Engine       *cognition.Engine
	Explainer    *explain.Explainer
	Analytics    *service.AnalyticsService
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	searchHandler := handlers.NewSearchHandler(deps.SearchEngine)
	documentsHandler := handlers.NewDocumentsHandler(deps.Pipeline, deps.Documents, deps.AccessLogs, deps.Engine, deps.Explainer)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Analytics)
	indexHandler := handlers.NewIndexHandler(deps.Pipeline, deps.Index)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/search", searchHandler)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentsHandler.Create)
			r.Get("/", documentsHandler.List)
			r.Get("/{id}", documentsHandler.Get)
			r.Delete("/{id}", documentsHandler.Delete)
			r.Post("/{id}/access", documentsHandler.RecordAccess)
			r.Get("/{id}/history", documentsHandler.AccessHistory)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/", analyticsHandler.Overview)
			r.Get("/lifecycle", analyticsHandler.Lifecycle)
			r.Get("/tiers", analyticsHandler.Tiers)
		})

		r.Route("/index", func(r chi.Router) {
			r.Get("/stats", indexHandler.Stats)
			r.Post("/rebuild", indexHandler.Rebuild)
		})

		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
