package server

import (
	"net/http"

	"github.com/canopy-labs/knowledgebot/internal/api"
	"github.com/canopy-labs/knowledgebot/internal/api/handlers"
	"github.com/canopy-labs/knowledgebot/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	SourceHandler *handlers.SourceHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 25 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant)

		r.Route("/sources", func(r chi.Router) {
			r.Post("/", cfg.SourceHandler.Create)
			r.Get("/", cfg.SourceHandler.List)
			r.Get("/{id}", cfg.SourceHandler.Get)
			r.Put("/{id}", cfg.SourceHandler.Update)
			r.Delete("/{id}", cfg.SourceHandler.Delete)
			r.Post("/{id}/ingest", cfg.SourceHandler.IngestNow)
			r.Get("/{id}/history", cfg.SourceHandler.History)
		})
	})

	return r
}
