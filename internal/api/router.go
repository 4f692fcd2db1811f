package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yegors/batchscribe/internal/storage/sqlite"
	"github.com/yegors/batchscribe/pkg/logger"
)

// Router wires the API handlers into an HTTP handler
type Router struct {
	handler *Handler
	logger  *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(runStorage *sqlite.RunStorage, log *logger.Logger) *Router {
	return &Router{
		handler: NewHandler(runStorage, log),
		logger:  log.Named("api-router"),
	}
}

// Routes returns the configured route tree
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", rt.handler.GetRuns)
		r.Get("/runs/{id}", rt.handler.GetRun)
		r.Get("/runs/{id}/files", rt.handler.GetRunFiles)
	})

	return r
}
