// Package api serves the heroes collection as JSON over HTTP.
//
// Routes follow the in-memory web API the heroes front end was written
// against:
//
//	GET    /api/heroes           all heroes
//	GET    /api/heroes/?name=t   heroes whose name matches t
//	GET    /api/heroes/?id=n     list holding hero n, or empty
//	GET    /api/heroes/{id}      one hero, 404 when missing
//	POST   /api/heroes           create; the store assigns the id
//	PUT    /api/heroes           replace by body id, creating when missing
//	DELETE /api/heroes/{id}      delete; a missing id succeeds
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/runger/heroes/internal/metrics"
	"github.com/runger/heroes/internal/storage"
)

// Router wires the heroes handlers onto a chi mux.
type Router struct {
	store   storage.Store
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewRouter creates a router over store. metrics may be nil.
func NewRouter(store storage.Store, m *metrics.Collector, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{store: store, metrics: m, logger: logger}
}

// Setup configures middleware and routes.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(accessLog(rt.logger, rt.metrics))

	router.Get("/health", rt.healthCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	h := &heroHandler{store: rt.store, metrics: rt.metrics, logger: rt.logger}
	router.Route("/api/heroes", func(r chi.Router) {
		r.Get("/", h.query)
		r.Post("/", h.create)
		r.Put("/", h.replace)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.delete)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
