// Package httpapi assembles the chi router and middleware pipeline and
// implements the issue/user/label/health handlers described in
// spec.md §4.4 and §4.6.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/joescharf/issueboard/internal/auth"
	"github.com/joescharf/issueboard/internal/config"
	"github.com/joescharf/issueboard/internal/repository"
	"github.com/joescharf/issueboard/internal/store"
)

// defaultRequestTimeout is the per-request cancellation deadline
// enforced by chimiddleware.Timeout on every request, per spec.md §4.6
// ("60 s default"). No config setting overrides it.
const defaultRequestTimeout = 60 * time.Second

// NewRouter builds the full request pipeline: request id, real IP,
// access logging, panic recovery, per-request timeout, and CORS,
// followed by the /api routes — /api/health public, everything else
// behind the API key auth middleware.
func NewRouter(cfg *config.Config, repo *repository.Repository, st *store.Store, log *slog.Logger) http.Handler {
	h := NewHandler(repo, st, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog(log))
	r.Use(recoverer(log))

	r.Use(chimiddleware.Timeout(defaultRequestTimeout))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"X-API-Key", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(corsMiddleware.Handler)

	r.Get("/api/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.APIKey))

		r.Get("/issues", h.ListIssues)
		r.Post("/issues", h.CreateIssue)
		r.Get("/issues/{id}", h.GetIssue)
		r.Patch("/issues/{id}", h.UpdateIssue)
		r.Patch("/issues/{id}/move", h.MoveIssue)
		r.Delete("/issues/{id}", h.DeleteIssue)

		r.Get("/users", h.GetUsers)
		r.Get("/labels", h.GetLabels)
	})

	return r
}
