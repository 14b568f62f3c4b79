package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/asterism/internal/converter"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *converter.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog.
	r.Get("/constellations", h.ListConstellations)
	r.Get("/constellations/{name}", h.GetConstellation)
	r.Get("/runs/latest", h.LatestRun)

	// Dry-run conversion.
	r.Post("/convert", h.Convert)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
