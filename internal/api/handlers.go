package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/asterism/internal/apperr"
	"github.com/starford/asterism/internal/converter"
	"github.com/starford/asterism/internal/parser"
)

// maxSourceSize caps POST /api/convert bodies.
const maxSourceSize = 8 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *converter.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *converter.Service) *Handler {
	return &Handler{svc: svc}
}

// ListConstellations handles GET /api/constellations.
func (h *Handler) ListConstellations(w http.ResponseWriter, r *http.Request) {
	cat := h.svc.Catalog()
	if cat == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("catalog disabled"))
		return
	}
	items, err := cat.List()
	if err != nil {
		slog.Error("api: list constellations failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ConstellationListResponse{Constellations: items, Total: len(items)})
}

// GetConstellation handles GET /api/constellations/{name}.
func (h *Handler) GetConstellation(w http.ResponseWriter, r *http.Request) {
	cat := h.svc.Catalog()
	if cat == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("catalog disabled"))
		return
	}
	name := chi.URLParam(r, "name")
	c, err := cat.Get(name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("constellation not found"))
			return
		}
		slog.Error("api: get constellation failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// LatestRun handles GET /api/runs/latest.
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	cat := h.svc.Catalog()
	if cat == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("catalog disabled"))
		return
	}
	run, err := cat.LastRun()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no runs recorded"))
			return
		}
		slog.Error("api: last run failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Convert handles POST /api/convert. The body is raw source text; the
// converted set is returned and nothing is written.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSourceSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("source too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid body"))
		return
	}
	res, err := h.svc.Preview(r.Context(), data)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody("empty source"))
			return
		}
		if errors.Is(err, parser.ErrBlockNotFound) || errors.Is(err, converter.ErrNoRecords) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
			return
		}
		slog.Error("api: convert failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, ConvertResponse{
		Records:        res.Records(),
		Points:         res.Points,
		Edges:          res.Edges,
		SkippedPairs:   res.SkippedPairs,
		SourceChecksum: res.SourceChecksum,
		Output:         string(res.Output),
		Constellations: res.Constellations,
	})
}
