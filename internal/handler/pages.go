package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/view"
	"github.com/Lagunov2003/practice-registry/internal/workspace"
)

// PageHandler renders the server-side HTML pages. A backend failure is
// shown on the page rather than as an error status.
type PageHandler struct {
	backend workspace.Backend
	log     *zap.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(backend workspace.Backend, log *zap.Logger) *PageHandler {
	return &PageHandler{backend: backend, log: logging.OrNop(log).Named("pages")}
}

// Landing renders the top records.
// GET /
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	list, err := h.backend.FetchTop(r.Context(), view.LandingLimit)
	page := view.Landing(list)
	if err != nil {
		h.log.Error("landing load failed", zap.Error(err))
		page.Error = "load failed: " + err.Error()
	}
	h.render(w, view.PageLanding, page)
}

// Registry renders the filtered registry.
// GET /registry
func (h *PageHandler) Registry(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)
	list, err := h.backend.FetchList(r.Context(), filters)
	page := view.Registry(list, filters)
	if err != nil {
		h.log.Error("registry load failed", zap.Error(err))
		page.Error = "load failed: " + err.Error()
		page.Empty = ""
	}
	h.render(w, view.PageRegistry, page)
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(w, name, data); err != nil {
		h.log.Error("render failed", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
