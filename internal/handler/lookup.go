package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/types"
	"github.com/Lagunov2003/practice-registry/internal/workspace"
)

// LookupHandler exposes the suggestion lookups.
type LookupHandler struct {
	lookup workspace.Searcher
	log    *zap.Logger
}

// NewLookupHandler creates a LookupHandler.
func NewLookupHandler(lookup workspace.Searcher, log *zap.Logger) *LookupHandler {
	return &LookupHandler{lookup: lookup, log: logging.OrNop(log).Named("api")}
}

// Search returns the suggestions of one domain.
// GET /api/lookup/{domain}?q=
func (h *LookupHandler) Search(w http.ResponseWriter, r *http.Request) {
	domain, err := types.ParseDomain(chi.URLParam(r, "domain"))
	if err != nil {
		writeError(w, h.log, http.StatusNotFound, "UNKNOWN_DOMAIN", err.Error())
		return
	}
	items, err := h.lookup.Search(r.Context(), domain, r.URL.Query().Get("q"))
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	if items == nil {
		items = []types.Suggestion{}
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{"domain": domain, "items": items})
}
