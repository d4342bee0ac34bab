package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/activity"
	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// ActivityHandler serves the mutation feed.
type ActivityHandler struct {
	store activity.Store
	log   *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store activity.Store, log *zap.Logger) *ActivityHandler {
	return &ActivityHandler{store: store, log: logging.OrNop(log)}
}

// HandleGetActivity returns the feed, newest first. With entity_type and
// entity_id it returns every entry of that entity, paginated by cursor;
// otherwise one entry per recent event.
// GET /api/activity
func (h *ActivityHandler) HandleGetActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := activity.DefaultQueryOptions()
	if s := q.Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			opts.Since = &t
		}
	}
	if u := q.Get("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			opts.Until = &t
		}
	}
	if et := q.Get("event_types"); et != "" {
		opts.EventTypes = strings.Split(et, ",")
	}
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			if n > 500 {
				n = 500
			}
			opts.Limit = n
		}
	}
	opts.Cursor = q.Get("cursor")

	resp := struct {
		Activities []types.ActivityEntry `json:"activities"`
		NextCursor string                `json:"next_cursor,omitempty"`
		TotalCount int                   `json:"total_count"`
	}{}

	entityType, entityID := q.Get("entity_type"), q.Get("entity_id")
	switch {
	case entityType != "" && entityID != "":
		entries, next, total, err := h.store.QueryByEntity(r.Context(), entityType, entityID, opts)
		if err != nil {
			writeError(w, h.log, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
			return
		}
		resp.Activities, resp.NextCursor, resp.TotalCount = entries, next, total
	case entityType != "" || entityID != "":
		writeError(w, h.log, http.StatusBadRequest, "MISSING_PARAMS", "entity_type and entity_id go together")
		return
	default:
		entries, err := h.store.Recent(r.Context(), opts)
		if err != nil {
			writeError(w, h.log, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
			return
		}
		resp.Activities, resp.TotalCount = entries, len(entries)
	}
	if resp.Activities == nil {
		resp.Activities = []types.ActivityEntry{}
	}
	writeJSON(w, h.log, http.StatusOK, resp)
}
