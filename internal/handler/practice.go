// Package handler implements the HTTP surface of the admin server: the
// JSON API over the practice backend and the server-rendered pages.
package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/event"
	"github.com/Lagunov2003/practice-registry/internal/form"
	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/types"
	"github.com/Lagunov2003/practice-registry/internal/workspace"
)

// PracticeHandler implements the practice JSON API.
type PracticeHandler struct {
	backend  workspace.Backend
	recorder event.Recorder
	log      *zap.Logger
}

// NewPracticeHandler creates a PracticeHandler. recorder may be nil.
func NewPracticeHandler(backend workspace.Backend, recorder event.Recorder, log *zap.Logger) *PracticeHandler {
	return &PracticeHandler{backend: backend, recorder: recorder, log: logging.OrNop(log).Named("api")}
}

// GetTop returns the landing records.
// GET /api/top
func (h *PracticeHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	list, err := h.backend.FetchTop(r.Context(), workspace.TopCount)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{"practices": nonNil(list)})
}

// ListPractices returns the registry filtered by query parameters.
// GET /api/practices
func (h *PracticeHandler) ListPractices(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)
	list, err := h.backend.FetchList(r.Context(), filters)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"practices":   nonNil(list),
		"total_count": len(list),
		"filters":     filters,
	})
}

// CreatePractice validates the body with the form rules and creates it.
// POST /api/practices
func (h *PracticeHandler) CreatePractice(w http.ResponseWriter, r *http.Request) {
	var p types.Practice
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if p.PracticeType == "" {
		p.PracticeType = types.PracticeIndustrial
	}
	p.PracticeType = types.ParsePracticeType(string(p.PracticeType))
	p.Status = types.ParseStatus(string(p.Status))

	f := form.NewCreateFrom(p)
	err := f.Submit(r.Context(), func(ctx context.Context, s form.Submission) error {
		if _, err := h.backend.Create(ctx, s.Practice); err != nil {
			return err
		}
		h.record(ctx, event.NewPracticeCreated("", event.PracticeCreatedPayload{
			StudentID:      s.Practice.StudentID,
			StudentName:    s.Practice.StudentName,
			PracticeType:   s.Practice.PracticeType,
			Company:        s.Practice.Company,
			OrganizationID: s.Practice.OrganizationID,
			StartDate:      s.Practice.StartDate,
			EndDate:        s.Practice.EndDate,
		}))
		return nil
	})
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, map[string]string{"status": "success"})
}

// UpdateGrade sets the grade of a practice.
// PATCH /api/practices/{id}/grade
func (h *PracticeHandler) UpdateGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, h.log, r, "id")
	if !ok {
		return
	}
	var req struct {
		Grade string `json:"grade"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if _, err := h.backend.UpdateGrade(r.Context(), id, strings.TrimSpace(req.Grade)); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	h.record(r.Context(), event.NewGradeUpdated("", event.GradeUpdatedPayload{PracticeID: id, Grade: strings.TrimSpace(req.Grade)}))
	writeJSON(w, h.log, http.StatusOK, map[string]string{"status": "success"})
}

// CompletePractice marks a practice completed.
// POST /api/practices/{id}/complete
func (h *PracticeHandler) CompletePractice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, h.log, r, "id")
	if !ok {
		return
	}
	if _, err := h.backend.MarkCompleted(r.Context(), id); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	h.record(r.Context(), event.NewPracticeCompleted("", event.PracticeCompletedPayload{PracticeID: id}))
	writeJSON(w, h.log, http.StatusOK, map[string]string{"status": "success"})
}

// record records a domain event if a recorder is configured. Failures are
// logged and never fail the request.
func (h *PracticeHandler) record(ctx context.Context, evt event.DomainEvent) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(ctx, evt); err != nil {
		h.log.Warn("event recording failed", zap.String("type", evt.EventType), zap.Error(err))
	}
}

func nonNil(list []types.Practice) []types.Practice {
	if list == nil {
		return []types.Practice{}
	}
	return list
}
