package mockbackend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

const (
	statusSuccess = "success"
	statusError   = "error"
	topLimit      = 3
)

// Handler serves the backend endpoints from a Store.
type Handler struct {
	store *Store
	log   *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(store *Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: logging.OrNop(log).Named("mockbackend")}
}

// Routes returns the router of every backend endpoint.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(practiceapi.EndpointTop, h.getTop)
	r.Get(practiceapi.EndpointPractices, h.getPractices)
	r.Post(practiceapi.EndpointCreate, h.postPractice)
	r.Patch(practiceapi.EndpointGrade, h.patchGrade)
	r.Patch(practiceapi.EndpointComplete, h.patchComplete)

	r.Get(practiceapi.EndpointStudents, lookup(h, "ContextName", h.store.SearchStudents))
	r.Get(practiceapi.EndpointUniversities, lookup(h, "ContextUni", h.store.SearchUniversities))
	r.Get(practiceapi.EndpointDepartments, lookup(h, "ContextDep", h.store.SearchDepartments))
	r.Get(practiceapi.EndpointSupervisors, lookup(h, "ContextSup", h.store.SearchSupervisors))
	r.Get(practiceapi.EndpointOrganizations, lookup(h, "ContextOrg", h.store.SearchOrganizations))
	return r
}

func (h *Handler) getTop(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.Top(r.Context(), topLimit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeRows(w, rows)
}

func (h *Handler) getPractices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Year:        strings.TrimSpace(q.Get("ContextYear")),
		Type:        strings.TrimSpace(q.Get("ContextType")),
		University:  q.Get("ContextUni"),
		Department:  q.Get("ContextDepart"),
		Org:         q.Get("ContextOrg"),
		StudentName: q.Get("ContextStudentName"),
		Ascending:   strings.EqualFold(strings.TrimSpace(q.Get("SortOrder")), "date,ASC"),
	}
	if s := q.Get("ContextStatus"); s != "" {
		completed, err := strconv.ParseBool(s)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "ContextStatus must be true or false")
			return
		}
		f.Completed = &completed
	}
	rows, err := h.store.List(r.Context(), f)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeRows(w, rows)
}

func (h *Handler) postPractice(w http.ResponseWriter, r *http.Request) {
	var p practiceapi.CreatePayload
	if err := decodeJSON(r, &p); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch {
	case p.StudentID <= 0:
		writeFailure(w, http.StatusBadRequest, "student_id is required")
		return
	case !types.PracticeType(p.PracticeType).Valid():
		writeFailure(w, http.StatusBadRequest, "unknown practice_type: "+p.PracticeType)
		return
	case p.StartDate == "" || p.EndDate == "":
		writeFailure(w, http.StatusBadRequest, "start_date and end_date are required")
		return
	}
	id, err := h.store.CreatePractice(r.Context(), p)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.log.Info("practice created", zap.Int64("id", id), zap.Int64("student_id", p.StudentID))
	writeJSON(w, http.StatusOK, practiceapi.Result{Status: statusSuccess})
}

func (h *Handler) patchGrade(w http.ResponseWriter, r *http.Request) {
	var p practiceapi.GradePayload
	if err := decodeJSON(r, &p); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, ok := parseID(w, p.ID)
	if !ok {
		return
	}
	if err := h.store.UpdateGrade(r.Context(), id, p.Grade); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, practiceapi.Result{Status: statusSuccess})
}

func (h *Handler) patchComplete(w http.ResponseWriter, r *http.Request) {
	var p practiceapi.CompletePayload
	if err := decodeJSON(r, &p); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, ok := parseID(w, p.ID)
	if !ok {
		return
	}
	if err := h.store.Complete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, practiceapi.Result{Status: statusSuccess})
}

// lookup builds a name-search endpoint reading its query from param.
func lookup[T any](h *Handler, param string, find func(ctx context.Context, q string) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get(param)
		if strings.TrimSpace(q) == "" {
			writeFailure(w, http.StatusBadRequest, param+" is required")
			return
		}
		rows, err := find(r.Context(), q)
		if err != nil {
			h.fail(w, err)
			return
		}
		writeRows(w, rows)
	}
}

// fail maps store errors onto the error envelope.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeFailure(w, http.StatusNotFound, "practice not found")
	case errors.Is(err, ErrUnknownStudent), errors.Is(err, ErrUnknownRelation):
		writeFailure(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("store error", zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, "internal error")
	}
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		writeFailure(w, http.StatusBadRequest, "invalid id: "+raw)
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeRows[T any](w http.ResponseWriter, rows []T) {
	if rows == nil {
		rows = []T{}
	}
	writeJSON(w, http.StatusOK, practiceapi.Envelope[T]{Status: statusSuccess, CountRows: len(rows), Rows: rows})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": statusError, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
