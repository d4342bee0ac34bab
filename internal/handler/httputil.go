package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/form"
	"github.com/Lagunov2003/practice-registry/internal/lookup"
	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// writeJSON marshals v as JSON and writes it with the given status code.
// Encode failures go to log; the status line is already sent by then.
func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("writeJSON encode error", zap.Error(err))
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, log *zap.Logger, status int, code, message string) {
	writeJSON(w, log, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseID extracts and validates a numeric path parameter.
func parseID(w http.ResponseWriter, log *zap.Logger, r *http.Request, paramName string) (int64, bool) {
	raw := chi.URLParam(r, paramName)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, log, http.StatusBadRequest, "INVALID_ID", "invalid id: "+raw)
		return 0, false
	}
	return id, true
}

// filtersFromQuery reads registry criteria from query parameters.
func filtersFromQuery(r *http.Request) types.FilterSet {
	q := r.URL.Query()
	return types.FilterSet{
		Year:        q.Get("year"),
		Status:      q.Get("status"),
		Type:        q.Get("type"),
		University:  q.Get("university"),
		Faculty:     q.Get("faculty"),
		StudentName: q.Get("student"),
		Company:     q.Get("company"),
		StudentID:   q.Get("student_id"),
	}
}

// errorToHTTP maps domain and transport errors to HTTP responses.
func errorToHTTP(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, form.ErrMissingRequiredFields),
		errors.Is(err, form.ErrOrganizationRequiredForIndustrial),
		errors.Is(err, form.ErrSupervisorNotResolved):
		writeError(w, log, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, lookup.ErrEmptyQuery):
		writeError(w, log, http.StatusBadRequest, "EMPTY_QUERY", err.Error())
	case errors.Is(err, practiceapi.ErrRequestFailed):
		writeError(w, log, http.StatusBadGateway, "BACKEND_ERROR", err.Error())
	default:
		log.Error("internal error", zap.Error(err))
		writeError(w, log, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
