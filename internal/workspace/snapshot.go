package workspace

import (
	"github.com/Lagunov2003/practice-registry/internal/form"
	"github.com/Lagunov2003/practice-registry/internal/suggest"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// Snapshot is a point-in-time copy of the workspace, safe to serialize.
type Snapshot struct {
	ID      string           `json:"id"`
	View    View             `json:"view"`
	Loaded  bool             `json:"loaded"`
	Error   string           `json:"error,omitempty"`
	Records []types.Practice `json:"records"`
	Filters types.FilterSet  `json:"filters"`
	Modal   *ModalSnapshot   `json:"modal,omitempty"`
}

// ModalSnapshot describes the open modal.
type ModalSnapshot struct {
	Kind   ModalKind        `json:"kind"`
	Phase  string           `json:"phase"`
	Error  string           `json:"error,omitempty"`
	Locked bool             `json:"locked,omitempty"`
	Draft  *types.Practice  `json:"draft,omitempty"`
	Filter *types.FilterSet `json:"filter,omitempty"`
	// Editable lists the fields that currently accept input.
	Editable    []string                 `json:"editable"`
	Suggestions map[string]suggest.State `json:"suggestions,omitempty"`
}

var practiceFields = []string{
	form.FieldStudentName, form.FieldUniversity, form.FieldFaculty, form.FieldPracticeType,
	form.FieldCompany, form.FieldStartDate, form.FieldEndDate, form.FieldStatus,
	form.FieldGrade, form.FieldUniSupervisor, form.FieldCompanySupervisor,
}

var filterFields = []string{
	form.FieldYear, form.FieldStatus, form.FieldType, form.FieldUniversity,
	form.FieldFaculty, form.FieldStudentName, form.FieldCompany,
}

// Snapshot copies the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	records := make([]types.Practice, len(w.records))
	for i, p := range w.records {
		records[i] = p.Clone()
	}
	snap := Snapshot{
		ID:      w.id,
		View:    w.view,
		Loaded:  w.loaded,
		Error:   w.pageErr,
		Records: records,
		Filters: w.filters,
	}
	switch w.modal {
	case ModalAdd, ModalEdit:
		draft := w.practice.Draft()
		m := &ModalSnapshot{
			Kind:   w.modal,
			Phase:  string(w.practice.Phase()),
			Error:  w.practice.Error(),
			Locked: w.practice.Locked(),
			Draft:  &draft,
		}
		for _, f := range practiceFields {
			if w.practice.Editable(f) {
				m.Editable = append(m.Editable, f)
			}
		}
		m.Suggestions = w.suggestionsLocked(form.PracticeAutocomplete)
		snap.Modal = m
	case ModalFilter:
		draft := w.filter.Draft()
		snap.Modal = &ModalSnapshot{
			Kind:        ModalFilter,
			Phase:       string(w.filter.Phase()),
			Filter:      &draft,
			Editable:    append([]string(nil), filterFields...),
			Suggestions: w.suggestionsLocked(form.FilterAutocomplete),
		}
	}
	return snap
}

func (w *Workspace) suggestionsLocked(fields map[string]types.Domain) map[string]suggest.State {
	if w.engine == nil {
		return nil
	}
	out := make(map[string]suggest.State)
	for f := range fields {
		if st := w.engine.State(f); st.Query != "" || len(st.Items) > 0 {
			out[f] = st
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
