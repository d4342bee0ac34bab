package form

import (
	"fmt"
	"strconv"

	"github.com/Lagunov2003/practice-registry/internal/types"
)

// FilterPhase is either editing or applied.
type FilterPhase string

const (
	FilterEditing FilterPhase = "editing"
	FilterApplied FilterPhase = "applied"
)

// FilterForm is the filter modal draft, seeded from the applied filters.
type FilterForm struct {
	phase   FilterPhase
	draft   types.FilterSet
	suggest Suggester
}

// NewFilter opens a filter draft holding a copy of current.
func NewFilter(current types.FilterSet, suggest Suggester) *FilterForm {
	return &FilterForm{phase: FilterEditing, draft: current, suggest: suggest}
}

func (f *FilterForm) Phase() FilterPhase { return f.phase }

// Draft returns the criteria being edited.
func (f *FilterForm) Draft() types.FilterSet { return f.draft }

// Set writes a criterion. Editing the student name drops its resolved id.
func (f *FilterForm) Set(field, value string) error {
	switch field {
	case FieldYear:
		f.draft.Year = value
	case FieldStatus:
		f.draft.Status = value
	case FieldType:
		f.draft.Type = value
	case FieldUniversity:
		f.draft.University = value
	case FieldFaculty:
		f.draft.Faculty = value
	case FieldCompany:
		f.draft.Company = value
	case FieldStudentName:
		f.draft.StudentName = value
		f.draft.StudentID = ""
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	f.phase = FilterEditing
	if _, ok := FilterAutocomplete[field]; ok && f.suggest != nil {
		f.suggest.OnInput(field, value)
	}
	return nil
}

// Select merges a picked suggestion. A student sets both name and id.
func (f *FilterForm) Select(field string, s types.Suggestion) error {
	domain, ok := FilterAutocomplete[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if s.Domain != domain || !s.Valid() {
		return fmt.Errorf("%w: %s expects %s", ErrBadSuggestion, field, domain)
	}
	switch field {
	case FieldStudentName:
		f.draft.StudentName = s.Student.Name
		f.draft.StudentID = strconv.FormatInt(s.Student.ID, 10)
	case FieldUniversity:
		f.draft.University = s.Text
	case FieldFaculty:
		f.draft.Faculty = s.Text
	case FieldCompany:
		f.draft.Company = s.Organization.Name
	}
	f.phase = FilterEditing
	if f.suggest != nil {
		f.suggest.Select(field)
	}
	return nil
}

// Reset empties every criterion. The caller applies it explicitly.
func (f *FilterForm) Reset() {
	f.draft.Reset()
	f.phase = FilterEditing
	if f.suggest != nil {
		for field := range FilterAutocomplete {
			f.suggest.Select(field)
		}
	}
}

// Apply marks the draft applied and returns it.
func (f *FilterForm) Apply() types.FilterSet {
	f.phase = FilterApplied
	if f.suggest != nil {
		f.suggest.Close()
	}
	return f.draft
}

// Close releases pending suggestions without applying.
func (f *FilterForm) Close() {
	if f.suggest != nil {
		f.suggest.Close()
	}
}
