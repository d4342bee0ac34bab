// Package form holds the draft state of the practice and filter modals:
// field edits, suggestion reconciliation, validation and submission.
package form

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lagunov2003/practice-registry/internal/types"
)

// Phase is a step of the practice form lifecycle.
type Phase string

const (
	PhaseEmpty      Phase = "empty"
	PhaseEditing    Phase = "editing"
	PhaseValidating Phase = "validating"
	PhaseSubmitting Phase = "submitting"
	PhaseClosed     Phase = "closed"
)

// Mode tells a new record from an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Suggester is the part of the suggestion engine a form drives.
type Suggester interface {
	OnInput(field, text string)
	Select(field string)
	Close()
}

// Submission is handed to the submit callback.
type Submission struct {
	Mode     Mode
	Original types.Practice
	Practice types.Practice
}

// SubmitFunc persists a validated draft.
type SubmitFunc func(ctx context.Context, s Submission) error

// PracticeForm is the add/edit modal draft. It is not safe for concurrent
// use; the owning workspace serializes access.
type PracticeForm struct {
	mode     Mode
	phase    Phase
	original types.Practice
	draft    types.Practice
	errMsg   string
	suggest  Suggester
}

// NewCreate opens an empty draft dated today with a 30 day window.
func NewCreate(now time.Time, suggest Suggester) *PracticeForm {
	return &PracticeForm{
		mode:    ModeCreate,
		phase:   PhaseEmpty,
		suggest: suggest,
		draft: types.Practice{
			PracticeType: types.PracticeIndustrial,
			Status:       types.StatusPending,
			StartDate:    now.Format(types.DateLayout),
			EndDate:      now.AddDate(0, 0, 30).Format(types.DateLayout),
		},
	}
}

// NewCreateFrom opens a create draft already holding p, for records that
// arrive complete, such as a JSON API request.
func NewCreateFrom(p types.Practice) *PracticeForm {
	return &PracticeForm{mode: ModeCreate, phase: PhaseEditing, draft: p.Clone()}
}

// NewEdit opens a draft seeded from an existing record. Edit forms never
// query suggestions, so suggest may be nil.
func NewEdit(p types.Practice, suggest Suggester) *PracticeForm {
	return &PracticeForm{
		mode:     ModeEdit,
		phase:    PhaseEditing,
		original: p.Clone(),
		draft:    p.Clone(),
		suggest:  suggest,
	}
}

func (f *PracticeForm) Mode() Mode   { return f.mode }
func (f *PracticeForm) Phase() Phase { return f.phase }

// Error is the message shown inline, or "".
func (f *PracticeForm) Error() string { return f.errMsg }

// Draft returns a copy of the current draft.
func (f *PracticeForm) Draft() types.Practice { return f.draft.Clone() }

// Original returns the record an edit form was opened with.
func (f *PracticeForm) Original() types.Practice { return f.original.Clone() }

// Locked reports whether the record is completed and fully read-only.
func (f *PracticeForm) Locked() bool {
	return f.mode == ModeEdit && f.original.Completed()
}

// Editable reports whether field accepts input in the current mode.
func (f *PracticeForm) Editable(field string) bool {
	if f.mode == ModeCreate {
		return true
	}
	return !f.Locked() && editableInEdit[field]
}

// Set writes value into field and clears the displayed error. Typing into
// a suggestion-backed name drops its resolved identifier.
func (f *PracticeForm) Set(field, value string) error {
	if f.phase == PhaseClosed || f.phase == PhaseSubmitting {
		return ErrNotEditing
	}
	if f.Locked() {
		return ErrRecordLocked
	}
	if f.mode == ModeEdit && !editableInEdit[field] {
		if _, known := fieldSetters[field]; !known {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		return fmt.Errorf("%w: %s", ErrFieldReadOnly, field)
	}
	set, ok := fieldSetters[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	set(&f.draft, value)
	f.phase = PhaseEditing
	f.errMsg = ""
	if f.mode == ModeCreate && f.suggest != nil {
		if _, ok := PracticeAutocomplete[field]; ok {
			f.suggest.OnInput(field, value)
		}
	}
	return nil
}

var fieldSetters = map[string]func(*types.Practice, string){
	FieldStudentName: func(p *types.Practice, v string) {
		p.StudentName = v
		p.StudentID = 0
	},
	FieldUniversity: func(p *types.Practice, v string) { p.University = v },
	FieldFaculty:    func(p *types.Practice, v string) { p.Faculty = v },
	FieldPracticeType: func(p *types.Practice, v string) {
		p.PracticeType = types.ParsePracticeType(v)
	},
	FieldCompany: func(p *types.Practice, v string) {
		p.Company = v
		p.OrganizationID = nil
	},
	FieldStartDate: func(p *types.Practice, v string) {
		p.StartDate = v
		p.Year = types.YearOf(v)
	},
	FieldEndDate: func(p *types.Practice, v string) { p.EndDate = v },
	FieldStatus:  func(p *types.Practice, v string) { p.Status = types.ParseStatus(v) },
	FieldGrade:   func(p *types.Practice, v string) { p.Grade = v },
	FieldUniSupervisor: func(p *types.Practice, v string) {
		p.UniSupervisorName = v
		p.UniSupervisorID = nil
	},
	FieldCompanySupervisor: func(p *types.Practice, v string) {
		p.CompanySupervisorName = v
		p.CompanySupervisorID = nil
	},
}

// Select merges a picked suggestion into the draft and clears the field's
// suggestion list. A student overwrites university and faculty.
func (f *PracticeForm) Select(field string, s types.Suggestion) error {
	if f.phase == PhaseClosed || f.phase == PhaseSubmitting {
		return ErrNotEditing
	}
	if f.Locked() {
		return ErrRecordLocked
	}
	if f.mode == ModeEdit && !editableInEdit[field] {
		return fmt.Errorf("%w: %s", ErrFieldReadOnly, field)
	}
	domain, ok := PracticeAutocomplete[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if s.Domain != domain || !s.Valid() {
		return fmt.Errorf("%w: %s expects %s", ErrBadSuggestion, field, domain)
	}

	switch field {
	case FieldStudentName:
		f.draft.StudentName = s.Student.Name
		f.draft.StudentID = s.Student.ID
		f.draft.University = s.Student.University
		f.draft.Faculty = s.Student.Faculty
	case FieldUniversity:
		f.draft.University = s.Text
	case FieldFaculty:
		f.draft.Faculty = s.Text
	case FieldCompany:
		f.draft.Company = s.Organization.Name
		f.draft.OrganizationID = types.ID(s.Organization.ID)
	case FieldUniSupervisor:
		f.draft.UniSupervisorName = s.Supervisor.Name
		f.draft.UniSupervisorID = types.ID(s.Supervisor.ID)
	case FieldCompanySupervisor:
		f.draft.CompanySupervisorName = s.Supervisor.Name
		f.draft.CompanySupervisorID = types.ID(s.Supervisor.ID)
	}
	f.phase = PhaseEditing
	f.errMsg = ""
	if f.suggest != nil {
		f.suggest.Select(field)
	}
	return nil
}

// Validate applies the submit rules in order; the first failure wins.
func (f *PracticeForm) Validate() error {
	d := f.draft
	for _, v := range []string{d.StudentName, d.University, d.Faculty, d.StartDate, d.EndDate} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingRequiredFields
		}
	}
	if d.PracticeType == types.PracticeIndustrial && strings.TrimSpace(d.Company) == "" {
		return ErrOrganizationRequiredForIndustrial
	}
	if f.mode == ModeCreate && types.IDValue(d.UniSupervisorID) == 0 {
		return ErrSupervisorNotResolved
	}
	return nil
}

// Payload is the normalized draft: the organization id is dropped when no
// company name is present and unset supervisor ids stay nil.
func (f *PracticeForm) Payload() types.Practice {
	p := f.draft.Clone()
	if strings.TrimSpace(p.Company) == "" {
		p.OrganizationID = nil
	}
	if types.IDValue(p.CompanySupervisorID) == 0 {
		p.CompanySupervisorID = nil
	}
	if types.IDValue(p.OrganizationID) == 0 {
		p.OrganizationID = nil
	}
	if p.Year == "" {
		p.Year = types.YearOf(p.StartDate)
	}
	return p
}

// Submit validates and hands the payload to submit. On success the form
// closes and its suggestions are released; on any failure the draft stays
// and the message is kept for display.
func (f *PracticeForm) Submit(ctx context.Context, submit SubmitFunc) error {
	switch f.phase {
	case PhaseClosed, PhaseSubmitting:
		return ErrNotEditing
	}
	if f.Locked() {
		return ErrRecordLocked
	}
	f.phase = PhaseValidating
	f.errMsg = ""
	if err := f.Validate(); err != nil {
		f.fail(err)
		return err
	}
	f.phase = PhaseSubmitting
	if err := submit(ctx, Submission{Mode: f.mode, Original: f.original.Clone(), Practice: f.Payload()}); err != nil {
		f.fail(err)
		return err
	}
	f.Close()
	return nil
}

// Close discards the draft and cancels pending suggestions.
func (f *PracticeForm) Close() {
	if f.phase == PhaseClosed {
		return
	}
	f.phase = PhaseClosed
	f.draft = types.Practice{}
	f.errMsg = ""
	if f.suggest != nil {
		f.suggest.Close()
	}
}

func (f *PracticeForm) fail(err error) {
	f.phase = PhaseEditing
	f.errMsg = err.Error()
}
