package form

import "errors"

// Validation errors, checked in this order on submit.
var (
	ErrMissingRequiredFields             = errors.New("fill in all required fields")
	ErrOrganizationRequiredForIndustrial = errors.New("organization is required for industrial practice")
	ErrSupervisorNotResolved             = errors.New("select the university supervisor from the suggestions")
)

// State errors.
var (
	ErrFieldReadOnly = errors.New("field is read-only")
	ErrRecordLocked  = errors.New("completed practice is read-only")
	ErrNotEditing    = errors.New("form is not open for editing")
	ErrUnknownField  = errors.New("unknown field")
	ErrBadSuggestion = errors.New("suggestion does not fit the field")
)
