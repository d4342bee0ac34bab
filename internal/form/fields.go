package form

import "github.com/Lagunov2003/practice-registry/internal/types"

// Practice form fields.
const (
	FieldStudentName       = "studentName"
	FieldUniversity        = "university"
	FieldFaculty           = "faculty"
	FieldPracticeType      = "practiceType"
	FieldCompany           = "company"
	FieldStartDate         = "startDate"
	FieldEndDate           = "endDate"
	FieldStatus            = "status"
	FieldGrade             = "grade"
	FieldUniSupervisor     = "uniSupervisorName"
	FieldCompanySupervisor = "companySupervisorName"
)

// Filter-only fields. The filter form shares the remaining names with the
// practice form.
const (
	FieldYear = "year"
	FieldType = "type"
)

// PracticeAutocomplete maps the practice form's suggestion-backed fields
// to their lookup domain.
var PracticeAutocomplete = map[string]types.Domain{
	FieldStudentName:       types.DomainStudent,
	FieldUniversity:        types.DomainUniversity,
	FieldFaculty:           types.DomainFaculty,
	FieldCompany:           types.DomainOrganization,
	FieldUniSupervisor:     types.DomainSupervisor,
	FieldCompanySupervisor: types.DomainSupervisor,
}

// FilterAutocomplete maps the filter form's suggestion-backed fields.
var FilterAutocomplete = map[string]types.Domain{
	FieldUniversity:  types.DomainUniversity,
	FieldFaculty:     types.DomainFaculty,
	FieldCompany:     types.DomainOrganization,
	FieldStudentName: types.DomainStudent,
}

// editableInEdit lists the fields that stay mutable on an existing record.
var editableInEdit = map[string]bool{
	FieldStatus:            true,
	FieldGrade:             true,
	FieldUniSupervisor:     true,
	FieldCompanySupervisor: true,
}
