package practiceapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Lagunov2003/practice-registry/internal/types"
)

// Envelope is the response wrapper used by every backend endpoint.
type Envelope[T any] struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	CountRows int    `json:"count_rows"`
	Rows      []T    `json:"rows"`
}

const statusSuccess = "success"

// Result is the body of mutation responses.
type Result struct {
	Status string `json:"status"`
}

// TopRow is one GetTop3 row. The endpoint returns a lightweight projection.
type TopRow struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PracticeType string `json:"practice_type"`
	Org          string `json:"org"`
	Res          string `json:"res"`
}

// PracticeRow is one GetPractice row.
type PracticeRow struct {
	ID             int64      `json:"id"`
	StudentID      int64      `json:"student_id"`
	StudentName    string     `json:"student_name"`
	University     string     `json:"university"`
	Department     string     `json:"department"`
	Type           string     `json:"type"`
	IsCompleted    FlexBool   `json:"is_completed"`
	Org            FlexString `json:"org"`
	Grade          FlexString `json:"grade"`
	StartDate      string     `json:"start_date"`
	EndDate        string     `json:"end_date"`
	UniSupName     string     `json:"uni_sup_name,omitempty"`
	CompanySupName string     `json:"company_sup_name,omitempty"`
	UniSupID       *int64     `json:"uni_sup_id,omitempty"`
	CompanySupID   *int64     `json:"company_sup_id,omitempty"`
	OrgID          *int64     `json:"org_id,omitempty"`
}

// CreatePayload is the PostPractice body. Unset identifiers and an empty
// grade are sent as JSON null.
type CreatePayload struct {
	StudentID      int64   `json:"student_id"`
	OrganizationID *int64  `json:"organization_id"`
	UniSupID       *int64  `json:"uni_sup_id"`
	CompanySupID   *int64  `json:"company_sup_id"`
	PracticeType   string  `json:"practice_type"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	Grade          *string `json:"grade"`
	IsCompleted    string  `json:"is_completed"`
}

// GradePayload is the PatchGrade body.
type GradePayload struct {
	ID    string `json:"id"`
	Grade string `json:"grade"`
}

// CompletePayload is the PatchComplete body.
type CompletePayload struct {
	ID string `json:"id"`
}

// StudentRow is a GetNameStudent row; "univercity" is the backend spelling.
type StudentRow struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	University string `json:"univercity"`
	Department string `json:"department"`
}

// UniversityRow is a GetNameUni row.
type UniversityRow struct {
	University string `json:"univercity"`
}

// DepartmentRow is a GetNameDep row.
type DepartmentRow struct {
	Department string `json:"department"`
}

// NamedRow is a GetNameSup or GetNameOrg row.
type NamedRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FlexString accepts a JSON string, number or null.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// FlexBool accepts a JSON bool or the strings "true"/"false".
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*b = FlexBool(parsed)
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = FlexBool(v)
	return nil
}

// ToPractice translates a full backend row into the UI record.
func (r PracticeRow) ToPractice() types.Practice {
	company := string(r.Org)
	if company == "" {
		company = "-"
	}
	status := types.StatusPending
	if r.IsCompleted {
		status = types.StatusCompleted
	}
	return types.Practice{
		ID:                    r.ID,
		StudentID:             r.StudentID,
		StudentName:           r.StudentName,
		PracticeType:          types.ParsePracticeType(r.Type),
		University:            r.University,
		Faculty:               r.Department,
		Year:                  types.YearOf(r.StartDate),
		Company:               company,
		OrganizationID:        r.OrgID,
		Grade:                 string(r.Grade),
		Status:                status,
		StartDate:             r.StartDate,
		EndDate:               r.EndDate,
		DateAdded:             r.StartDate,
		UniSupervisorName:     r.UniSupName,
		UniSupervisorID:       r.UniSupID,
		CompanySupervisorName: r.CompanySupName,
		CompanySupervisorID:   r.CompanySupID,
	}
}

// ToPractice translates a GetTop3 row. Institution and dates are not part
// of this projection and stay empty.
func (r TopRow) ToPractice() types.Practice {
	return types.Practice{
		ID:           r.ID,
		StudentName:  r.Name,
		PracticeType: types.ParsePracticeType(r.PracticeType),
		Company:      r.Org,
		Status:       topStatus(r.Res),
	}
}

func topStatus(res string) types.Status {
	switch strings.ToLower(res) {
	case "done", "completed":
		return types.StatusCompleted
	default:
		return types.StatusPending
	}
}

// NewCreatePayload maps a UI record onto the PostPractice body.
func NewCreatePayload(p types.Practice) CreatePayload {
	var grade *string
	if g := strings.TrimSpace(p.Grade); g != "" {
		grade = &g
	}
	completed := "false"
	if p.Status == types.StatusCompleted {
		completed = "true"
	}
	return CreatePayload{
		StudentID:      p.StudentID,
		OrganizationID: nonZero(p.OrganizationID),
		UniSupID:       nonZero(p.UniSupervisorID),
		CompanySupID:   nonZero(p.CompanySupervisorID),
		PracticeType:   string(types.ParsePracticeType(string(p.PracticeType))),
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		Grade:          grade,
		IsCompleted:    completed,
	}
}

// nonZero treats a zero identifier like an unset one.
func nonZero(id *int64) *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}
