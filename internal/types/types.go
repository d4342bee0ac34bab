// Package types provides the shared value types of the practice registry:
// the UI-facing Practice record, the registry FilterSet and the tagged
// suggestion union returned by lookups. Backend wire shapes live in
// practiceapi; everything else speaks these types.
package types

import (
	"encoding/json"
	"strings"
	"time"
)

// PracticeType classifies an internship.
type PracticeType string

const (
	PracticeIndustrial   PracticeType = "industrial"
	PracticeEducational  PracticeType = "educational"
	PracticePostgraduate PracticeType = "postgraduate"
)

// PracticeTypes lists every known practice type in display order.
var PracticeTypes = []PracticeType{PracticeIndustrial, PracticeEducational, PracticePostgraduate}

// ParsePracticeType maps a raw value onto the fixed enumeration.
// Unknown and empty values fall back to industrial, matching the backend.
func ParsePracticeType(s string) PracticeType {
	switch PracticeType(strings.ToLower(strings.TrimSpace(s))) {
	case PracticeEducational:
		return PracticeEducational
	case PracticePostgraduate:
		return PracticePostgraduate
	default:
		return PracticeIndustrial
	}
}

// Valid reports whether t is one of the known practice types.
func (t PracticeType) Valid() bool {
	switch t {
	case PracticeIndustrial, PracticeEducational, PracticePostgraduate:
		return true
	}
	return false
}

// Status is the lifecycle state of a practice. Completed is terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// ParseStatus maps "completed" to StatusCompleted and anything else to pending.
func ParseStatus(s string) Status {
	if strings.EqualFold(strings.TrimSpace(s), string(StatusCompleted)) {
		return StatusCompleted
	}
	return StatusPending
}

// DateLayout is the calendar date format used on the wire and in forms.
const DateLayout = "2006-01-02"

// Practice is one internship record as the UI sees it.
//
// Identifier pointers are nil when the matching display name was typed
// rather than resolved through a suggestion.
type Practice struct {
	ID                    int64        `json:"id"`
	StudentID             int64        `json:"studentId"`
	StudentName           string       `json:"studentName"`
	PracticeType          PracticeType `json:"practiceType"`
	University            string       `json:"university"`
	Faculty               string       `json:"faculty"`
	Year                  string       `json:"year"`
	Company               string       `json:"company"`
	OrganizationID        *int64       `json:"organizationId,omitempty"`
	Grade                 string       `json:"grade"`
	Status                Status       `json:"status"`
	StartDate             string       `json:"startDate"`
	EndDate               string       `json:"endDate"`
	DateAdded             string       `json:"dateAdded,omitempty"`
	UniSupervisorName     string       `json:"uniSupervisorName,omitempty"`
	UniSupervisorID       *int64       `json:"uniSupervisorId,omitempty"`
	CompanySupervisorName string       `json:"companySupervisorName,omitempty"`
	CompanySupervisorID   *int64       `json:"companySupervisorId,omitempty"`
}

// Completed reports whether the practice reached its terminal state.
func (p Practice) Completed() bool { return p.Status == StatusCompleted }

// Clone returns a deep copy; identifier pointers are not shared.
func (p Practice) Clone() Practice {
	c := p
	c.OrganizationID = cloneID(p.OrganizationID)
	c.UniSupervisorID = cloneID(p.UniSupervisorID)
	c.CompanySupervisorID = cloneID(p.CompanySupervisorID)
	return c
}

// YearOf extracts the four-digit year from a date or timestamp string.
// It returns "" when the value cannot be parsed.
func YearOf(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("2006")
		}
	}
	return ""
}

// ID returns a pointer to v, for building records with resolved identifiers.
func ID(v int64) *int64 { return &v }

// IDValue dereferences p, returning 0 for nil.
func IDValue(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func cloneID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SourceRef identifies an entity referenced by a domain event.
type SourceRef struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"` // "subject", "related", "context"
}

// ActivityEntry is one line of the mutation feed. A domain event fans out
// into one entry per affected entity.
type ActivityEntry struct {
	EventID           string          `json:"event_id"`
	EventType         string          `json:"event_type"`
	OccurredAt        time.Time       `json:"occurred_at"`
	IndexedEntityType string          `json:"indexed_entity_type"`
	IndexedEntityID   string          `json:"indexed_entity_id"`
	EntityRole        string          `json:"entity_role"`
	SourceRefs        []SourceRef     `json:"source_refs"`
	Summary           string          `json:"summary"`
	Origin            string          `json:"origin,omitempty"`
	Payload           json.RawMessage `json:"payload,omitempty"`
}
