package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Lagunov2003/practice-registry/internal/types"
)

// Event types.
const (
	TypePracticeCreated      = "practice_created"
	TypePracticeGradeUpdated = "practice_grade_updated"
	TypePracticeCompleted    = "practice_completed"
)

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID               string
	EventType        string
	OccurredAt       time.Time
	AffectedEntities []types.SourceRef
	Summary          string
	// Origin is the session that caused the event, if any.
	Origin  string
	Payload json.RawMessage
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func ref(entityType string, id int64, role string) types.SourceRef {
	return types.SourceRef{EntityType: entityType, EntityID: strconv.FormatInt(id, 10), Role: role}
}

// practiceRefs lists the practice as subject and, when known, its student.
func practiceRefs(practiceID, studentID int64) []types.SourceRef {
	refs := []types.SourceRef{ref("practice", practiceID, "subject")}
	if studentID != 0 {
		refs = append(refs, ref("student", studentID, "related"))
	}
	return refs
}

// PracticeCreatedPayload carries event-specific data for PracticeCreated.
// The backend does not return the new practice id, so the student is the
// subject.
type PracticeCreatedPayload struct {
	StudentID      int64              `json:"student_id"`
	StudentName    string             `json:"student_name"`
	PracticeType   types.PracticeType `json:"practice_type"`
	Company        string             `json:"company,omitempty"`
	OrganizationID *int64             `json:"organization_id,omitempty"`
	StartDate      string             `json:"start_date"`
	EndDate        string             `json:"end_date"`
}

func NewPracticeCreated(origin string, p PracticeCreatedPayload) DomainEvent {
	refs := []types.SourceRef{ref("student", p.StudentID, "subject")}
	if p.OrganizationID != nil {
		refs = append(refs, ref("organization", *p.OrganizationID, "context"))
	}
	return DomainEvent{
		ID:               newID(),
		EventType:        TypePracticeCreated,
		OccurredAt:       time.Now(),
		AffectedEntities: refs,
		Summary:          fmt.Sprintf("%s practice added for %s", p.PracticeType, p.StudentName),
		Origin:           origin,
		Payload:          mustJSON(p),
	}
}

// GradeUpdatedPayload carries event-specific data for GradeUpdated.
type GradeUpdatedPayload struct {
	PracticeID    int64  `json:"practice_id"`
	StudentID     int64  `json:"student_id"`
	StudentName   string `json:"student_name"`
	PreviousGrade string `json:"previous_grade,omitempty"`
	Grade         string `json:"grade"`
}

func NewGradeUpdated(origin string, p GradeUpdatedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypePracticeGradeUpdated,
		OccurredAt: time.Now(),
		AffectedEntities: practiceRefs(p.PracticeID, p.StudentID),
		Summary:          fmt.Sprintf("Grade of practice %d set to %q", p.PracticeID, p.Grade),
		Origin:  origin,
		Payload: mustJSON(p),
	}
}

// PracticeCompletedPayload carries event-specific data for PracticeCompleted.
type PracticeCompletedPayload struct {
	PracticeID  int64  `json:"practice_id"`
	StudentID   int64  `json:"student_id"`
	StudentName string `json:"student_name"`
	Grade       string `json:"grade,omitempty"`
}

func NewPracticeCompleted(origin string, p PracticeCompletedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypePracticeCompleted,
		OccurredAt: time.Now(),
		AffectedEntities: practiceRefs(p.PracticeID, p.StudentID),
		Summary:          fmt.Sprintf("Practice %d completed", p.PracticeID),
		Origin:  origin,
		Payload: mustJSON(p),
	}
}
