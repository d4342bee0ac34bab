package types

import "fmt"

// Domain is a suggestion lookup category.
type Domain string

const (
	DomainStudent      Domain = "student"
	DomainUniversity   Domain = "university"
	DomainFaculty      Domain = "faculty"
	DomainOrganization Domain = "organization"
	DomainSupervisor   Domain = "supervisor"
)

// Domains lists every lookup domain.
var Domains = []Domain{DomainStudent, DomainUniversity, DomainFaculty, DomainOrganization, DomainSupervisor}

// ParseDomain validates a domain name.
func ParseDomain(s string) (Domain, error) {
	for _, d := range Domains {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown lookup domain %q", s)
}

// StudentRef is a student suggestion with its institutional data.
type StudentRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	University string `json:"university"`
	Faculty    string `json:"faculty"`
}

// NamedRef is an organization or supervisor suggestion.
type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Suggestion is a tagged union: Domain selects which payload is set.
// University and faculty suggestions carry only Text.
type Suggestion struct {
	Domain       Domain      `json:"domain"`
	Student      *StudentRef `json:"student,omitempty"`
	Organization *NamedRef   `json:"organization,omitempty"`
	Supervisor   *NamedRef   `json:"supervisor,omitempty"`
	Text         string      `json:"text,omitempty"`
}

// StudentSuggestion builds a student variant.
func StudentSuggestion(s StudentRef) Suggestion {
	return Suggestion{Domain: DomainStudent, Student: &s}
}

// UniversitySuggestion builds a university variant.
func UniversitySuggestion(name string) Suggestion {
	return Suggestion{Domain: DomainUniversity, Text: name}
}

// FacultySuggestion builds a faculty variant.
func FacultySuggestion(name string) Suggestion {
	return Suggestion{Domain: DomainFaculty, Text: name}
}

// OrganizationSuggestion builds an organization variant.
func OrganizationSuggestion(id int64, name string) Suggestion {
	return Suggestion{Domain: DomainOrganization, Organization: &NamedRef{ID: id, Name: name}}
}

// SupervisorSuggestion builds a supervisor variant.
func SupervisorSuggestion(id int64, name string) Suggestion {
	return Suggestion{Domain: DomainSupervisor, Supervisor: &NamedRef{ID: id, Name: name}}
}

// Label is the display text of the suggestion.
func (s Suggestion) Label() string {
	switch s.Domain {
	case DomainStudent:
		if s.Student != nil {
			return s.Student.Name
		}
	case DomainOrganization:
		if s.Organization != nil {
			return s.Organization.Name
		}
	case DomainSupervisor:
		if s.Supervisor != nil {
			return s.Supervisor.Name
		}
	default:
		return s.Text
	}
	return ""
}

// Valid reports whether the payload matching Domain is present.
func (s Suggestion) Valid() bool {
	switch s.Domain {
	case DomainStudent:
		return s.Student != nil
	case DomainOrganization:
		return s.Organization != nil
	case DomainSupervisor:
		return s.Supervisor != nil
	case DomainUniversity, DomainFaculty:
		return true
	}
	return false
}
