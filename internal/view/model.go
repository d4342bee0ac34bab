// Package view turns records into page models and renders the server-side
// HTML pages. It holds no state.
package view

import (
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// LandingLimit is the number of cards on the landing page.
const LandingLimit = 3

// EmptyRegistryMessage is shown when no record matches the filters.
const EmptyRegistryMessage = "no practices match the filters"

// Card is one landing page entry.
type Card struct {
	ID          int64  `json:"id"`
	StudentName string `json:"studentName"`
	Company     string `json:"company"`
	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`
}

// Row is one registry table line.
type Row struct {
	ID          int64  `json:"id"`
	StudentName string `json:"studentName"`
	University  string `json:"university"`
	Faculty     string `json:"faculty"`
	TypeLabel   string `json:"typeLabel"`
	Company     string `json:"company"`
	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`
	Grade       string `json:"grade"`
	Dates       string `json:"dates"`
	Editable    bool   `json:"editable"`
}

// LandingPage is the home view model.
type LandingPage struct {
	Title string `json:"title"`
	Cards []Card `json:"cards"`
	Error string `json:"error,omitempty"`
}

// RegistryPage is the registry view model.
type RegistryPage struct {
	Title   string          `json:"title"`
	Rows    []Row           `json:"rows"`
	Empty   string          `json:"empty,omitempty"`
	Filters types.FilterSet `json:"filters"`
	Error   string          `json:"error,omitempty"`
}

// Landing keeps the first LandingLimit records.
func Landing(records []types.Practice) LandingPage {
	if len(records) > LandingLimit {
		records = records[:LandingLimit]
	}
	cards := make([]Card, 0, len(records))
	for _, p := range records {
		cards = append(cards, Card{
			ID:          p.ID,
			StudentName: p.StudentName,
			Company:     p.Company,
			Status:      string(p.Status),
			StatusLabel: StatusLabel(p.Status),
		})
	}
	return LandingPage{Title: "Recently added practices", Cards: cards}
}

// Registry renders every record as a row.
func Registry(records []types.Practice, filters types.FilterSet) RegistryPage {
	rows := make([]Row, 0, len(records))
	for _, p := range records {
		grade := p.Grade
		if grade == "" {
			grade = "-"
		}
		rows = append(rows, Row{
			ID:          p.ID,
			StudentName: p.StudentName,
			University:  p.University,
			Faculty:     p.Faculty,
			TypeLabel:   TypeLabel(p.PracticeType),
			Company:     p.Company,
			Status:      string(p.Status),
			StatusLabel: StatusLabel(p.Status),
			Grade:       grade,
			Dates:       dateRange(p.StartDate, p.EndDate),
			Editable:    !p.Completed(),
		})
	}
	page := RegistryPage{Title: "Practice registry", Rows: rows, Filters: filters}
	if len(rows) == 0 {
		page.Empty = EmptyRegistryMessage
	}
	return page
}

// TypeLabel is the display name of a practice type.
func TypeLabel(t types.PracticeType) string {
	switch t {
	case types.PracticeEducational:
		return "Educational"
	case types.PracticePostgraduate:
		return "Postgraduate"
	default:
		return "Industrial"
	}
}

// StatusLabel is the display name of a status.
func StatusLabel(s types.Status) string {
	if s == types.StatusCompleted {
		return "Completed"
	}
	return "In progress"
}

func dateRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return "-"
	case end == "":
		return start
	case start == "":
		return end
	}
	return start + " – " + end
}
