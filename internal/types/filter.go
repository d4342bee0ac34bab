package types

// FilterSet is the registry search criteria. Values are kept as the user
// typed them; practiceapi owns their translation into query parameters.
type FilterSet struct {
	Year        string `json:"year"`
	Status      string `json:"status"`
	Type        string `json:"type"`
	University  string `json:"university"`
	Faculty     string `json:"faculty"`
	StudentName string `json:"studentName"`
	Company     string `json:"company"`
	// StudentID is set only when StudentName came from a suggestion.
	StudentID string `json:"studentId,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (f FilterSet) IsEmpty() bool {
	return f == FilterSet{}
}

// Reset clears every criterion.
func (f *FilterSet) Reset() {
	*f = FilterSet{}
}
