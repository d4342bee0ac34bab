package mockbackend

import (
	"context"
	"fmt"

	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// Seed inserts demo students, organizations, supervisors and a few
// practices into an empty database. A populated database is left alone.
func (s *Store) Seed(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count students: %w", err)
	}
	if n > 0 {
		return nil
	}

	students := []struct{ name, university, department string }{
		{"Ivanov Ivan", "Moscow State University", "Computational Mathematics and Cybernetics"},
		{"Petrova Anna", "Moscow State University", "Physics"},
		{"Sidorov Pavel", "Bauman Moscow State Technical University", "Informatics and Control Systems"},
		{"Kuznetsova Maria", "Saint Petersburg State University", "Applied Mathematics"},
		{"Smirnov Oleg", "Novosibirsk State University", "Information Technologies"},
	}
	studentIDs := make([]int64, 0, len(students))
	for _, st := range students {
		id, err := s.AddStudent(ctx, st.name, st.university, st.department)
		if err != nil {
			return err
		}
		studentIDs = append(studentIDs, id)
	}

	var orgIDs []int64
	for _, name := range []string{"Yandex", "Kaspersky Lab", "Sber", "JetBrains"} {
		id, err := s.AddOrganization(ctx, name)
		if err != nil {
			return err
		}
		orgIDs = append(orgIDs, id)
	}

	var supIDs []int64
	for _, name := range []string{"Orlov Sergey", "Volkova Elena", "Morozov Dmitry", "Lebedeva Olga"} {
		id, err := s.AddSupervisor(ctx, name)
		if err != nil {
			return err
		}
		supIDs = append(supIDs, id)
	}

	grade := "excellent"
	practices := []practiceapi.CreatePayload{
		{StudentID: studentIDs[0], OrganizationID: &orgIDs[0], UniSupID: &supIDs[0], CompanySupID: &supIDs[2],
			PracticeType: string(types.PracticeIndustrial), StartDate: "2024-06-01", EndDate: "2024-07-01", Grade: &grade, IsCompleted: "true"},
		{StudentID: studentIDs[1], UniSupID: &supIDs[1],
			PracticeType: string(types.PracticeEducational), StartDate: "2024-09-02", EndDate: "2024-10-02", IsCompleted: "false"},
		{StudentID: studentIDs[2], OrganizationID: &orgIDs[1], UniSupID: &supIDs[0],
			PracticeType: string(types.PracticeIndustrial), StartDate: "2025-02-10", EndDate: "2025-03-12", IsCompleted: "false"},
		{StudentID: studentIDs[3], OrganizationID: &orgIDs[3], UniSupID: &supIDs[3], CompanySupID: &supIDs[2],
			PracticeType: string(types.PracticePostgraduate), StartDate: "2025-06-15", EndDate: "2025-07-15", IsCompleted: "false"},
	}
	for _, p := range practices {
		if _, err := s.CreatePractice(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
