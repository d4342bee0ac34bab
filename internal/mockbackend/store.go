// Package mockbackend is a self-contained stand-in for the practice
// backend: a SQLite store and HTTP handlers speaking the same endpoints and
// envelope as the real service. It backs local development and the
// end-to-end tests of the client.
package mockbackend

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"

	"modernc.org/sqlite"

	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownStudent  = errors.New("student does not exist")
	ErrUnknownRelation = errors.New("organization or supervisor does not exist")
)

// lookupLimit caps every name search.
const lookupLimit = 10

const schema = `
CREATE TABLE IF NOT EXISTS students (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    university TEXT NOT NULL,
    department TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS organizations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS supervisors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS practices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    student_id INTEGER NOT NULL,
    organization_id INTEGER,
    uni_sup_id INTEGER,
    company_sup_id INTEGER,
    practice_type TEXT NOT NULL CHECK(practice_type IN ('industrial', 'educational', 'postgraduate')),
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    grade TEXT,
    is_completed INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (student_id) REFERENCES students(id),
    FOREIGN KEY (organization_id) REFERENCES organizations(id),
    FOREIGN KEY (uni_sup_id) REFERENCES supervisors(id),
    FOREIGN KEY (company_sup_id) REFERENCES supervisors(id)
);
CREATE INDEX IF NOT EXISTS idx_practices_student ON practices(student_id);
CREATE INDEX IF NOT EXISTS idx_practices_start ON practices(start_date);
`

var registerOnce sync.Once

// registerFunctions adds ulower, a Unicode-aware LOWER; the builtin only
// folds ASCII.
func registerFunctions() (err error) {
	registerOnce.Do(func() {
		err = sqlite.RegisterDeterministicScalarFunction("ulower", 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case string:
					return strings.ToLower(v), nil
				case []byte:
					return strings.ToLower(string(v)), nil
				default:
					return v, nil
				}
			})
	})
	return err
}

// Store wraps the SQLite database of the mock backend.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("register sqlite functions: %w", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// AddStudent inserts a student and returns its id.
func (s *Store) AddStudent(ctx context.Context, name, university, department string) (int64, error) {
	return s.insert(ctx, `INSERT INTO students (name, university, department) VALUES (?, ?, ?)`, name, university, department)
}

// AddOrganization inserts an organization and returns its id.
func (s *Store) AddOrganization(ctx context.Context, name string) (int64, error) {
	return s.insert(ctx, `INSERT INTO organizations (name) VALUES (?)`, name)
}

// AddSupervisor inserts a supervisor and returns its id.
func (s *Store) AddSupervisor(ctx context.Context, name string) (int64, error) {
	return s.insert(ctx, `INSERT INTO supervisors (name) VALUES (?)`, name)
}

func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert: %w", err)
	}
	return res.LastInsertId()
}

// CreatePractice inserts a practice from a PostPractice body.
func (s *Store) CreatePractice(ctx context.Context, p practiceapi.CreatePayload) (int64, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE id = ?`, p.StudentID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check student: %w", err)
	}
	if exists == 0 {
		return 0, ErrUnknownStudent
	}
	completed := 0
	if strings.EqualFold(strings.TrimSpace(p.IsCompleted), "true") {
		completed = 1
	}
	query := `
		INSERT INTO practices (student_id, organization_id, uni_sup_id, company_sup_id,
			practice_type, start_date, end_date, grade, is_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := s.insert(ctx, query,
		p.StudentID,
		nullID(p.OrganizationID),
		nullID(p.UniSupID),
		nullID(p.CompanySupID),
		p.PracticeType,
		p.StartDate,
		p.EndDate,
		p.Grade,
		completed,
	)
	if isForeignKeyViolation(err) {
		return 0, ErrUnknownRelation
	}
	return id, err
}

// UpdateGrade replaces the grade of practice id.
func (s *Store) UpdateGrade(ctx context.Context, id int64, grade string) error {
	return s.update(ctx, `UPDATE practices SET grade = ? WHERE id = ?`, grade, id)
}

// Complete marks practice id completed. Completing twice is not an error.
func (s *Store) Complete(ctx context.Context, id int64) error {
	return s.update(ctx, `UPDATE practices SET is_completed = 1 WHERE id = ?`, id)
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update practice: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Top returns the n most recently added practices.
func (s *Store) Top(ctx context.Context, n int) ([]practiceapi.TopRow, error) {
	query := `
		SELECT p.id, s.name, p.practice_type, COALESCE(o.name, ''), p.is_completed
		FROM practices p
		JOIN students s ON s.id = p.student_id
		LEFT JOIN organizations o ON o.id = p.organization_id
		ORDER BY p.id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top practices: %w", err)
	}
	defer rows.Close()

	out := []practiceapi.TopRow{}
	for rows.Next() {
		var (
			r         practiceapi.TopRow
			completed bool
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.PracticeType, &r.Org, &completed); err != nil {
			return nil, err
		}
		r.Res = "in_progress"
		if completed {
			r.Res = "done"
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Filter holds the GetPractice criteria. Empty fields match everything.
type Filter struct {
	Year        string
	Completed   *bool
	Type        string
	University  string
	Department  string
	Org         string
	StudentName string
	Ascending   bool
}

// List returns the practices matching f ordered by start date.
func (s *Store) List(ctx context.Context, f Filter) ([]practiceapi.PracticeRow, error) {
	var (
		where []string
		args  []any
	)
	contains := func(column, value string) {
		if value = strings.TrimSpace(value); value != "" {
			where = append(where, "ulower("+column+`) LIKE '%' || ulower(?) || '%' ESCAPE '\'`)
			args = append(args, escapeLike(value))
		}
	}
	if f.Year != "" {
		where = append(where, "substr(p.start_date, 1, 4) = ?")
		args = append(args, f.Year)
	}
	if f.Completed != nil {
		where = append(where, "p.is_completed = ?")
		args = append(args, *f.Completed)
	}
	if f.Type != "" {
		where = append(where, "p.practice_type = ?")
		args = append(args, f.Type)
	}
	contains("s.university", f.University)
	contains("s.department", f.Department)
	contains("o.name", f.Org)
	contains("s.name", f.StudentName)

	query := `
		SELECT p.id, p.student_id, s.name, s.university, s.department, p.practice_type,
			p.is_completed, COALESCE(o.name, ''), COALESCE(p.grade, ''), p.start_date, p.end_date,
			COALESCE(us.name, ''), COALESCE(cs.name, ''), p.uni_sup_id, p.company_sup_id, p.organization_id
		FROM practices p
		JOIN students s ON s.id = p.student_id
		LEFT JOIN organizations o ON o.id = p.organization_id
		LEFT JOIN supervisors us ON us.id = p.uni_sup_id
		LEFT JOIN supervisors cs ON cs.id = p.company_sup_id
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Ascending {
		query += " ORDER BY p.start_date ASC, p.id ASC"
	} else {
		query += " ORDER BY p.start_date DESC, p.id DESC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query practices: %w", err)
	}
	defer rows.Close()

	out := []practiceapi.PracticeRow{}
	for rows.Next() {
		var (
			r                      practiceapi.PracticeRow
			completed              bool
			org, grade             string
			uniSup, compSup, orgID sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.StudentID, &r.StudentName, &r.University, &r.Department, &r.Type,
			&completed, &org, &grade, &r.StartDate, &r.EndDate,
			&r.UniSupName, &r.CompanySupName, &uniSup, &compSup, &orgID); err != nil {
			return nil, err
		}
		r.IsCompleted = practiceapi.FlexBool(completed)
		r.Org = practiceapi.FlexString(org)
		r.Grade = practiceapi.FlexString(grade)
		r.UniSupID = idPtr(uniSup)
		r.CompanySupID = idPtr(compSup)
		r.OrgID = idPtr(orgID)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchStudents returns students whose name contains q.
func (s *Store) SearchStudents(ctx context.Context, q string) ([]practiceapi.StudentRow, error) {
	rows, err := s.search(ctx, `SELECT id, name, university, department FROM students`, "name", q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []practiceapi.StudentRow{}
	for rows.Next() {
		var r practiceapi.StudentRow
		if err := rows.Scan(&r.ID, &r.Name, &r.University, &r.Department); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchUniversities returns distinct university names containing q.
func (s *Store) SearchUniversities(ctx context.Context, q string) ([]practiceapi.UniversityRow, error) {
	names, err := s.searchNames(ctx, `SELECT DISTINCT university FROM students`, "university", q)
	if err != nil {
		return nil, err
	}
	out := make([]practiceapi.UniversityRow, 0, len(names))
	for _, n := range names {
		out = append(out, practiceapi.UniversityRow{University: n})
	}
	return out, nil
}

// SearchDepartments returns distinct department names containing q.
func (s *Store) SearchDepartments(ctx context.Context, q string) ([]practiceapi.DepartmentRow, error) {
	names, err := s.searchNames(ctx, `SELECT DISTINCT department FROM students`, "department", q)
	if err != nil {
		return nil, err
	}
	out := make([]practiceapi.DepartmentRow, 0, len(names))
	for _, n := range names {
		out = append(out, practiceapi.DepartmentRow{Department: n})
	}
	return out, nil
}

// SearchSupervisors returns supervisors whose name contains q.
func (s *Store) SearchSupervisors(ctx context.Context, q string) ([]practiceapi.NamedRow, error) {
	return s.searchNamed(ctx, `SELECT id, name FROM supervisors`, q)
}

// SearchOrganizations returns organizations whose name contains q.
func (s *Store) SearchOrganizations(ctx context.Context, q string) ([]practiceapi.NamedRow, error) {
	return s.searchNamed(ctx, `SELECT id, name FROM organizations`, q)
}

func (s *Store) search(ctx context.Context, base, column, q string) (*sql.Rows, error) {
	query := base + ` WHERE ulower(` + column + `) LIKE '%' || ulower(?) || '%' ESCAPE '\' ORDER BY ` + column + ` LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, escapeLike(q), lookupLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", column, err)
	}
	return rows, nil
}

func (s *Store) searchNames(ctx context.Context, base, column, q string) ([]string, error) {
	rows, err := s.search(ctx, base, column, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) searchNamed(ctx context.Context, base, q string) ([]practiceapi.NamedRow, error) {
	rows, err := s.search(ctx, base, "name", q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []practiceapi.NamedRow{}
	for rows.Next() {
		var r practiceapi.NamedRow
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil || *id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
