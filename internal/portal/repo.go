package portal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound reports that a student, or the data requested for one, does not
// exist.
var ErrNotFound = errors.New("not found")

// Repository persists portal data through an sqlx handle. Queries are written
// with `?` placeholders and rebound for the active driver, so the same code
// runs against Postgres and the ephemeral SQLite store.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a repo.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// FindStudentByExternalID returns the student with the given external code,
// or nil when no such student exists. Absence is a normal outcome, not an
// error.
func (r *Repository) FindStudentByExternalID(ctx context.Context, externalID string) (*Student, error) {
	var st Student
	query := r.db.Rebind(`SELECT id, student_id, name, face_encoding FROM students WHERE student_id = ?`)
	if err := r.db.GetContext(ctx, &st, query, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: find student %q: %w", externalID, err)
	}
	return &st, nil
}

// GetStudent returns a student by internal id, or nil when absent.
func (r *Repository) GetStudent(ctx context.Context, id int64) (*Student, error) {
	var st Student
	query := r.db.Rebind(`SELECT id, student_id, name, face_encoding FROM students WHERE id = ?`)
	if err := r.db.GetContext(ctx, &st, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: get student %d: %w", id, err)
	}
	return &st, nil
}

// CountStudents reports the number of student rows; the seeder uses it to
// detect an empty store.
func (r *Repository) CountStudents(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("storage: count students: %w", err)
	}
	return n, nil
}

// ListResults returns all results referencing the student.
func (r *Repository) ListResults(ctx context.Context, studentID int64) ([]Result, error) {
	var out []Result
	query := r.db.Rebind(`SELECT id, student_id, semester, course, grade, credits, teacher FROM results WHERE student_id = ?`)
	if err := r.db.SelectContext(ctx, &out, query, studentID); err != nil {
		return nil, fmt.Errorf("storage: list results: %w", err)
	}
	return out, nil
}

// ListAttendance returns all attendance rows referencing the student.
func (r *Repository) ListAttendance(ctx context.Context, studentID int64) ([]Attendance, error) {
	var out []Attendance
	query := r.db.Rebind(`SELECT id, student_id, date, status FROM attendance WHERE student_id = ?`)
	if err := r.db.SelectContext(ctx, &out, query, studentID); err != nil {
		return nil, fmt.Errorf("storage: list attendance: %w", err)
	}
	return out, nil
}

// ListAssignments returns all assignments referencing the student.
func (r *Repository) ListAssignments(ctx context.Context, studentID int64) ([]Assignment, error) {
	var out []Assignment
	query := r.db.Rebind(`SELECT id, student_id, course, title, due_date, status FROM assignments WHERE student_id = ?`)
	if err := r.db.SelectContext(ctx, &out, query, studentID); err != nil {
		return nil, fmt.Errorf("storage: list assignments: %w", err)
	}
	return out, nil
}

// InsertStudent appends a student row and assigns its internal id.
func (r *Repository) InsertStudent(ctx context.Context, st *Student) error {
	id, err := r.insert(ctx,
		`INSERT INTO students (student_id, name, face_encoding) VALUES (?, ?, ?)`,
		st.ExternalID, st.Name, st.FaceEncoding)
	if err != nil {
		return fmt.Errorf("storage: insert student: %w", err)
	}
	st.ID = id
	return nil
}

// InsertResult appends a result row. Fails when the referenced student does
// not exist.
func (r *Repository) InsertResult(ctx context.Context, res *Result) error {
	id, err := r.insert(ctx,
		`INSERT INTO results (student_id, semester, course, grade, credits, teacher) VALUES (?, ?, ?, ?, ?, ?)`,
		res.StudentID, res.Semester, res.Course, res.Grade, res.Credits, res.Teacher)
	if err != nil {
		return fmt.Errorf("storage: insert result: %w", err)
	}
	res.ID = id
	return nil
}

// InsertAttendance appends an attendance row. Fails when the referenced
// student does not exist or a row for that day is already present.
func (r *Repository) InsertAttendance(ctx context.Context, att *Attendance) error {
	if att.Status == "" {
		att.Status = StatusPresent
	}
	att.Date = DateOf(att.Date)
	id, err := r.insert(ctx,
		`INSERT INTO attendance (student_id, date, status) VALUES (?, ?, ?)`,
		att.StudentID, att.Date, att.Status)
	if err != nil {
		return fmt.Errorf("storage: insert attendance: %w", err)
	}
	att.ID = id
	return nil
}

// InsertAssignment appends an assignment row. Fails when the referenced
// student does not exist.
func (r *Repository) InsertAssignment(ctx context.Context, asg *Assignment) error {
	if asg.Status == "" {
		asg.Status = AssignmentDue
	}
	id, err := r.insert(ctx,
		`INSERT INTO assignments (student_id, course, title, due_date, status) VALUES (?, ?, ?, ?, ?)`,
		asg.StudentID, asg.Course, asg.Title, asg.DueDate, asg.Status)
	if err != nil {
		return fmt.Errorf("storage: insert assignment: %w", err)
	}
	asg.ID = id
	return nil
}

// MarkPresent records attendance for the given day if no row exists yet. The
// unique index on (student_id, date) makes this atomic under concurrent
// logins; the conflicting insert is simply dropped. Reports whether a row was
// inserted.
func (r *Repository) MarkPresent(ctx context.Context, studentID int64, day time.Time) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO attendance (student_id, date, status)
		VALUES (?, ?, ?)
		ON CONFLICT (student_id, date) DO NOTHING`)
	res, err := r.db.ExecContext(ctx, query, studentID, DateOf(day), StatusPresent)
	if err != nil {
		return false, fmt.Errorf("storage: mark present: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: mark present: %w", err)
	}
	return n > 0, nil
}

// SetFaceEncoding stores the serialized vector for a student addressed by
// external id. Returns ErrNotFound when the student does not exist.
func (r *Repository) SetFaceEncoding(ctx context.Context, externalID string, blob []byte) error {
	query := r.db.Rebind(`UPDATE students SET face_encoding = ? WHERE student_id = ?`)
	res, err := r.db.ExecContext(ctx, query, blob, externalID)
	if err != nil {
		return fmt.Errorf("storage: set face encoding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: set face encoding: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// insert runs a `?`-style INSERT and returns the assigned id, bridging the
// RETURNING/LastInsertId split between the two drivers.
func (r *Repository) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if r.db.DriverName() == "pgx" {
		var id int64
		err := r.db.QueryRowxContext(ctx, r.db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
