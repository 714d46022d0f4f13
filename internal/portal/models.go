package portal

import "time"

// Status and grade literals the portal compares against. They come straight
// from the seeded data shapes and are not an enum: the store accepts any
// string.
const (
	StatusPresent       = "Present"
	AssignmentDue       = "Due"
	AssignmentCompleted = "Completed"
	GradeFail           = "F"
)

// Student is the identity record. ExternalID is the human-facing code (for
// example "CS001"), distinct from the internal primary key.
type Student struct {
	ID           int64  `db:"id" json:"id"`
	ExternalID   string `db:"student_id" json:"student_id"`
	Name         string `db:"name" json:"name"`
	FaceEncoding []byte `db:"face_encoding" json:"-"`
}

// Result is one course grade for a semester.
type Result struct {
	ID        int64  `db:"id" json:"id"`
	StudentID int64  `db:"student_id" json:"student_id"`
	Semester  string `db:"semester" json:"semester"`
	Course    string `db:"course" json:"course"`
	Grade     string `db:"grade" json:"grade"`
	Credits   int    `db:"credits" json:"credits"`
	Teacher   string `db:"teacher" json:"teacher"`
}

// Attendance is one presence record per student per calendar day.
type Attendance struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Date      time.Time `db:"date" json:"date"`
	Status    string    `db:"status" json:"status"`
}

// Assignment is a piece of coursework with a due date.
type Assignment struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Course    string    `db:"course" json:"course"`
	Title     string    `db:"title" json:"title"`
	DueDate   time.Time `db:"due_date" json:"due_date"`
	Status    string    `db:"status" json:"status"`
}

// DashboardView is the read-only academic snapshot served to the view layer.
type DashboardView struct {
	Student        Student      `json:"student"`
	Results        []Result     `json:"results"`
	Attendance     []Attendance `json:"attendance"`
	Assignments    []Assignment `json:"assignments"`
	TotalCourses   int          `json:"total_courses"`
	CompletedCount int          `json:"completed_count"`
	DueAssignments []Assignment `json:"due_assignments"`
}

// DateOf truncates t to its UTC calendar day. Attendance rows always carry
// midnight-UTC dates so same-day equality holds across both storage engines.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar day.
func Today() time.Time {
	return DateOf(time.Now())
}
