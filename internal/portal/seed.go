package portal

import (
	"context"
	"fmt"
	"time"
)

// SeedSampleData inserts one student with one result, attendance, and
// assignment row when the store is empty. Run only against a persistent
// store; returns whether anything was written.
func SeedSampleData(ctx context.Context, repo *Repository) (bool, error) {
	n, err := repo.CountStudents(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	student := Student{ExternalID: "CS001", Name: "John Doe"}
	if err := repo.InsertStudent(ctx, &student); err != nil {
		return false, fmt.Errorf("seed student: %w", err)
	}
	result := Result{
		StudentID: student.ID,
		Semester:  "Fall 2023",
		Course:    "Data Structures",
		Grade:     "A",
		Credits:   3,
		Teacher:   "Dr. Smith",
	}
	if err := repo.InsertResult(ctx, &result); err != nil {
		return false, fmt.Errorf("seed result: %w", err)
	}
	attendance := Attendance{StudentID: student.ID, Date: Today()}
	if err := repo.InsertAttendance(ctx, &attendance); err != nil {
		return false, fmt.Errorf("seed attendance: %w", err)
	}
	assignment := Assignment{
		StudentID: student.ID,
		Course:    "Data Structures",
		Title:     "Lab 1",
		DueDate:   time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC),
		Status:    AssignmentCompleted,
	}
	if err := repo.InsertAssignment(ctx, &assignment); err != nil {
		return false, fmt.Errorf("seed assignment: %w", err)
	}
	return true, nil
}
