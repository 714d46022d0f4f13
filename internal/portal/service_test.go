package portal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	repo := newTestRepo(t)
	return NewService(repo, nil), repo
}

func seedScenario(t *testing.T, repo *Repository) Student {
	t.Helper()
	ctx := context.Background()
	st := createStudent(t, repo, "CS001", "John Doe")
	require.NoError(t, repo.InsertResult(ctx, &Result{
		StudentID: st.ID, Semester: "Fall 2023", Course: "Data Structures",
		Grade: "A", Credits: 3, Teacher: "Dr. Smith",
	}))
	require.NoError(t, repo.InsertAttendance(ctx, &Attendance{StudentID: st.ID, Date: Today()}))
	require.NoError(t, repo.InsertAssignment(ctx, &Assignment{
		StudentID: st.ID, Course: "Data Structures", Title: "Lab 1",
		DueDate: time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), Status: AssignmentCompleted,
	}))
	return st
}

func TestBuildDashboardSeedScenario(t *testing.T) {
	svc, repo := newTestService(t)
	seedScenario(t, repo)

	view, err := svc.BuildDashboard(context.Background(), "CS001")
	require.NoError(t, err)

	assert.Equal(t, "John Doe", view.Student.Name)
	assert.Equal(t, 1, view.TotalCourses)
	assert.Equal(t, 1, view.CompletedCount)
	assert.Empty(t, view.DueAssignments)
	assert.Len(t, view.Results, 1)
	assert.Len(t, view.Attendance, 1)
	assert.Len(t, view.Assignments, 1)
}

func TestBuildDashboardDerivedCounts(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	st := createStudent(t, repo, "CS010", "Margaret")

	grades := []string{"A", "B", "F", "C", "F"}
	for i, g := range grades {
		require.NoError(t, repo.InsertResult(ctx, &Result{
			StudentID: st.ID, Semester: "Fall 2023", Course: "Course " + string(rune('A'+i)),
			Grade: g, Credits: 3, Teacher: "Dr. Smith",
		}))
	}
	due := Assignment{StudentID: st.ID, Course: "Course A", Title: "Essay", DueDate: Today(), Status: AssignmentDue}
	require.NoError(t, repo.InsertAssignment(ctx, &due))
	require.NoError(t, repo.InsertAssignment(ctx, &Assignment{
		StudentID: st.ID, Course: "Course B", Title: "Quiz", DueDate: Today(), Status: AssignmentCompleted,
	}))

	view, err := svc.BuildDashboard(ctx, "CS010")
	require.NoError(t, err)

	assert.Equal(t, len(grades), view.TotalCourses)
	assert.Equal(t, 3, view.CompletedCount, "grades other than F count as completed")
	require.Len(t, view.DueAssignments, 1)
	assert.Equal(t, due.ID, view.DueAssignments[0].ID)
}

func TestBuildDashboardUnknownStudent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.BuildDashboard(context.Background(), "ZZ999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordDailyAttendanceSequentialLogins(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	st := createStudent(t, repo, "CS011", "Tim")

	day := Today()
	for i := 0; i < 3; i++ {
		_, err := svc.RecordDailyAttendance(ctx, st.ID, day)
		require.NoError(t, err)
	}

	rows, err := repo.ListAttendance(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "repeated same-day logins write at most one row")
}

func TestFaceEncodingLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	createStudent(t, repo, "CS012", "Katherine")

	_, err := svc.FaceEncoding(ctx, "CS012")
	assert.ErrorIs(t, err, ErrNotFound, "null encoding reads as not found")

	_, err = svc.FaceEncoding(ctx, "ZZ999")
	assert.ErrorIs(t, err, ErrNotFound, "unknown student reads as not found")

	enc := sampleEncoding()
	require.NoError(t, svc.SetFaceEncoding(ctx, "CS012", enc))

	got, err := svc.FaceEncoding(ctx, "CS012")
	require.NoError(t, err)
	assert.Equal(t, enc, got, "stored vector round-trips losslessly")

	err = svc.SetFaceEncoding(ctx, "ZZ999", enc)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.SetFaceEncoding(ctx, "CS012", enc[:4])
	assert.Error(t, err, "wrong shape is rejected at the boundary")
}

func TestSeedSampleData(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seeded, err := SeedSampleData(ctx, repo)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = SeedSampleData(ctx, repo)
	require.NoError(t, err)
	assert.False(t, seeded, "seeding is one-time")

	view, err := svc.BuildDashboard(ctx, "CS001")
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalCourses)
	assert.Equal(t, 1, view.CompletedCount)
	assert.Empty(t, view.DueAssignments)
}
