package portal

import (
	"context"
	"time"
)

// Service implements the portal's read and write flows on top of the
// repository, with an optional cache in front of face-encoding reads.
type Service struct {
	repo  *Repository
	cache *EncodingCache
}

// NewService creates a service. cache may be nil.
func NewService(repo *Repository, cache *EncodingCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// FindStudent resolves a student by external id. Returns ErrNotFound when
// absent.
func (s *Service) FindStudent(ctx context.Context, externalID string) (*Student, error) {
	st, err := s.repo.FindStudentByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNotFound
	}
	return st, nil
}

// RecordDailyAttendance marks the student present for the given day, at most
// once per day. Invoked once per successful login; idempotent under repeated
// and concurrent calls. Reports whether a new row was written.
func (s *Service) RecordDailyAttendance(ctx context.Context, studentID int64, day time.Time) (bool, error) {
	return s.repo.MarkPresent(ctx, studentID, day)
}

// BuildDashboard assembles the student's full academic snapshot. Returns
// ErrNotFound when the external id resolves to no student.
func (s *Service) BuildDashboard(ctx context.Context, externalID string) (*DashboardView, error) {
	st, err := s.FindStudent(ctx, externalID)
	if err != nil {
		return nil, err
	}

	results, err := s.repo.ListResults(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	attendance, err := s.repo.ListAttendance(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.repo.ListAssignments(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	view := &DashboardView{
		Student:        *st,
		Results:        results,
		Attendance:     attendance,
		Assignments:    assignments,
		TotalCourses:   len(results),
		DueAssignments: []Assignment{},
	}
	for _, r := range results {
		if r.Grade != GradeFail {
			view.CompletedCount++
		}
	}
	for _, a := range assignments {
		if a.Status == AssignmentDue {
			view.DueAssignments = append(view.DueAssignments, a)
		}
	}
	return view, nil
}

// FaceEncoding returns the stored vector for a student. Unknown students and
// students without an encoding both read as ErrNotFound.
func (s *Service) FaceEncoding(ctx context.Context, externalID string) (FaceEncoding, error) {
	if enc, ok := s.cache.Get(ctx, externalID); ok {
		return enc, nil
	}
	st, err := s.repo.FindStudentByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if st == nil || len(st.FaceEncoding) == 0 {
		return nil, ErrNotFound
	}
	enc, err := DecodeFaceEncoding(st.FaceEncoding)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, externalID, enc)
	return enc, nil
}

// SetFaceEncoding validates and stores a vector for the student, replacing
// any previous one.
func (s *Service) SetFaceEncoding(ctx context.Context, externalID string, enc FaceEncoding) error {
	blob, err := enc.Bytes()
	if err != nil {
		return err
	}
	if err := s.repo.SetFaceEncoding(ctx, externalID, blob); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, externalID)
	return nil
}
