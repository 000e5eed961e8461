package enroll

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this class")
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		QueryEnrollmentsByClass(ctx context.Context, classID string) ([]Enrollment, error)
		QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]Enrollment, error)
		QueryStudentEmailsByClass(ctx context.Context, classID string) ([]string, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Enroll records a completed checkout.
func (svc *Service) Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	now := time.Now()
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		ClassID:      ne.ClassID,
		StudentID:    ne.StudentID,
		StudentEmail: ne.StudentEmail,
		PricePaid:    ne.PricePaid,
		Attendance:   make(map[string]AttendanceMark),
		EnrolledAt:   now,
		UpdatedAt:    now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollmentByID(ctx, id)
}

func (svc *Service) QueryByClass(ctx context.Context, classID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByClass(ctx, classID)
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByStudent(ctx, studentID)
}

// Rate sets or overwrites the student's rating for the class.
func (svc *Service) Rate(ctx context.Context, id string, r Rating) (Enrollment, error) {
	e, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	e.Rating = null.IntFrom(r.Rating)
	e.Feedback = null.NewString(r.Feedback, r.Feedback != "")
	e.UpdatedAt = time.Now()
	return svc.repo.UpdateEnrollment(ctx, e)
}

// MarkAttendance records (or overwrites) the attendance mark for one session.
func (svc *Service) MarkAttendance(ctx context.Context, id, sessionID string, au AttendanceUpdate) (Enrollment, error) {
	e, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if e.Attendance == nil {
		e.Attendance = make(map[string]AttendanceMark)
	}
	e.Attendance[sessionID] = AttendanceMark{SessionNumber: au.SessionNumber, Attended: au.Attended}
	e.UpdatedAt = time.Now()
	return svc.repo.UpdateEnrollment(ctx, e)
}
