package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/enroll"
)

type enrollRepository struct {
	db *enrollTable
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *DB) enroll.Repository {
	return &enrollRepository{db: db.enroll}
}

func copyEnrollment(e enroll.Enrollment) enroll.Enrollment {
	cp := e
	if e.Attendance != nil {
		cp.Attendance = make(map[string]enroll.AttendanceMark, len(e.Attendance))
		for k, v := range e.Attendance {
			cp.Attendance[k] = v
		}
	}
	return cp
}

func (repo *enrollRepository) CreateEnrollment(_ context.Context, e enroll.Enrollment) (enroll.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.ClassID == e.ClassID && existing.StudentID == e.StudentID {
			return enroll.Enrollment{}, enroll.ErrAlreadyEnrolled
		}
	}

	e.ID = uuid.New().String()
	stored := copyEnrollment(e)
	repo.db.table[e.ID] = &stored
	return e, nil
}

func (repo *enrollRepository) GetEnrollmentByID(_ context.Context, id string) (enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.table[id]; ok {
		return copyEnrollment(*e), nil
	}
	return enroll.Enrollment{}, enroll.ErrNotFound
}

func (repo *enrollRepository) QueryEnrollmentsByClass(_ context.Context, classID string) ([]enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrollments []enroll.Enrollment
	for _, e := range repo.db.table {
		if e.ClassID == classID {
			enrollments = append(enrollments, copyEnrollment(*e))
		}
	}
	sortEnrollments(enrollments)
	return enrollments, nil
}

func (repo *enrollRepository) QueryEnrollmentsByStudent(_ context.Context, studentID string) ([]enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrollments []enroll.Enrollment
	for _, e := range repo.db.table {
		if e.StudentID == studentID {
			enrollments = append(enrollments, copyEnrollment(*e))
		}
	}
	sortEnrollments(enrollments)
	return enrollments, nil
}

func (repo *enrollRepository) QueryStudentEmailsByClass(_ context.Context, classID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var emails []string
	for _, e := range repo.db.table {
		if e.ClassID == classID {
			emails = append(emails, e.StudentEmail)
		}
	}
	sort.Strings(emails)
	return emails, nil
}

func (repo *enrollRepository) UpdateEnrollment(_ context.Context, e enroll.Enrollment) (enroll.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[e.ID]
	if !ok {
		return enroll.Enrollment{}, enroll.ErrNotFound
	}
	orig.Rating = e.Rating
	orig.Feedback = e.Feedback
	orig.Attendance = copyEnrollment(e).Attendance
	orig.UpdatedAt = e.UpdatedAt
	return copyEnrollment(*orig), nil
}

func sortEnrollments(enrollments []enroll.Enrollment) {
	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt)
	})
}
