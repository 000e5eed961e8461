package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/enroll"
)

const uniqueViolation = "23505"

type enrollRepository struct {
	db *sqlx.DB
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *sqlx.DB) enroll.Repository {
	return &enrollRepository{db: db}
}

// attendanceJSON maps the session-id keyed attendance marks to a JSONB column.
type attendanceJSON map[string]enroll.AttendanceMark

func (a attendanceJSON) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	return json.Marshal(map[string]enroll.AttendanceMark(a))
}

func (a *attendanceJSON) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("unsupported attendance column type %T", src)
	}
	return json.Unmarshal(b, (*map[string]enroll.AttendanceMark)(a))
}

type enrollmentRow struct {
	ID           string         `db:"id"`
	ClassID      string         `db:"class_id"`
	StudentID    string         `db:"student_id"`
	StudentEmail string         `db:"student_email"`
	PricePaid    float64        `db:"price_paid"`
	Rating       null.Int       `db:"rating"`
	Feedback     null.String    `db:"feedback"`
	Attendance   attendanceJSON `db:"attendance"`
	EnrolledAt   null.Time      `db:"enrolled_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
}

func newEnrollmentRow(e enroll.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:           e.ID,
		ClassID:      e.ClassID,
		StudentID:    e.StudentID,
		StudentEmail: e.StudentEmail,
		PricePaid:    e.PricePaid,
		Rating:       e.Rating,
		Feedback:     e.Feedback,
		Attendance:   attendanceJSON(e.Attendance),
		EnrolledAt:   null.TimeFrom(e.EnrolledAt),
		UpdatedAt:    null.TimeFrom(e.UpdatedAt),
	}
}

func (r enrollmentRow) toEnrollment() enroll.Enrollment {
	return enroll.Enrollment{
		ID:           r.ID,
		ClassID:      r.ClassID,
		StudentID:    r.StudentID,
		StudentEmail: r.StudentEmail,
		PricePaid:    r.PricePaid,
		Rating:       r.Rating,
		Feedback:     r.Feedback,
		Attendance:   map[string]enroll.AttendanceMark(r.Attendance),
		EnrolledAt:   r.EnrolledAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

const insertEnrollmentQ = `
INSERT INTO enrollment (
	id, class_id, student_id, student_email, price_paid, rating, feedback, attendance, enrolled_at, updated_at
) VALUES (
	:id, :class_id, :student_id, :student_email, :price_paid, :rating, :feedback, :attendance, :enrolled_at, :updated_at
)`

func (repo *enrollRepository) CreateEnrollment(ctx context.Context, e enroll.Enrollment) (enroll.Enrollment, error) {
	e.ID = uuid.New().String()
	if _, err := repo.db.NamedExecContext(ctx, insertEnrollmentQ, newEnrollmentRow(e)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return enroll.Enrollment{}, enroll.ErrAlreadyEnrolled
		}
		return enroll.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *enrollRepository) GetEnrollmentByID(ctx context.Context, id string) (enroll.Enrollment, error) {
	var row enrollmentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM enrollment WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return enroll.Enrollment{}, enroll.ErrNotFound
		}
		return enroll.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollRepository) QueryEnrollmentsByClass(ctx context.Context, classID string) ([]enroll.Enrollment, error) {
	var rows []enrollmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM enrollment WHERE class_id = $1 ORDER BY enrolled_at`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying class enrollments")
	}
	enrollments := make([]enroll.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.toEnrollment())
	}
	return enrollments, nil
}

func (repo *enrollRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]enroll.Enrollment, error) {
	var rows []enrollmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM enrollment WHERE student_id = $1 ORDER BY enrolled_at`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student enrollments")
	}
	enrollments := make([]enroll.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.toEnrollment())
	}
	return enrollments, nil
}

func (repo *enrollRepository) QueryStudentEmailsByClass(ctx context.Context, classID string) ([]string, error) {
	var emails []string
	err := repo.db.SelectContext(ctx, &emails,
		`SELECT student_email FROM enrollment WHERE class_id = $1`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student emails")
	}
	return emails, nil
}

func (repo *enrollRepository) UpdateEnrollment(ctx context.Context, e enroll.Enrollment) (enroll.Enrollment, error) {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE enrollment SET rating = :rating, feedback = :feedback, attendance = :attendance, updated_at = :updated_at
		 WHERE id = :id`, newEnrollmentRow(e))
	if err != nil {
		return enroll.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err != nil {
		return enroll.Enrollment{}, errors.Wrap(err, "updating enrollment")
	} else if n == 0 {
		return enroll.Enrollment{}, enroll.ErrNotFound
	}
	return e, nil
}
