package enroll

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// AttendanceMark records whether a student was present at one session.
// SessionNumber is a denormalized copy kept for display.
type AttendanceMark struct {
	SessionNumber int  `json:"session_number"`
	Attended      bool `json:"attended"`
}

// Enrollment is a student's enrollment in a class, created when checkout completes.
type Enrollment struct {
	ID           string  `json:"id"`
	ClassID      string  `json:"class_id"`
	StudentID    string  `json:"student_id"`
	StudentEmail string  `json:"student_email"`
	PricePaid    float64 `json:"price_paid"`

	Rating   null.Int    `json:"rating"` // 1..5; invalid until the student rates
	Feedback null.String `json:"feedback"`

	// Attendance maps session id -> recorded mark. A missing key means
	// "not yet recorded", which is NOT the same as a mark with Attended=false.
	Attendance map[string]AttendanceMark `json:"attendance"`

	EnrolledAt time.Time `json:"enrolled_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Attendance is an attended/total/rate aggregate over recorded marks.
type Attendance struct {
	Attended int     `json:"attended"`
	Total    int     `json:"total"`
	Rate     float64 `json:"rate"` // in [0, 1]; 0 when nothing is recorded
}

// AttendanceSummary folds the enrollment's recorded marks. Only sessions with a
// recorded mark count towards the total; the rate is 0 (never an error) when no
// mark has been recorded yet.
func (e Enrollment) AttendanceSummary() Attendance {
	att := Attendance{Total: len(e.Attendance)}
	for _, mark := range e.Attendance {
		if mark.Attended {
			att.Attended++
		}
	}
	if att.Total > 0 {
		att.Rate = float64(att.Attended) / float64(att.Total)
	}
	return att
}

// ClassAttendance folds a class's enrollments into a class-level aggregate.
// Enrollments with no recorded marks are skipped entirely rather than counted
// as 0%, so newly enrolled students do not drag the average down.
func ClassAttendance(enrollments []Enrollment) Attendance {
	var att Attendance
	for _, e := range enrollments {
		s := e.AttendanceSummary()
		if s.Total == 0 {
			continue
		}
		att.Attended += s.Attended
		att.Total += s.Total
	}
	if att.Total > 0 {
		att.Rate = float64(att.Attended) / float64(att.Total)
	}
	return att
}

// NewEnrollment is the checkout boundary payload: payment itself happens upstream,
// this only records its outcome.
type NewEnrollment struct {
	ClassID      string  `json:"-" validate:"required"`
	StudentID    string  `json:"-" validate:"required"`
	StudentEmail string  `json:"student_email" validate:"required,email"`
	PricePaid    float64 `json:"price_paid" validate:"gte=0"`
}

func (ne *NewEnrollment) Validate() error {
	ne.StudentEmail = core.CleanString(ne.StudentEmail, true /* lower */)
	return core.Validate.Struct(ne)
}

// Rating is the student's 1-5 verdict on a class, with optional feedback.
type Rating struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback"`
}

func (r *Rating) Validate() error {
	r.Feedback = core.CleanString(r.Feedback)
	return core.Validate.Struct(r)
}

// AttendanceUpdate records one attendance mark for a (student, session) pair.
type AttendanceUpdate struct {
	SessionNumber int  `json:"session_number" validate:"required,min=1"`
	Attended      bool `json:"attended"`
}

func (au *AttendanceUpdate) Validate() error { return core.Validate.Struct(au) }
