package analytics

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/enroll"
)

// Snapshot is a class's derived dashboard aggregate. It owns no storage: every
// request recomputes it from the enrollment and session records.
type Snapshot struct {
	ClassID           string       `json:"class_id"`
	Title             string       `json:"title"`
	Enrollments       int          `json:"enrollments"`
	CompletedSessions int          `json:"completed_sessions"`
	UpcomingSessions  int          `json:"upcoming_sessions"`
	AverageRating     null.Float64 `json:"average_rating"` // invalid while no ratings exist
	AttendanceRate    float64      `json:"attendance_rate"`
	TotalRevenue      float64      `json:"total_revenue"`
}

// Summarize computes a class's snapshot from scratch. Missing data degrades to
// zero values or a null rating; it never errors.
func Summarize(cls class.Class, sessions []class.Session, enrollments []enroll.Enrollment) Snapshot {
	snap := Snapshot{
		ClassID:      cls.ID,
		Title:        cls.Title,
		Enrollments:  len(enrollments),
		TotalRevenue: float64(len(enrollments)) * cls.Price,
	}

	for _, s := range sessions {
		switch s.Status {
		case class.SessionCompleted:
			snap.CompletedSessions++
		case class.SessionScheduled:
			snap.UpcomingSessions++
		}
	}

	var ratingSum, rated int
	for _, e := range enrollments {
		if e.Rating.Valid {
			ratingSum += e.Rating.Int
			rated++
		}
	}
	if rated > 0 {
		snap.AverageRating = null.Float64From(float64(ratingSum) / float64(rated))
	}

	snap.AttendanceRate = enroll.ClassAttendance(enrollments).Rate
	return snap
}

// Dashboard is a creator's cross-class rollup.
type Dashboard struct {
	Classes          []Snapshot `json:"classes"`
	TotalEnrollments int        `json:"total_enrollments"`
	TotalRevenue     float64    `json:"total_revenue"`
}

type (
	ClassSource interface {
		GetClassByID(ctx context.Context, id string) (class.Class, error)
		QueryClassesByCreator(ctx context.Context, creatorID string) ([]class.Class, error)
		QuerySessions(ctx context.Context, classID string) ([]class.Session, error)
	}

	EnrollmentSource interface {
		QueryEnrollmentsByClass(ctx context.Context, classID string) ([]enroll.Enrollment, error)
	}

	Engine struct {
		classes     ClassSource
		enrollments EnrollmentSource
	}
)

func NewEngine(classes ClassSource, enrollments EnrollmentSource) *Engine {
	return &Engine{classes: classes, enrollments: enrollments}
}

// ClassSnapshot recomputes one class's metrics.
func (eng *Engine) ClassSnapshot(ctx context.Context, classID string) (Snapshot, error) {
	cls, err := eng.classes.GetClassByID(ctx, classID)
	if err != nil {
		return Snapshot{}, err
	}
	sessions, err := eng.classes.QuerySessions(ctx, classID)
	if err != nil {
		return Snapshot{}, err
	}
	enrollments, err := eng.enrollments.QueryEnrollmentsByClass(ctx, classID)
	if err != nil {
		return Snapshot{}, err
	}
	return Summarize(cls, sessions, enrollments), nil
}

// CreatorDashboard recomputes the snapshots of every class the creator runs.
func (eng *Engine) CreatorDashboard(ctx context.Context, creatorID string) (Dashboard, error) {
	classes, err := eng.classes.QueryClassesByCreator(ctx, creatorID)
	if err != nil {
		return Dashboard{}, err
	}

	dash := Dashboard{Classes: make([]Snapshot, 0, len(classes))}
	for _, cls := range classes {
		snap, err := eng.ClassSnapshot(ctx, cls.ID)
		if err != nil {
			return Dashboard{}, err
		}
		dash.Classes = append(dash.Classes, snap)
		dash.TotalEnrollments += snap.Enrollments
		dash.TotalRevenue += snap.TotalRevenue
	}
	return dash, nil
}
