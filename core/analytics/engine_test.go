package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/enroll"
)

func TestSummarize(t *testing.T) {
	cls := class.Class{ID: "cls1", Title: "Guitar Basics", Price: 25}
	sessions := []class.Session{
		{Number: 1, Status: class.SessionCompleted},
		{Number: 2, Status: class.SessionCompleted},
		{Number: 3, Status: class.SessionLive},
		{Number: 4, Status: class.SessionScheduled},
		{Number: 5, Status: class.SessionCancelled},
	}
	enrollments := []enroll.Enrollment{
		{
			StudentID: "stu1",
			Rating:    null.IntFrom(5),
			Attendance: map[string]enroll.AttendanceMark{
				"s1": {SessionNumber: 1, Attended: true},
				"s2": {SessionNumber: 2, Attended: false},
			},
		},
		{
			StudentID: "stu2",
			Rating:    null.IntFrom(4),
			Attendance: map[string]enroll.AttendanceMark{
				"s1": {SessionNumber: 1, Attended: true},
				"s2": {SessionNumber: 2, Attended: true},
			},
		},
		{StudentID: "stu3"}, // just enrolled: no rating, no marks
	}

	snap := Summarize(cls, sessions, enrollments)

	assert.Equal(t, 3, snap.Enrollments)
	assert.Equal(t, 75.0, snap.TotalRevenue)
	assert.Equal(t, 2, snap.CompletedSessions)
	assert.Equal(t, 1, snap.UpcomingSessions) // live and cancelled count as neither
	assert.Equal(t, null.Float64From(4.5), snap.AverageRating)
	assert.Equal(t, 0.75, snap.AttendanceRate) // stu3 excluded from the average
}

func TestSummarize_missingDataDegrades(t *testing.T) {
	snap := Summarize(class.Class{ID: "cls1", Price: 100}, nil, nil)

	assert.Equal(t, 0, snap.Enrollments)
	assert.Equal(t, 0.0, snap.TotalRevenue)
	assert.False(t, snap.AverageRating.Valid, "no ratings must yield a null average, not 0")
	assert.Equal(t, 0.0, snap.AttendanceRate)
}
