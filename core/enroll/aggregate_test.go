package enroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrollment_AttendanceSummary(t *testing.T) {
	tests := []struct {
		name  string
		marks map[string]AttendanceMark
		want  Attendance
	}{
		{
			name: "half attended",
			marks: map[string]AttendanceMark{
				"s1": {SessionNumber: 1, Attended: true},
				"s2": {SessionNumber: 2, Attended: false},
			},
			want: Attendance{Attended: 1, Total: 2, Rate: 0.5},
		},
		{
			name:  "no recorded marks",
			marks: nil,
			want:  Attendance{},
		},
		{
			name: "recorded absence is not a missing record",
			marks: map[string]AttendanceMark{
				"s1": {SessionNumber: 1, Attended: false},
			},
			want: Attendance{Attended: 0, Total: 1, Rate: 0},
		},
		{
			name: "all attended",
			marks: map[string]AttendanceMark{
				"s1": {SessionNumber: 1, Attended: true},
				"s2": {SessionNumber: 2, Attended: true},
				"s3": {SessionNumber: 3, Attended: true},
			},
			want: Attendance{Attended: 3, Total: 3, Rate: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Enrollment{Attendance: tt.marks}.AttendanceSummary()
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Rate, 0.0)
			assert.LessOrEqual(t, got.Rate, 1.0)
		})
	}
}

func TestClassAttendance(t *testing.T) {
	attended := Enrollment{Attendance: map[string]AttendanceMark{
		"s1": {SessionNumber: 1, Attended: true},
		"s2": {SessionNumber: 2, Attended: false},
	}}
	fresh := Enrollment{} // enrolled after the last session, nothing recorded yet

	t.Run("fresh enrollments are excluded, not counted as 0%", func(t *testing.T) {
		got := ClassAttendance([]Enrollment{attended, fresh})
		assert.Equal(t, Attendance{Attended: 1, Total: 2, Rate: 0.5}, got)
	})

	t.Run("no enrollments", func(t *testing.T) {
		assert.Equal(t, Attendance{}, ClassAttendance(nil))
	})

	t.Run("only fresh enrollments", func(t *testing.T) {
		got := ClassAttendance([]Enrollment{fresh, fresh})
		assert.Equal(t, Attendance{}, got)
	})

	t.Run("marks sum across students", func(t *testing.T) {
		other := Enrollment{Attendance: map[string]AttendanceMark{
			"s1": {SessionNumber: 1, Attended: true},
		}}
		got := ClassAttendance([]Enrollment{attended, other})
		assert.Equal(t, Attendance{Attended: 2, Total: 3, Rate: 2.0 / 3.0}, got)
	})
}
