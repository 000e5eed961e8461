package class_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/enroll"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

func setup(t *testing.T) (*class.Service, class.Repository, enroll.Repository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	classRepo := dummydb.NewClassRepository(db)
	enrollRepo := dummydb.NewEnrollRepository(db)
	svc := class.NewService(classRepo, enrollRepo, nil, nil)
	return svc, classRepo, enrollRepo
}

func newRecurring(creatorID string) class.NewClass {
	return class.NewClass{
		CreatorID: creatorID,
		Title:     "Guitar Basics",
		Category:  "Music",
		Price:     25,
		Kind:      class.KindRecurring,
		StartDate: "2024-06-03",
		EndDate:   "2024-06-17",
		Weekdays:  []string{"Monday", "Wednesday"},
		StartTime: "18:00",
		EndTime:   "19:00",
	}
}

func planEntries() []class.SessionEntry {
	return []class.SessionEntry{
		{Date: "2024-06-03", Time: "18:00", MeetingLink: "https://meet.test/s1"},
		{Date: "2024-06-05", Time: "18:00", MeetingLink: "https://meet.test/s2"},
		{Date: "2024-06-10", Time: "18:00", MeetingLink: "https://meet.test/s3"},
		{Date: "2024-06-12", Time: "18:00", MeetingLink: "https://meet.test/s4"},
		{Date: "2024-06-17", Time: "18:00", MeetingLink: "https://meet.test/s5"},
	}
}

func TestService_Create(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	t.Run("recurring schedule fields are derived once", func(t *testing.T) {
		cls, err := svc.Create(ctx, newRecurring("creator-1"))
		require.NoError(t, err)
		assert.NotEmpty(t, cls.ID)
		assert.Equal(t, 5, cls.SessionCount)
		assert.Equal(t, 3, cls.AvgGapDays)
		assert.Equal(t, 1, cls.Version)
		assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), cls.StartDate)
	})

	t.Run("one-time class gets a single session", func(t *testing.T) {
		nc := class.NewClass{
			CreatorID: "creator-1",
			Title:     "Masterclass",
			Category:  "Music",
			Kind:      class.KindOneTime,
			Date:      "2024-07-01",
			StartTime: "10:00",
			EndTime:   "12:00",
		}
		cls, err := svc.Create(ctx, nc)
		require.NoError(t, err)
		assert.Equal(t, 1, cls.SessionCount)
		assert.Zero(t, cls.AvgGapDays)
		assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), cls.Date)
	})
}

func TestService_Sessions_stubFallback(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	cls, err := svc.Create(ctx, newRecurring("creator-1"))
	require.NoError(t, err)

	sessions, err := svc.Sessions(ctx, cls.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 5)
	for i, s := range sessions {
		assert.Equal(t, i+1, s.Number)
		assert.Empty(t, s.ID) // stubs are not persisted
		assert.True(t, s.Date.IsZero())
	}

	_, err = svc.Sessions(ctx, "nope")
	assert.ErrorIs(t, err, class.ErrNotFound)
}

func TestService_ReplaceSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("atomic swap bumps the version", func(t *testing.T) {
		svc, _, _ := setup(t)
		cls, err := svc.Create(ctx, newRecurring("creator-1"))
		require.NoError(t, err)

		updated, err := svc.ReplaceSessions(ctx, cls.ID, planEntries())
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		require.Len(t, updated.Sessions, 5)

		sessions, err := svc.Sessions(ctx, cls.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 5)
		for i, s := range sessions {
			assert.Equal(t, i+1, s.Number)
			assert.NotEmpty(t, s.ID)
			assert.Equal(t, class.SessionScheduled, s.Status)
		}
	})

	t.Run("re-submission yields an identical set", func(t *testing.T) {
		svc, _, _ := setup(t)
		cls, err := svc.Create(ctx, newRecurring("creator-1"))
		require.NoError(t, err)

		first, err := svc.ReplaceSessions(ctx, cls.ID, planEntries())
		require.NoError(t, err)
		second, err := svc.ReplaceSessions(ctx, cls.ID, planEntries())
		require.NoError(t, err)

		require.Len(t, second.Sessions, len(first.Sessions))
		for i := range second.Sessions {
			assert.Equal(t, first.Sessions[i].Number, second.Sessions[i].Number)
			assert.Equal(t, first.Sessions[i].Date, second.Sessions[i].Date)
			assert.Equal(t, first.Sessions[i].MeetingLink, second.Sessions[i].MeetingLink)
		}
		assert.Equal(t, 3, second.Version)
	})

	t.Run("invalid plan leaves the stored set untouched", func(t *testing.T) {
		svc, _, _ := setup(t)
		cls, err := svc.Create(ctx, newRecurring("creator-1"))
		require.NoError(t, err)
		_, err = svc.ReplaceSessions(ctx, cls.ID, planEntries())
		require.NoError(t, err)

		bad := planEntries()
		bad[2].MeetingLink = ""
		_, err = svc.ReplaceSessions(ctx, cls.ID, bad)
		var planErr *class.PlanError
		require.ErrorAs(t, err, &planErr)
		assert.Equal(t, 3, planErr.Session)

		sessions, err := svc.Sessions(ctx, cls.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://meet.test/s3", sessions[2].MeetingLink)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		svc, repo, _ := setup(t)
		cls, err := svc.Create(ctx, newRecurring("creator-1"))
		require.NoError(t, err)

		// a concurrent replace already bumped the version
		_, err = repo.ReplaceSessions(ctx, cls.ID, cls.Version, nil)
		require.NoError(t, err)

		_, err = repo.ReplaceSessions(ctx, cls.ID, cls.Version, nil)
		assert.ErrorIs(t, err, class.ErrReplaceConflict)
	})

	t.Run("caller's session slice is not mutated", func(t *testing.T) {
		svc, repo, _ := setup(t)
		cls, err := svc.Create(ctx, newRecurring("creator-1"))
		require.NoError(t, err)

		sessions, err := svc.Sessions(ctx, cls.ID)
		require.NoError(t, err)

		updated, err := repo.ReplaceSessions(ctx, cls.ID, cls.Version, sessions)
		require.NoError(t, err)
		require.Len(t, updated.Sessions, len(sessions))

		for _, s := range sessions {
			assert.Empty(t, s.ID)
		}
	})
}

type mailRecorder struct {
	messages []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.messages = append(m.messages, messages...)
}

func TestService_ReplaceSessions_notifiesEnrolledStudents(t *testing.T) {
	ctx := context.Background()
	db, err := dummydb.Open()
	require.NoError(t, err)
	classRepo := dummydb.NewClassRepository(db)
	enrollRepo := dummydb.NewEnrollRepository(db)
	mailSvc := &mailRecorder{}
	svc := class.NewService(classRepo, enrollRepo, mailSvc, nil)

	cls, err := svc.Create(ctx, newRecurring("creator-1"))
	require.NoError(t, err)

	now := time.Now()
	for _, email := range []string{"s1@test.cd", "s2@test.cd"} {
		_, err = enrollRepo.CreateEnrollment(ctx, enroll.Enrollment{
			ClassID:      cls.ID,
			StudentID:    email,
			StudentEmail: email,
			EnrolledAt:   now,
			UpdatedAt:    now,
		})
		require.NoError(t, err)
	}

	_, err = svc.ReplaceSessions(ctx, cls.ID, planEntries())
	require.NoError(t, err)

	require.Len(t, mailSvc.messages, 1)
	msg := mailSvc.messages[0]
	assert.Len(t, msg.To, 2)
	assert.Contains(t, msg.Subject, "Guitar Basics")
	assert.Equal(t, "schedule-change", msg.TemplateName)
}

func TestService_UpdateSessionStatus(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	cls, err := svc.Create(ctx, newRecurring("creator-1"))
	require.NoError(t, err)
	updated, err := svc.ReplaceSessions(ctx, cls.ID, planEntries())
	require.NoError(t, err)
	id := updated.Sessions[0].ID

	s, err := svc.UpdateSessionStatus(ctx, id, class.SessionStatusUpdate{Status: class.SessionLive})
	require.NoError(t, err)
	assert.Equal(t, class.SessionLive, s.Status)

	s, err = svc.UpdateSessionStatus(ctx, id, class.SessionStatusUpdate{
		Status:        class.SessionCompleted,
		RecordingLink: "https://rec.test/r1",
	})
	require.NoError(t, err)
	assert.Equal(t, class.SessionCompleted, s.Status)
	assert.Equal(t, "https://rec.test/r1", s.RecordingLink.String)

	// the class's embedded session cache follows the update
	cls, err = svc.GetByID(ctx, cls.ID)
	require.NoError(t, err)
	require.NotEmpty(t, cls.Sessions)
	assert.Equal(t, class.SessionCompleted, cls.Sessions[0].Status)
	assert.Equal(t, "https://rec.test/r1", cls.Sessions[0].RecordingLink.String)

	_, err = svc.UpdateSessionStatus(ctx, id, class.SessionStatusUpdate{Status: class.SessionLive})
	assert.ErrorIs(t, err, class.ErrInvalidStatus)

	_, err = svc.UpdateSessionStatus(ctx, "nope", class.SessionStatusUpdate{Status: class.SessionLive})
	assert.ErrorIs(t, err, class.ErrSessionNotFound)
}
