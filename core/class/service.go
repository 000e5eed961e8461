package class

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("class not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrReplaceConflict = errors.New("another session update for this class is in progress")
	ErrInvalidStatus   = errors.New("invalid session status transition")

	// ErrPartialReplace marks a session replace that could not be applied atomically.
	// It is a store-level defect, never user-resolvable: log it loudly and tell the
	// caller to retry.
	ErrPartialReplace = errors.New("session replace did not complete atomically")
)

// allowed session lifecycle transitions
var statusTransitions = map[string][]string{
	SessionScheduled: {SessionLive, SessionCompleted, SessionCancelled},
	SessionLive:      {SessionCompleted, SessionCancelled},
}

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		QueryAllClasses(ctx context.Context) ([]Class, error)
		QueryClassesByCreator(ctx context.Context, creatorID string) ([]Class, error)
		QuerySessions(ctx context.Context, classID string) ([]Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		// ReplaceSessions deletes every session of the class and inserts the new set as
		// one atomic unit, overwriting the class's embedded session cache in the same
		// operation. version must match the stored class version; ErrReplaceConflict is
		// returned otherwise and nothing changes.
		ReplaceSessions(ctx context.Context, classID string, version int, sessions []Session) (Class, error)
		UpdateSession(ctx context.Context, s Session) (Session, error)
	}

	// EnrollmentDirectory resolves the students enrolled in a class. Implemented by the
	// enrollment repository; used here for schedule change notices only.
	EnrollmentDirectory interface {
		QueryStudentEmailsByClass(ctx context.Context, classID string) ([]string, error)
	}

	Service struct {
		repo    Repository
		dir     EnrollmentDirectory
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, dir EnrollmentDirectory, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, dir: dir, mailSvc: mailSvc, logger: logger}
}

// Create persists a new class with its derived schedule fields (session count,
// average gap) computed once from the recurrence rule. The scheduling engine never
// mutates a class afterwards.
func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now()
	cls := Class{
		CreatorID:   nc.CreatorID,
		Title:       nc.Title,
		Description: nc.Description,
		Category:    nc.Category,
		SubCategory: nc.SubCategory,
		Price:       nc.Price,
		Kind:        nc.Kind,
		StartTime:   nc.StartTime,
		EndTime:     nc.EndTime,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if nc.Kind == KindOneTime {
		cls.Date = nc.date()
		cls.SessionCount = 1
	} else {
		rule := Recurrence{Start: nc.startDate(), End: nc.endDate(), Weekdays: nc.Weekdays}
		cls.StartDate = rule.Start
		cls.EndDate = rule.End
		cls.Weekdays = rule.Weekdays
		cls.SessionCount = rule.Count()
		cls.AvgGapDays = rule.AvgGapDays()
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryAllClasses(ctx)
}

func (svc *Service) QueryByCreator(ctx context.Context, creatorID string) ([]Class, error) {
	return svc.repo.QueryClassesByCreator(ctx, creatorID)
}

func (svc *Service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

// Sessions returns the class's stored session records, or freshly generated stubs
// when no plan has been submitted yet.
func (svc *Service) Sessions(ctx context.Context, classID string) ([]Session, error) {
	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	sessions, err := svc.repo.QuerySessions(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return cls.GenerateStubs(), nil
	}
	return sessions, nil
}

// ReplaceSessions validates a submitted session plan and atomically swaps the
// class's whole session set for it. Re-submitting the same plan is idempotent:
// the resulting set is identical however many times it is applied.
func (svc *Service) ReplaceSessions(ctx context.Context, classID string, entries []SessionEntry) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return Class{}, err
	}
	if err := cls.ValidatePlan(entries); err != nil {
		return Class{}, err
	}

	now := time.Now()
	sessions := make([]Session, 0, len(entries))
	for i, e := range entries {
		sessions = append(sessions, Session{
			ClassID:     classID,
			Number:      i + 1,
			Date:        mustParseDate(e.Date),
			StartTime:   e.Time,
			MeetingLink: e.MeetingLink,
			Status:      SessionScheduled,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	updated, err := svc.repo.ReplaceSessions(ctx, classID, cls.Version, sessions)
	if err != nil {
		if errors.Is(err, ErrPartialReplace) && svc.logger != nil {
			svc.logger.Error(fmt.Sprintf("replacing sessions for class %s: %v", classID, err), err)
		}
		return Class{}, err
	}

	svc.notifyScheduleChange(ctx, updated)
	return updated, nil
}

// UpdateSessionStatus moves a session through its lifecycle and optionally attaches
// a recording link once it has run.
func (svc *Service) UpdateSessionStatus(ctx context.Context, sessionID string, su SessionStatusUpdate) (Session, error) {
	s, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}

	if su.Status != s.Status {
		var allowed bool
		for _, next := range statusTransitions[s.Status] {
			if next == su.Status {
				allowed = true
				break
			}
		}
		if !allowed {
			return Session{}, errors.Wrapf(ErrInvalidStatus, "%s -> %s", s.Status, su.Status)
		}
	}

	s.Status = su.Status
	if su.RecordingLink != "" {
		s.RecordingLink = null.StringFrom(su.RecordingLink)
	}
	s.UpdatedAt = time.Now()
	return svc.repo.UpdateSession(ctx, s)
}

func (svc *Service) notifyScheduleChange(ctx context.Context, cls Class) {
	if svc.dir == nil || svc.mailSvc == nil {
		return
	}
	emails, err := svc.dir.QueryStudentEmailsByClass(ctx, cls.ID)
	if err != nil {
		if svc.logger != nil {
			svc.logger.Warn(fmt.Sprintf("resolving enrolled students for class %s: %v", cls.ID, err), err)
		}
		return
	}
	if len(emails) == 0 {
		return
	}

	to := make([]mail.Address, 0, len(emails))
	for _, e := range emails {
		to = append(to, mail.Address{Address: e})
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("Schedule updated: %s", cls.Title),
		TemplateName: "schedule-change",
		TemplateData: struct {
			ClassID      string
			ClassTitle   string
			SessionCount int
		}{cls.ID, cls.Title, cls.SessionCount},
	})
}
