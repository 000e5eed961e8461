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

	"github.com/trezcool/darasa/core/class"
)

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) class.Repository {
	return &classRepository{db: db}
}

// sessionsJSON maps the class's embedded session cache to a JSONB column.
type sessionsJSON []class.Session

func (s sessionsJSON) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal([]class.Session(s))
}

func (s *sessionsJSON) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("unsupported sessions column type %T", src)
	}
	return json.Unmarshal(b, (*[]class.Session)(s))
}

type classRow struct {
	ID           string         `db:"id"`
	CreatorID    string         `db:"creator_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Category     string         `db:"category"`
	SubCategory  string         `db:"sub_category"`
	Price        float64        `db:"price"`
	Kind         string         `db:"kind"`
	Date         null.Time      `db:"date"`
	StartDate    null.Time      `db:"start_date"`
	EndDate      null.Time      `db:"end_date"`
	Weekdays     pq.StringArray `db:"weekdays"`
	StartTime    string         `db:"start_time"`
	EndTime      string         `db:"end_time"`
	SessionCount int            `db:"session_count"`
	AvgGapDays   int            `db:"avg_gap_days"`
	Sessions     sessionsJSON   `db:"sessions"`
	Version      int            `db:"version"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
}

func newClassRow(cls class.Class) classRow {
	return classRow{
		ID:           cls.ID,
		CreatorID:    cls.CreatorID,
		Title:        cls.Title,
		Description:  cls.Description,
		Category:     cls.Category,
		SubCategory:  cls.SubCategory,
		Price:        cls.Price,
		Kind:         cls.Kind,
		Date:         null.NewTime(cls.Date, !cls.Date.IsZero()),
		StartDate:    null.NewTime(cls.StartDate, !cls.StartDate.IsZero()),
		EndDate:      null.NewTime(cls.EndDate, !cls.EndDate.IsZero()),
		Weekdays:     pq.StringArray(cls.Weekdays),
		StartTime:    cls.StartTime,
		EndTime:      cls.EndTime,
		SessionCount: cls.SessionCount,
		AvgGapDays:   cls.AvgGapDays,
		Sessions:     sessionsJSON(cls.Sessions),
		Version:      cls.Version,
		CreatedAt:    null.TimeFrom(cls.CreatedAt),
		UpdatedAt:    null.TimeFrom(cls.UpdatedAt),
	}
}

func (r classRow) toClass() class.Class {
	return class.Class{
		ID:           r.ID,
		CreatorID:    r.CreatorID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		SubCategory:  r.SubCategory,
		Price:        r.Price,
		Kind:         r.Kind,
		Date:         r.Date.Time,
		StartDate:    r.StartDate.Time,
		EndDate:      r.EndDate.Time,
		Weekdays:     []string(r.Weekdays),
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		SessionCount: r.SessionCount,
		AvgGapDays:   r.AvgGapDays,
		Sessions:     []class.Session(r.Sessions),
		Version:      r.Version,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

type sessionRow struct {
	ID            string      `db:"id"`
	ClassID       string      `db:"class_id"`
	Number        int         `db:"number"`
	Date          null.Time   `db:"date"`
	StartTime     string      `db:"start_time"`
	MeetingLink   string      `db:"meeting_link"`
	Status        string      `db:"status"`
	RecordingLink null.String `db:"recording_link"`
	CreatedAt     null.Time   `db:"created_at"`
	UpdatedAt     null.Time   `db:"updated_at"`
}

func newSessionRow(s class.Session) sessionRow {
	return sessionRow{
		ID:            s.ID,
		ClassID:       s.ClassID,
		Number:        s.Number,
		Date:          null.TimeFrom(s.Date),
		StartTime:     s.StartTime,
		MeetingLink:   s.MeetingLink,
		Status:        s.Status,
		RecordingLink: s.RecordingLink,
		CreatedAt:     null.TimeFrom(s.CreatedAt),
		UpdatedAt:     null.TimeFrom(s.UpdatedAt),
	}
}

func (r sessionRow) toSession() class.Session {
	return class.Session{
		ID:            r.ID,
		ClassID:       r.ClassID,
		Number:        r.Number,
		Date:          r.Date.Time,
		StartTime:     r.StartTime,
		MeetingLink:   r.MeetingLink,
		Status:        r.Status,
		RecordingLink: r.RecordingLink,
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}
}

const insertClassQ = `
INSERT INTO class (
	id, creator_id, title, description, category, sub_category, price, kind,
	date, start_date, end_date, weekdays, start_time, end_time,
	session_count, avg_gap_days, sessions, version, created_at, updated_at
) VALUES (
	:id, :creator_id, :title, :description, :category, :sub_category, :price, :kind,
	:date, :start_date, :end_date, :weekdays, :start_time, :end_time,
	:session_count, :avg_gap_days, :sessions, :version, :created_at, :updated_at
)`

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = uuid.New().String()
	if _, err := repo.db.NamedExecContext(ctx, insertClassQ, newClassRow(cls)); err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo *classRepository) GetClassByID(ctx context.Context, id string) (class.Class, error) {
	var row classRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM class WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "getting class")
	}
	return row.toClass(), nil
}

func (repo *classRepository) QueryAllClasses(ctx context.Context) ([]class.Class, error) {
	var rows []classRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM class ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.toClass())
	}
	return classes, nil
}

func (repo *classRepository) QueryClassesByCreator(ctx context.Context, creatorID string) ([]class.Class, error) {
	var rows []classRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM class WHERE creator_id = $1 ORDER BY created_at DESC`, creatorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying creator classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.toClass())
	}
	return classes, nil
}

func (repo *classRepository) QuerySessions(ctx context.Context, classID string) ([]class.Session, error) {
	var rows []sessionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM session WHERE class_id = $1 ORDER BY number`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]class.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toSession())
	}
	return sessions, nil
}

func (repo *classRepository) GetSessionByID(ctx context.Context, id string) (class.Session, error) {
	var row sessionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM session WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return class.Session{}, class.ErrSessionNotFound
		}
		return class.Session{}, errors.Wrap(err, "getting session")
	}
	return row.toSession(), nil
}

const insertSessionQ = `
INSERT INTO session (
	id, class_id, number, date, start_time, meeting_link, status, recording_link, created_at, updated_at
) VALUES (
	:id, :class_id, :number, :date, :start_time, :meeting_link, :status, :recording_link, :created_at, :updated_at
)`

// ReplaceSessions swaps the class's whole session set in one transaction: the
// version check and cache overwrite on the class row, the delete of the old set
// and the insert of the new one all commit or roll back together.
func (repo *classRepository) ReplaceSessions(ctx context.Context, classID string, version int, sessions []class.Session) (class.Class, error) {
	// mint IDs on a copy; the caller's slice stays untouched
	inserts := make([]class.Session, len(sessions))
	copy(inserts, sessions)
	for i := range inserts {
		inserts[i].ID = uuid.New().String()
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE class SET sessions = $1, version = version + 1, updated_at = now()
		 WHERE id = $2 AND version = $3`,
		sessionsJSON(inserts), classID, version)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "updating class version")
	}
	if n, err := res.RowsAffected(); err != nil {
		return class.Class{}, errors.Wrap(err, "updating class version")
	} else if n == 0 {
		// stale version, or no such class at all
		var exists bool
		if err = tx.GetContext(ctx, &exists, `SELECT true FROM class WHERE id = $1`, classID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return class.Class{}, class.ErrNotFound
			}
			return class.Class{}, errors.Wrap(err, "checking class")
		}
		return class.Class{}, class.ErrReplaceConflict
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM session WHERE class_id = $1`, classID); err != nil {
		return class.Class{}, errors.Wrap(err, "deleting old sessions")
	}
	for _, s := range inserts {
		if _, err = tx.NamedExecContext(ctx, insertSessionQ, newSessionRow(s)); err != nil {
			return class.Class{}, errors.Wrap(err, "inserting session")
		}
	}

	var row classRow
	if err = tx.GetContext(ctx, &row, `SELECT * FROM class WHERE id = $1`, classID); err != nil {
		return class.Class{}, errors.Wrap(err, "reloading class")
	}

	if err = tx.Commit(); err != nil {
		return class.Class{}, errors.Wrapf(class.ErrPartialReplace, "committing: %v", err)
	}
	return row.toClass(), nil
}

// UpdateSession writes the session row and the class's embedded cache in one
// transaction so the cache cannot drift from the table.
func (repo *classRepository) UpdateSession(ctx context.Context, s class.Session) (class.Session, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return class.Session{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.NamedExecContext(ctx,
		`UPDATE session SET status = :status, recording_link = :recording_link, updated_at = :updated_at
		 WHERE id = :id`, newSessionRow(s))
	if err != nil {
		return class.Session{}, errors.Wrap(err, "updating session")
	}
	if n, err := res.RowsAffected(); err != nil {
		return class.Session{}, errors.Wrap(err, "updating session")
	} else if n == 0 {
		return class.Session{}, class.ErrSessionNotFound
	}

	var rows []sessionRow
	err = tx.SelectContext(ctx, &rows,
		`SELECT * FROM session WHERE class_id = $1 ORDER BY number`, s.ClassID)
	if err != nil {
		return class.Session{}, errors.Wrap(err, "refreshing session cache")
	}
	sessions := make([]class.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toSession())
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE class SET sessions = $1 WHERE id = $2`, sessionsJSON(sessions), s.ClassID); err != nil {
		return class.Session{}, errors.Wrap(err, "refreshing session cache")
	}

	if err = tx.Commit(); err != nil {
		return class.Session{}, errors.Wrap(err, "committing")
	}
	return s, nil
}
