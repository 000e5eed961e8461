package class

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Schedule kinds
const (
	KindOneTime   = "one-time"
	KindRecurring = "recurring"
)

// Session lifecycle statuses
const (
	SessionScheduled = "scheduled"
	SessionLive      = "live"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

var SessionStatuses = []string{SessionScheduled, SessionLive, SessionCompleted, SessionCancelled}

// Boundary formats: naive local dates and 24-hour times, no timezone handling.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Class is a creator's offering: a one-time or recurring set of sessions.
type Class struct {
	ID          string  `json:"id"`
	CreatorID   string  `json:"creator_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category"`
	Price       float64 `json:"price"`

	Kind string `json:"kind"`

	// one-time classes only
	Date time.Time `json:"date,omitempty"`

	// recurring classes only
	StartDate time.Time `json:"start_date,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty"`
	Weekdays  []string  `json:"weekdays,omitempty"` // canonical full English names

	StartTime string `json:"start_time"` // "HH:MM"
	EndTime   string `json:"end_time"`

	// computed once at creation from the recurrence rule
	SessionCount int `json:"session_count"`
	AvgGapDays   int `json:"avg_gap_days"`

	// Sessions is a derived read-cache of the session records, overwritten wholesale
	// on every plan replace. The session table is the source of truth.
	Sessions []Session `json:"sessions"`

	// Version is bumped on every session replace; a stale version rejects the replace.
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recurrence returns the class's recurrence rule. Only meaningful for recurring classes.
func (c *Class) Recurrence() Recurrence {
	return Recurrence{Start: c.StartDate, End: c.EndDate, Weekdays: c.Weekdays}
}

// GenerateStubs builds the numbered session placeholders for the class.
// A one-time class yields a single stub prefilled from the class itself; a recurring
// class yields one unfilled stub per expected occurrence, numbered 1..count.
// Regeneration is a function of the rule alone: previously entered values are discarded.
func (c *Class) GenerateStubs() []Session {
	if c.Kind == KindOneTime {
		return []Session{{
			ClassID:   c.ID,
			Number:    1,
			Date:      c.Date,
			StartTime: c.StartTime,
			Status:    SessionScheduled,
		}}
	}

	count := c.Recurrence().Count()
	stubs := make([]Session, 0, count)
	for n := 1; n <= count; n++ {
		stubs = append(stubs, Session{ClassID: c.ID, Number: n, Status: SessionScheduled})
	}
	return stubs
}

// Session is one concrete, numbered occurrence of a class.
type Session struct {
	ID            string      `json:"id"`
	ClassID       string      `json:"class_id"`
	Number        int         `json:"number"` // 1-based, contiguous within a class
	Date          time.Time   `json:"date"`
	StartTime     string      `json:"start_time"`
	MeetingLink   string      `json:"meeting_link"`
	Status        string      `json:"status"`
	RecordingLink null.String `json:"recording_link,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewClass contains information needed to create a new Class.
// CreatorID is resolved from the request's auth claims, never bound from the body.
type NewClass struct {
	CreatorID   string  `json:"-" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category" validate:"required"`
	SubCategory string  `json:"sub_category"`
	Price       float64 `json:"price" validate:"gte=0"`

	Kind      string   `json:"kind" validate:"required,oneof=one-time recurring"`
	Date      string   `json:"date" validate:"required_if=Kind one-time,omitempty,isodate"`
	StartDate string   `json:"start_date" validate:"required_if=Kind recurring,omitempty,isodate"`
	EndDate   string   `json:"end_date" validate:"required_if=Kind recurring,omitempty,isodate"`
	Weekdays  []string `json:"weekdays"`
	StartTime string   `json:"start_time" validate:"required,hhmm"`
	EndTime   string   `json:"end_time" validate:"required,hhmm"`
}

func (nc *NewClass) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category)
	nc.SubCategory = core.CleanString(nc.SubCategory)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}

	if nc.Kind == KindOneTime {
		return nil
	}

	// normalize weekday spellings before the rule check
	days := make([]string, 0, len(nc.Weekdays))
	for _, d := range nc.Weekdays {
		day, err := NormalizeWeekday(d)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "weekdays", Error: err.Error()})
		}
		days = append(days, day)
	}
	nc.Weekdays = days

	rule := Recurrence{Start: nc.startDate(), End: nc.endDate(), Weekdays: nc.Weekdays}
	if err := rule.Validate(); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "weekdays", Error: err.Error()})
	}
	if rule.Count() == 0 {
		return core.NewValidationError(
			ErrInvalidRecurrenceRule,
			core.FieldError{Field: "weekdays", Error: "no session dates fall within the given range"},
		)
	}
	return nil
}

// date accessors; the string fields are known well-formed after Validate.

func (nc *NewClass) date() time.Time      { return mustParseDate(nc.Date) }
func (nc *NewClass) startDate() time.Time { return mustParseDate(nc.StartDate) }
func (nc *NewClass) endDate() time.Time   { return mustParseDate(nc.EndDate) }

func mustParseDate(s string) time.Time {
	d, _ := time.Parse(DateLayout, s)
	return d
}

// SessionStatusUpdate defines what may be provided to move a Session through its lifecycle.
type SessionStatusUpdate struct {
	Status        string `json:"status" validate:"required,oneof=scheduled live completed cancelled"`
	RecordingLink string `json:"recording_link" validate:"omitempty,url"`
}

func (su *SessionStatusUpdate) Validate() error { return core.Validate.Struct(su) }
