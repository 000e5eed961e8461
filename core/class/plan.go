package class

import (
	"fmt"
	"net/url"
	"time"
)

// Rule violation kinds reported when a submitted session plan conflicts with its class.
const (
	EntryCountMismatch = "entry_count_mismatch"
	IncompleteEntry    = "incomplete_entry"
	ScheduleMismatch   = "schedule_mismatch"
	OutOfRange         = "out_of_range"
	WeekdayMismatch    = "weekday_mismatch"
	TimeMismatch       = "time_mismatch"
)

// SessionEntry is one concrete (date, time, link) row of a creator-submitted
// session plan. Rows are positional: the entry at index i fills session number i+1.
type SessionEntry struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	MeetingLink string `json:"meeting_link"`
}

// PlanError reports the first plan entry that violates the class schedule,
// by session number and rule kind, so the creator can fix that exact row.
type PlanError struct {
	Session int    `json:"session"` // 1-based; 0 when the plan as a whole is at fault
	Rule    string `json:"rule"`
	Detail  string `json:"detail"`
}

func (e *PlanError) Error() string {
	if e.Session == 0 {
		return fmt.Sprintf("session plan: %s: %s", e.Rule, e.Detail)
	}
	return fmt.Sprintf("session %d: %s: %s", e.Session, e.Rule, e.Detail)
}

// ValidatePlan checks a submitted session plan against the class schedule.
// Checks run in order and stop at the first failure:
//  1. the entry count must equal the class's session count;
//  2. every entry needs a well-formed date, time and an absolute meeting URL;
//  3. one-time: the single entry must match the class date and start time exactly;
//  4. recurring: every entry must fall inside the date range, land on a rule
//     weekday, and carry the class start time. Entries need not be sorted
//     chronologically; each stands on its own.
//
// ValidatePlan never touches storage; it only returns a verdict.
func (c *Class) ValidatePlan(entries []SessionEntry) error {
	if len(entries) != c.SessionCount {
		return &PlanError{
			Rule:   EntryCountMismatch,
			Detail: fmt.Sprintf("expected %d sessions, got %d", c.SessionCount, len(entries)),
		}
	}

	dates := make([]time.Time, len(entries))
	for i, e := range entries {
		num := i + 1
		if e.Date == "" || e.Time == "" || e.MeetingLink == "" {
			return &PlanError{Session: num, Rule: IncompleteEntry, Detail: "date, time and meeting link are all required"}
		}
		d, err := time.Parse(DateLayout, e.Date)
		if err != nil {
			return &PlanError{Session: num, Rule: IncompleteEntry, Detail: fmt.Sprintf("malformed date %q", e.Date)}
		}
		if _, err := time.Parse(TimeLayout, e.Time); err != nil {
			return &PlanError{Session: num, Rule: IncompleteEntry, Detail: fmt.Sprintf("malformed time %q", e.Time)}
		}
		if !isAbsoluteURL(e.MeetingLink) {
			return &PlanError{Session: num, Rule: IncompleteEntry, Detail: "meeting link must be an absolute URL"}
		}
		dates[i] = d
	}

	if c.Kind == KindOneTime {
		if !dates[0].Equal(c.Date) || entries[0].Time != c.StartTime {
			return &PlanError{
				Session: 1,
				Rule:    ScheduleMismatch,
				Detail: fmt.Sprintf("a one-time class meets on %s at %s exactly",
					c.Date.Format(DateLayout), c.StartTime),
			}
		}
		return nil
	}

	rule := c.Recurrence()
	for i, e := range entries {
		num := i + 1
		if !rule.Contains(dates[i]) {
			return &PlanError{
				Session: num,
				Rule:    OutOfRange,
				Detail: fmt.Sprintf("%s is outside %s..%s", e.Date,
					c.StartDate.Format(DateLayout), c.EndDate.Format(DateLayout)),
			}
		}
		if !rule.OnRuleWeekday(dates[i]) {
			return &PlanError{
				Session: num,
				Rule:    WeekdayMismatch,
				Detail:  fmt.Sprintf("%s falls on a %s, not a class weekday", e.Date, dates[i].Weekday()),
			}
		}
		if e.Time != c.StartTime {
			return &PlanError{
				Session: num,
				Rule:    TimeMismatch,
				Detail:  fmt.Sprintf("sessions start at %s, got %s", c.StartTime, e.Time),
			}
		}
	}
	return nil
}

func isAbsoluteURL(link string) bool {
	u, err := url.Parse(link)
	return err == nil && u.IsAbs() && u.Host != ""
}
