package class

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidRecurrenceRule flags a rule the calendar math cannot work with: a start
// date after the end date, an empty weekday set, or an unknown weekday spelling.
// The caller must fix the input before retrying.
var ErrInvalidRecurrenceRule = errors.New("invalid recurrence rule")

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// NormalizeWeekday maps a weekday spelling to its canonical full English name
// ("Monday".."Sunday"). Matching is case-insensitive after trimming; abbreviations
// and locale variants are rejected rather than guessed at.
func NormalizeWeekday(name string) (string, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", errors.Wrapf(ErrInvalidRecurrenceRule, "unknown weekday %q", name)
	}
	return day.String(), nil
}

// Recurrence is the (start date, end date, weekday set) rule defining a recurring
// class's cadence. Dates are naive calendar dates; the range is inclusive on both ends.
type Recurrence struct {
	Start    time.Time
	End      time.Time
	Weekdays []string // canonical full English names
}

func (r Recurrence) Validate() error {
	if r.Start.After(r.End) {
		return errors.Wrapf(ErrInvalidRecurrenceRule, "start date %s is after end date %s",
			r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	if len(r.Weekdays) == 0 {
		return errors.Wrap(ErrInvalidRecurrenceRule, "weekday set is empty")
	}
	for _, d := range r.Weekdays {
		if _, err := NormalizeWeekday(d); err != nil {
			return err
		}
	}
	return nil
}

func (r Recurrence) weekdaySet() map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, name := range r.Weekdays {
		if day, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]; ok {
			set[day] = true
		}
	}
	return set
}

// Count returns the number of days in [Start, End] whose weekday is in the set.
// The range is enumerated day by day; the count must agree with a naive
// enumeration exactly, month boundaries and leap days included.
func (r Recurrence) Count() int {
	set := r.weekdaySet()
	var count int
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		if set[d.Weekday()] {
			count++
		}
	}
	return count
}

// AvgGapDays returns the floor of the calendar span divided by (count - 1),
// or 0 when there are fewer than two occurrences.
func (r Recurrence) AvgGapDays() int {
	count := r.Count()
	if count < 2 {
		return 0
	}
	span := int(r.End.Sub(r.Start).Hours() / 24)
	return span / (count - 1)
}

// Contains reports whether d falls within [Start, End] inclusive.
func (r Recurrence) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// OnRuleWeekday reports whether d's weekday is a member of the rule's weekday set.
func (r Recurrence) OnRuleWeekday(d time.Time) bool {
	return r.weekdaySet()[d.Weekday()]
}
