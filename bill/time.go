package bill

import (
	"time"
)

// =============================================================================
// DAY - Calendar day abstraction (time-of-day truncated to midnight)
// =============================================================================

// Day is a calendar day. The zero time-of-day is an invariant: every
// constructor truncates to midnight UTC, so Equal/Before/After compare
// calendar days regardless of where the source instant came from.
type Day struct {
	Time time.Time
}

// Constructors
func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// StartOfDay truncates an instant to its calendar day in the given
// location. A nil location defaults to UTC.
func StartOfDay(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return NewDay(t.Year(), t.Month(), t.Day())
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, err
	}
	return Day{Time: t}, nil
}

// Comparison
func (d Day) Before(other Day) bool        { return d.Time.Before(other.Time) }
func (d Day) Equal(other Day) bool         { return d.Time.Equal(other.Time) }
func (d Day) After(other Day) bool         { return d.Time.After(other.Time) }
func (d Day) BeforeOrEqual(other Day) bool { return d.Before(other) || d.Equal(other) }
func (d Day) AfterOrEqual(other Day) bool  { return d.After(other) || d.Equal(other) }
func (d Day) IsZero() bool                 { return d.Time.IsZero() }

// Arithmetic. AddDate follows Go's month-end normalization: adding one
// month to Jan 31 yields Mar 2 or Mar 3, not Feb 28.
func (d Day) AddDays(n int) Day   { return Day{Time: d.Time.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{Time: d.Time.AddDate(0, n, 0)} }
func (d Day) AddYears(n int) Day  { return Day{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Day) Year() int         { return d.Time.Year() }
func (d Day) Month() time.Month { return d.Time.Month() }
func (d Day) Day() int          { return d.Time.Day() }

// At returns the instant at the given wall-clock time on this calendar
// day in the given location.
func (d Day) At(hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
}

func (d Day) String() string { return d.Time.Format("2006-01-02") }

// DaysBetween returns the whole-day distance from one day to another.
// Negative when `to` precedes `from`.
func DaysBetween(from, to Day) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}
