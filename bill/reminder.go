/*
reminder.go - Reminder trigger computation and eligibility

PURPOSE:
  Derives the next reminder trigger instant from a bill's due date and
  lead-time offset, and decides whether a candidate trigger is still
  worth scheduling. Both functions are pure; the decision procedure
  that mutates state lives in lifecycle.go.

RULES:
  - Trigger = (nextDueDate - remindDaysBefore days) at the configured
    send time (hour:minute) in the active location.
  - A trigger strictly in the past is never (re)scheduled. A reminder
    whose lead time has already elapsed silently lapses for the cycle;
    the next due-date advance restores it.

SEE ALSO:
  - lifecycle.go: Scheduling decision procedure and snooze
  - notify.go: Dispatcher interface the decision procedure calls
*/
package bill

import "time"

// =============================================================================
// REMINDER TIME CONFIG
// =============================================================================

// Default reminder send time, 09:00 local.
const (
	DefaultSendHour   = 9
	DefaultSendMinute = 0
)

// ReminderConfig carries the knobs the scheduler and controller need.
type ReminderConfig struct {
	SendHour   int
	SendMinute int
	SnoozeDays int // how far a snooze pushes the trigger (default 1)
}

// DefaultReminderConfig returns the stock 09:00 / one-day-snooze setup.
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{SendHour: DefaultSendHour, SendMinute: DefaultSendMinute, SnoozeDays: 1}
}

// =============================================================================
// REMINDER SCHEDULER - Pure computation
// =============================================================================

// NextReminderInstant computes the reminder trigger for a due date:
// the day remindDaysBefore days earlier, at sendHour:sendMinute in loc.
func NextReminderInstant(nextDueDate Day, remindDaysBefore, sendHour, sendMinute int, loc *time.Location) time.Time {
	remindDay := nextDueDate.AddDays(-remindDaysBefore)
	return remindDay.At(sendHour, sendMinute, loc)
}

// Eligible reports whether a candidate trigger may still be scheduled.
// True iff candidate >= now.
func Eligible(candidate, now time.Time) bool {
	return !candidate.Before(now)
}

// RemindDay returns the calendar day a bill's reminder should fire on,
// preferring an explicitly tracked NextRemindDate (which a snooze may
// have advanced) over the derived due-date offset.
func RemindDay(b *Bill) Day {
	if b.NextRemindDate != nil {
		return *b.NextRemindDate
	}
	return b.NextDueDate.AddDays(-b.RemindDaysBefore)
}
