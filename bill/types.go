/*
Package bill provides the core bill tracking engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  recurring financial obligations: deriving the next due date from a
  recurrence rule, deriving the next reminder trigger from the due date
  and a lead time, and reconciling reminder state after a payment.

KEY CONCEPTS IN THIS FILE (types.go):
  - RecurrenceRule: A closed set of named repeat intervals
  - Bill: The tracked obligation with due-date and reminder state
  - Payment: An immutable record of money paid against a bill
  - CycleUnpaid: The "active bills" predicate

DESIGN PRINCIPLES:
  1. Purity: Recurrence and reminder math are side-effect-free functions
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Monotonicity: NextDueDate never moves backwards
  4. Idempotence: ReminderScheduled gates re-entry into scheduling

USAGE:
  b := bill.Bill{
      Name:       "Electric",
      Recurrence: bill.RepeatMonthly,
      AmountDue:  decimal.NewFromFloat(55.50),
  }
  next, err := bill.NextDueDate(b.Recurrence, b.NextDueDate)

SEE ALSO:
  - recurrence.go: Due-date advancement
  - reminder.go: Reminder trigger computation and eligibility
  - lifecycle.go: The controller sequencing payments, snoozes, and sweeps
*/
package bill

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECURRENCE RULE - Closed set of repeat intervals
// =============================================================================

type RecurrenceRule string

const (
	RepeatNever       RecurrenceRule = "never"
	RepeatDaily       RecurrenceRule = "daily"
	RepeatWeekly      RecurrenceRule = "weekly"
	RepeatBiWeekly    RecurrenceRule = "biweekly"
	RepeatSemiMonthly RecurrenceRule = "semimonthly"
	RepeatMonthly     RecurrenceRule = "monthly"
	RepeatBiMonthly   RecurrenceRule = "bimonthly"
	RepeatQuarterly   RecurrenceRule = "quarterly"
	RepeatSemiAnnual  RecurrenceRule = "semiannual"
	RepeatAnnual      RecurrenceRule = "annual"
)

// AllRecurrenceRules lists every valid rule, in display order.
var AllRecurrenceRules = []RecurrenceRule{
	RepeatNever, RepeatDaily, RepeatWeekly, RepeatBiWeekly, RepeatSemiMonthly,
	RepeatMonthly, RepeatBiMonthly, RepeatQuarterly, RepeatSemiAnnual, RepeatAnnual,
}

// ParseRecurrenceRule validates a rule string. An empty string maps to
// RepeatNever so that omitted API fields behave like one-shot bills.
func ParseRecurrenceRule(s string) (RecurrenceRule, error) {
	if s == "" {
		return RepeatNever, nil
	}
	rule := RecurrenceRule(s)
	for _, r := range AllRecurrenceRules {
		if rule == r {
			return rule, nil
		}
	}
	return RepeatNever, &UnknownRuleError{Rule: s}
}

func (r RecurrenceRule) String() string { return string(r) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BillID string
type PaymentID string

// =============================================================================
// BILL - The tracked obligation
// =============================================================================

// Bill is the persistent record for one recurring obligation.
// StartingDueDate is the recurrence anchor and is never mutated after
// creation. NextDueDate is mutated only by the recurrence engine via the
// lifecycle controller.
type Bill struct {
	ID         BillID
	Name       string
	Icon       string
	Recurrence RecurrenceRule

	StartingDueDate Day
	NextDueDate     Day
	LastPaid        *Day // nil = never paid
	EndDate         *Day // stored but not enforced; recurrence runs past it

	AmountDue       decimal.Decimal
	StartingBalance *decimal.Decimal

	PaidAutomatically bool
	PaymentURL        string
	Tags              []string

	// Reminder state. ReminderScheduled is true only while an external
	// trigger registered under ReminderExternalID is live for the
	// current NextRemindDate.
	ReminderEnabled    bool
	RemindDaysBefore   int
	NextRemindDate     *Day
	ReminderScheduled  bool
	ReminderExternalID string

	CreatedAt time.Time
}

// DueDateOffsetString renders a human-readable distance between today and
// the bill's next due date. Used as the reminder notification body.
func (b *Bill) DueDateOffsetString(today Day) string {
	days := DaysBetween(today, b.NextDueDate)
	switch {
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days > 1:
		return "Due in " + strconv.Itoa(days) + " days"
	case days == -1:
		return "Overdue by 1 day"
	default:
		return "Overdue by " + strconv.Itoa(-days) + " days"
	}
}

// Clone returns a deep copy of the bill. Stores hand out clones so that
// callers can mutate freely and persist via Save without aliasing.
func (b *Bill) Clone() *Bill {
	c := *b
	if b.LastPaid != nil {
		d := *b.LastPaid
		c.LastPaid = &d
	}
	if b.EndDate != nil {
		d := *b.EndDate
		c.EndDate = &d
	}
	if b.NextRemindDate != nil {
		d := *b.NextRemindDate
		c.NextRemindDate = &d
	}
	if b.StartingBalance != nil {
		v := *b.StartingBalance
		c.StartingBalance = &v
	}
	if b.Tags != nil {
		c.Tags = append([]string(nil), b.Tags...)
	}
	return &c
}

// =============================================================================
// PAYMENT - Append-only record of money paid against a bill
// =============================================================================

// Payment is owned by a Bill and cascade-deleted with it. Logging a
// payment is the sole trigger for due-date advancement.
type Payment struct {
	ID     PaymentID
	BillID BillID
	Amount decimal.Decimal
	Date   Day
	Note   string

	CreatedAt time.Time
}

// =============================================================================
// CYCLE PREDICATE
// =============================================================================

// CycleUnpaid reports whether the bill's current cycle has not yet been
// paid, including overdue cycles:
//
//	(nextDue >= today AND lastPaid != nextDue) OR
//	(nextDue <  today AND lastPaid <  nextDue)
//
// A nil lastPaid compares as the distant past.
func CycleUnpaid(nextDue Day, lastPaid *Day, today Day) bool {
	if nextDue.AfterOrEqual(today) {
		return lastPaid == nil || !lastPaid.Equal(nextDue)
	}
	return lastPaid == nil || lastPaid.Before(nextDue)
}

