/*
recurrence.go - The recurrence engine

PURPOSE:
  Computes a bill's next due date from its recurrence rule and current
  due date. Pure function of (rule, date) -> date.

SINGLE-PERIOD SEMANTICS:
  Each call advances exactly ONE period relative to the current due date,
  not relative to "now". The engine is invoked once per logged payment
  ("pay this cycle"). If a user pays after missing three monthly cycles,
  the due date advances one month and remains in the past; there is no
  catch-up loop.

FAIL-SAFE CONTRACT:
  The engine never panics. If the rule is outside the closed set, the
  input date is returned unchanged along with ErrCalendarFault. Callers
  must treat an unchanged result from a non-never rule as a fault to
  report, not silently ignore.

SEE ALSO:
  - time.go: Calendar arithmetic (AddDate month-end normalization)
  - lifecycle.go: The only caller that persists the result
*/
package bill

// =============================================================================
// RECURRENCE ENGINE
// =============================================================================

// NextDueDate advances the due date by one period of the rule.
//
//	never        unchanged (idempotent no-op)
//	daily        +1 day
//	weekly       +7 days
//	biweekly     +14 days
//	semimonthly  +15 days
//	monthly      +1 month
//	bimonthly    +2 months
//	quarterly    +3 months
//	semiannual   +6 months
//	annual       +1 year
func NextDueDate(rule RecurrenceRule, current Day) (Day, error) {
	switch rule {
	case RepeatNever:
		return current, nil
	case RepeatDaily:
		return current.AddDays(1), nil
	case RepeatWeekly:
		return current.AddDays(7), nil
	case RepeatBiWeekly:
		return current.AddDays(14), nil
	case RepeatSemiMonthly:
		return current.AddDays(15), nil
	case RepeatMonthly:
		return current.AddMonths(1), nil
	case RepeatBiMonthly:
		return current.AddMonths(2), nil
	case RepeatQuarterly:
		return current.AddMonths(3), nil
	case RepeatSemiAnnual:
		return current.AddMonths(6), nil
	case RepeatAnnual:
		return current.AddYears(1), nil
	default:
		return current, &UnknownRuleError{Rule: string(rule)}
	}
}
