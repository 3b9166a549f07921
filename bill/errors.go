/*
errors.go - Centralized error types for the bill engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Outer layers (API handlers, sweeper) map these to behavior:

  NotFound      -> abort silently, log only (e.g., bill deleted between
                   reminder scheduling and firing)
  Persistence   -> propagate; never leave half-applied in-memory state
  Scheduling    -> leave ReminderScheduled=false so the next sweep retries
  CalendarFault -> fall back to the unmodified input date, log loudly

USAGE:
  if errors.Is(err, bill.ErrBillNotFound) {
      log.Printf("bill vanished, dropping action")
      return
  }

SEE ALSO:
  - lifecycle.go: Produces and routes these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package bill

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBillNotFound is returned when a referenced bill id has no record.
	// Never fatal: reminder actions for deleted bills are dropped.
	ErrBillNotFound = errors.New("bill not found")

	// ErrDuplicateBill is returned when inserting a bill whose id or name
	// collides with an existing record. Both are unique across the store.
	ErrDuplicateBill = errors.New("duplicate bill")

	// ErrSchedulingFailed is returned when the notification dispatcher
	// rejects or fails to register a trigger. Retried on the next sweep.
	ErrSchedulingFailed = errors.New("reminder scheduling failed")

	// ErrCalendarFault is returned when date arithmetic yields no valid
	// result for a non-never rule. The input date is returned unchanged;
	// callers must surface this, not swallow it.
	ErrCalendarFault = errors.New("calendar computation fault")

	// ErrNoReminder is returned when snoozing a bill that has no pending
	// reminder date to push forward.
	ErrNoReminder = errors.New("no reminder to snooze")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownRuleError reports a recurrence rule outside the closed set.
type UnknownRuleError struct {
	Rule string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown recurrence rule: %q", e.Rule)
}

func (e *UnknownRuleError) Unwrap() error { return ErrCalendarFault }

// SchedulingError wraps a dispatcher failure with the bill it concerned.
type SchedulingError struct {
	BillID BillID
	Err    error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling reminder for bill %s: %v", e.BillID, e.Err)
}

func (e *SchedulingError) Unwrap() error { return ErrSchedulingFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing bill.
func IsNotFound(err error) bool { return errors.Is(err, ErrBillNotFound) }

// IsRetryable returns true if the operation may succeed on a later sweep.
func IsRetryable(err error) bool { return errors.Is(err, ErrSchedulingFailed) }
