/*
notify.go - Notification dispatcher boundary

PURPOSE:
  Defines the interface to the external notification system and the
  typed messages crossing it in both directions:

  Outbound: ReminderRequest - a one-shot calendar trigger with payload
  Inbound:  ReminderAction  - what the user did with a fired reminder

INBOUND DELIVERY CONTRACT:
  Actions carry the bill id inside the payload, never an in-memory
  pointer, so they survive process restarts: the controller re-resolves
  the bill through the store on every action.

SEE ALSO:
  - notify/local.go: In-process timer-backed implementation
  - lifecycle.go: HandleAction routing
*/
package bill

import "context"

// =============================================================================
// DISPATCHER - Consumed interface
// =============================================================================

// ReminderRequest is the payload for a one-shot, calendar-triggered alert.
type ReminderRequest struct {
	BillID BillID
	Title  string
	Body   string

	// Trigger time as calendar components, matching the one-shot
	// calendar-trigger contract of the underlying notifier.
	Day    Day
	Hour   int
	Minute int
}

// Dispatcher schedules and cancels one-shot reminders. Schedule returns
// an opaque external handle used to cancel the trigger later. A failed
// Schedule must leave nothing registered.
type Dispatcher interface {
	RequestPermission(ctx context.Context) (bool, error)
	Schedule(ctx context.Context, req ReminderRequest) (string, error)
	Cancel(ctx context.Context, externalID string) error
}

// =============================================================================
// REMINDER ACTION - Tagged union of user responses
// =============================================================================

type ActionKind string

const (
	ActionSnooze     ActionKind = "snooze"
	ActionLogPayment ActionKind = "log_payment"
	ActionOpenApp    ActionKind = "open_app"
)

// ReminderAction is an inbound event from the dispatcher: a fired
// reminder plus the action the user chose on it.
type ReminderAction struct {
	Kind   ActionKind
	BillID BillID
}

// PaymentIntent is emitted by the controller when a fired reminder asks
// to log a payment. No core mutation happens until the payment is
// actually logged by the payment flow.
type PaymentIntent struct {
	BillID BillID
}
