/*
Package notify provides a local, in-process notification dispatcher.

PURPOSE:
  Implements bill.Dispatcher with one-shot timers instead of a push
  transport. Each Schedule call arms a timer for the trigger instant;
  when it fires, the reminder is delivered on the Fired channel for the
  UI (or any subscriber) to present alongside its snooze / log-payment
  actions.

DELIVERY CONTRACT:
  Fired reminders carry the full ReminderRequest payload, including the
  bill id. Subscribers that translate a user response into a
  bill.ReminderAction must take the id from the payload, never from
  in-memory state, so actions survive process restarts.

LIMITS:
  Timers do not survive a restart. That is fine: the reminder sweep
  re-establishes every missing trigger on the next pass, because
  ReminderScheduled is persisted per bill, not per timer.

SEE ALSO:
  - bill/notify.go: Dispatcher interface and action types
  - api/sweeper.go: The periodic sweep that re-registers triggers
*/
package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kdb/bill-engine/bill"
)

// Local is a timer-backed Dispatcher. Safe for concurrent use.
type Local struct {
	clock bill.Clock

	mu     sync.Mutex
	timers map[string]*time.Timer
	fired  chan bill.ReminderRequest
	closed bool
}

// NewLocal creates a dispatcher using the given clock for trigger
// arithmetic. A nil clock defaults to the system clock.
func NewLocal(clock bill.Clock) *Local {
	if clock == nil {
		clock = bill.SystemClock{}
	}
	return &Local{
		clock:  clock,
		timers: make(map[string]*time.Timer),
		fired:  make(chan bill.ReminderRequest, 16),
	}
}

// Fired delivers reminders whose trigger time has arrived.
func (l *Local) Fired() <-chan bill.ReminderRequest { return l.fired }

// RequestPermission always grants: there is no OS permission gate for
// an in-process dispatcher.
func (l *Local) RequestPermission(context.Context) (bool, error) { return true, nil }

// Schedule arms a one-shot timer for the calendar trigger and returns
// its handle. A trigger already in the past fires immediately.
func (l *Local) Schedule(_ context.Context, req bill.ReminderRequest) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return "", context.Canceled
	}

	triggerAt := req.Day.At(req.Hour, req.Minute, l.clock.Location())
	delay := triggerAt.Sub(l.clock.Now())
	if delay < 0 {
		delay = 0
	}

	externalID := uuid.NewString()
	l.timers[externalID] = time.AfterFunc(delay, func() {
		l.fire(externalID, req)
	})
	return externalID, nil
}

// Cancel disarms a previously scheduled trigger. Canceling an unknown
// or already-fired handle is a no-op.
func (l *Local) Cancel(_ context.Context, externalID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.timers[externalID]; ok {
		t.Stop()
		delete(l.timers, externalID)
	}
	return nil
}

// Close stops all pending timers.
func (l *Local) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
	l.closed = true
}

func (l *Local) fire(externalID string, req bill.ReminderRequest) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	delete(l.timers, externalID)
	l.mu.Unlock()

	select {
	case l.fired <- req:
	default:
		log.Printf("[Notify] fired channel full, dropping reminder for bill %s", req.BillID)
	}
}
