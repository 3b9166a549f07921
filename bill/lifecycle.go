/*
lifecycle.go - Bill lifecycle controller

PURPOSE:
  Sequences the pure engines in response to external events:

  Payment logged   -> advance due date, reset reminder state
  Reminder fired   -> route snooze / payment-intent by action kind
  Snooze           -> push trigger forward, re-evaluate eligibility
  Bill created     -> initialize due date and remind date
  Periodic sweep   -> (re)establish missing reminders across all bills

STATE MACHINE (reminder sub-state per bill):
  Unscheduled -> Scheduled      on successful external registration
  Scheduled   -> Unscheduled    on due-date advance via payment
  Scheduled   -> Scheduled'     via snooze (new handle replaces old)

CONCURRENCY:
  Every mutation runs under a single mutex, so a concurrent payment-log
  and sweep on the same bill cannot race the read-modify-write of the
  (ReminderScheduled, ReminderExternalID) pair. Engines in time.go,
  recurrence.go and reminder.go are pure and need no locks.

SEE ALSO:
  - store.go: Copy-out persistence contract the controller relies on
  - notify.go: Dispatcher and action types
*/
package bill

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns all bill mutations. Construct with NewController.
type Controller struct {
	store      Store
	dispatcher Dispatcher
	clock      Clock
	cfg        ReminderConfig

	mu      sync.Mutex
	intents chan PaymentIntent
}

// NewController wires the controller. A nil clock defaults to the
// system clock; a zero SnoozeDays defaults to 1.
func NewController(store Store, dispatcher Dispatcher, clock Clock, cfg ReminderConfig) *Controller {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.SnoozeDays == 0 {
		cfg.SnoozeDays = 1
	}
	return &Controller{
		store:      store,
		dispatcher: dispatcher,
		clock:      clock,
		cfg:        cfg,
		intents:    make(chan PaymentIntent, 16),
	}
}

// PaymentIntents is the typed event channel for log-payment actions
// surfaced from fired reminders. Subscribers read directly; there is no
// process-wide broadcast bus.
func (c *Controller) PaymentIntents() <-chan PaymentIntent { return c.intents }

// Clock exposes the controller's clock for callers that need "today"
// consistent with the controller's decisions.
func (c *Controller) Clock() Clock { return c.clock }

// =============================================================================
// BILL CREATION
// =============================================================================

// NewBillInput carries the creation form fields.
type NewBillInput struct {
	Name            string
	Icon            string
	Recurrence      RecurrenceRule
	StartingDueDate Day
	AmountDue       decimal.Decimal

	PaidAutomatically bool
	PaymentURL        string
	StartingBalance   *decimal.Decimal
	EndDate           *Day
	Tags              []string

	ReminderEnabled  bool
	RemindDaysBefore int
}

// CreateBill validates and persists a new bill. NextDueDate starts at
// the starting due date; when reminders are enabled the initial
// NextRemindDate is computed eagerly so the first sweep can schedule.
func (c *Controller) CreateBill(ctx context.Context, in NewBillInput) (*Bill, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("bill name must not be empty")
	}
	if in.AmountDue.IsNegative() {
		return nil, fmt.Errorf("amount due must not be negative")
	}
	if in.RemindDaysBefore < 0 {
		return nil, fmt.Errorf("remind days before must not be negative")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b := &Bill{
		ID:                BillID(uuid.NewString()),
		Name:              in.Name,
		Icon:              in.Icon,
		Recurrence:        in.Recurrence,
		StartingDueDate:   in.StartingDueDate,
		NextDueDate:       in.StartingDueDate,
		AmountDue:         in.AmountDue,
		StartingBalance:   in.StartingBalance,
		PaidAutomatically: in.PaidAutomatically,
		PaymentURL:        in.PaymentURL,
		Tags:              in.Tags,
		EndDate:           in.EndDate,
		ReminderEnabled:   in.ReminderEnabled,
		RemindDaysBefore:  in.RemindDaysBefore,
		CreatedAt:         c.clock.Now(),
	}
	if b.Icon == "" {
		b.Icon = "dollarsign.circle"
	}
	if b.ReminderEnabled {
		remind := b.NextDueDate.AddDays(-b.RemindDaysBefore)
		b.NextRemindDate = &remind
	}

	if err := c.store.Insert(ctx, b); err != nil {
		return nil, fmt.Errorf("insert bill: %w", err)
	}
	return b, nil
}

// =============================================================================
// PAYMENT LOGGED - The only path that advances the recurrence
// =============================================================================

// LogPayment appends a payment, advances the due date by exactly one
// period, and resets reminder state. The payment row and the bill
// update persist in one atomic store operation; the stale external
// handle is disarmed only after that write is durable.
func (c *Controller) LogPayment(ctx context.Context, id BillID, amount decimal.Decimal, date Day, note string) (*Bill, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.store.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	p := Payment{
		ID:        PaymentID(uuid.NewString()),
		BillID:    b.ID,
		Amount:    amount,
		Date:      date,
		Note:      note,
		CreatedAt: c.clock.Now(),
	}

	b.LastPaid = &date

	next, err := NextDueDate(b.Recurrence, b.NextDueDate)
	if err != nil {
		// Fail-safe: keep the input date, but this is a latent
		// correctness bug path and must stay visible.
		log.Printf("[Bills] calendar fault advancing bill %s: %v", b.ID, err)
	}
	if next.Before(b.NextDueDate) {
		next = b.NextDueDate // NextDueDate is monotonically non-decreasing
	}
	b.NextDueDate = next

	oldHandle := b.ReminderExternalID
	b.ReminderScheduled = false
	b.ReminderExternalID = ""
	if b.ReminderEnabled {
		remind := b.NextDueDate.AddDays(-b.RemindDaysBefore)
		b.NextRemindDate = &remind
	} else {
		b.NextRemindDate = nil
	}

	// A failed write must leave the stored record and the live trigger
	// in agreement: ReminderScheduled still points at oldHandle, which
	// has not been canceled, and no payment row exists to double-record
	// on retry.
	if err := c.store.ApplyPayment(ctx, b, p); err != nil {
		return nil, fmt.Errorf("apply payment: %w", err)
	}
	c.cancelHandle(ctx, b.ID, oldHandle)
	return b, nil
}

// =============================================================================
// SNOOZE - Push the trigger forward without touching the due date
// =============================================================================

// Snooze advances the reminder trigger by the configured increment and
// reschedules if the new trigger is still in the future. The due date is
// never altered. If the new trigger is already past, the reminder
// silently lapses for this cycle.
func (c *Controller) Snooze(ctx context.Context, id BillID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.store.Lookup(ctx, id)
	if err != nil {
		return err
	}
	if b.NextRemindDate == nil {
		return ErrNoReminder
	}

	newRemind := b.NextRemindDate.AddDays(c.cfg.SnoozeDays)
	b.NextRemindDate = &newRemind

	candidate := newRemind.At(c.cfg.SendHour, c.cfg.SendMinute, c.clock.Location())
	if !Eligible(candidate, c.clock.Now()) {
		// Lapse: no reminder will fire for this cycle.
		log.Printf("[Bills] snoozed reminder for bill %s past its window, lapsing", b.ID)
		if err := c.store.Save(ctx, b); err != nil {
			return fmt.Errorf("save snoozed bill: %w", err)
		}
		return nil
	}

	// One outstanding reminder per bill: the replacement handle goes in
	// first, and the old one is disarmed only once the state naming its
	// successor is durable. Canceling before the save would strand a
	// dead handle behind ReminderScheduled=true if the save failed.
	oldHandle := b.ReminderExternalID

	externalID, schedErr := c.dispatcher.Schedule(ctx, c.reminderRequest(b, newRemind))
	if schedErr != nil {
		b.ReminderScheduled = false
		b.ReminderExternalID = ""
		if err := c.store.Save(ctx, b); err != nil {
			return fmt.Errorf("save snoozed bill: %w", err)
		}
		c.cancelHandle(ctx, b.ID, oldHandle)
		return &SchedulingError{BillID: b.ID, Err: schedErr}
	}
	b.ReminderScheduled = true
	b.ReminderExternalID = externalID

	if err := c.store.Save(ctx, b); err != nil {
		// The stored record still names the old trigger; cancel the
		// replacement so it cannot fire unrecorded.
		c.cancelHandle(ctx, b.ID, externalID)
		return fmt.Errorf("save snoozed bill: %w", err)
	}
	c.cancelHandle(ctx, b.ID, oldHandle)
	return nil
}

// =============================================================================
// REMINDER ACTIONS - Inbound from the dispatcher
// =============================================================================

// HandleAction routes a fired-reminder action. A missing bill aborts the
// action silently (deleted between scheduling and firing); nothing here
// is fatal.
func (c *Controller) HandleAction(ctx context.Context, a ReminderAction) error {
	switch a.Kind {
	case ActionSnooze:
		err := c.Snooze(ctx, a.BillID)
		if IsNotFound(err) || errors.Is(err, ErrNoReminder) {
			log.Printf("[Bills] dropping snooze for bill %s: %v", a.BillID, err)
			return nil
		}
		return err

	case ActionLogPayment:
		if _, err := c.store.Lookup(ctx, a.BillID); err != nil {
			if IsNotFound(err) {
				log.Printf("[Bills] dropping payment intent for bill %s: not found", a.BillID)
				return nil
			}
			return err
		}
		select {
		case c.intents <- PaymentIntent{BillID: a.BillID}:
		default:
			log.Printf("[Bills] payment intent channel full, dropping intent for bill %s", a.BillID)
		}
		return nil

	case ActionOpenApp:
		return nil

	default:
		return fmt.Errorf("unknown reminder action kind: %q", a.Kind)
	}
}

// =============================================================================
// SWEEP - Periodic reminder reconciliation over the full bill set
// =============================================================================

// SweepResult summarizes one reminder sweep.
type SweepResult struct {
	Checked   int // bills with reminders enabled and nothing scheduled
	Scheduled int // external triggers registered
	Lapsed    int // candidates already in the past, skipped
	Failed    int // dispatcher rejections, retried next sweep
}

// Sweep runs the scheduling decision procedure for every bill with
// ReminderEnabled and no outstanding trigger. Safe to run repeatedly:
// ReminderScheduled gates re-entry, so no double-scheduling.
func (c *Controller) Sweep(ctx context.Context) (SweepResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result SweepResult

	bills, err := c.store.List(ctx, ListFilter{})
	if err != nil {
		return result, fmt.Errorf("list bills for sweep: %w", err)
	}

	for _, b := range bills {
		if !b.ReminderEnabled || b.ReminderScheduled {
			continue
		}
		result.Checked++

		scheduled, err := c.scheduleLocked(ctx, b)
		switch {
		case err != nil:
			result.Failed++
			log.Printf("[Bills] sweep: %v", err)
		case scheduled:
			result.Scheduled++
		default:
			result.Lapsed++
		}
	}
	return result, nil
}

// scheduleLocked runs the scheduling decision procedure for one bill.
// Caller holds c.mu. Returns (false, nil) when the candidate trigger is
// already past (silent lapse).
func (c *Controller) scheduleLocked(ctx context.Context, b *Bill) (bool, error) {
	remindDay := RemindDay(b)
	candidate := remindDay.At(c.cfg.SendHour, c.cfg.SendMinute, c.clock.Location())
	if !Eligible(candidate, c.clock.Now()) {
		return false, nil
	}

	if b.NextRemindDate == nil {
		b.NextRemindDate = &remindDay
	}

	externalID, err := c.dispatcher.Schedule(ctx, c.reminderRequest(b, remindDay))
	if err != nil {
		// ReminderScheduled stays false; the next sweep retries.
		return false, &SchedulingError{BillID: b.ID, Err: err}
	}

	b.ReminderScheduled = true
	b.ReminderExternalID = externalID

	if err := c.store.Save(ctx, b); err != nil {
		// The external trigger is live but the state that tracks it is
		// not. Cancel to avoid an orphaned notification.
		c.cancelHandle(ctx, b.ID, externalID)
		return false, fmt.Errorf("save scheduled bill %s: %w", b.ID, err)
	}
	return true, nil
}

// cancelHandle disarms an external trigger. Cancel failures are logged,
// never propagated: a dead handle is harmless once the state that named
// it is gone.
func (c *Controller) cancelHandle(ctx context.Context, id BillID, handle string) {
	if handle == "" {
		return
	}
	if err := c.dispatcher.Cancel(ctx, handle); err != nil {
		log.Printf("[Bills] cancel reminder %s for bill %s: %v", handle, id, err)
	}
}

func (c *Controller) reminderRequest(b *Bill, day Day) ReminderRequest {
	return ReminderRequest{
		BillID: b.ID,
		Title:  "Upcoming Bill: " + b.Name,
		Body:   b.DueDateOffsetString(Today(c.clock)),
		Day:    day,
		Hour:   c.cfg.SendHour,
		Minute: c.cfg.SendMinute,
	}
}

// =============================================================================
// EDIT AND DELETE - CRUD glue kept behind the serialization boundary
// =============================================================================

// UpdateBill applies edit-form field changes. If the due date or the
// reminder settings changed, the outstanding trigger is invalidated and
// the remind date recomputed; the next sweep reschedules.
func (c *Controller) UpdateBill(ctx context.Context, updated *Bill) (*Bill, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.store.Lookup(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	reminderChanged := !current.NextDueDate.Equal(updated.NextDueDate) ||
		current.ReminderEnabled != updated.ReminderEnabled ||
		current.RemindDaysBefore != updated.RemindDaysBefore

	b := updated.Clone()
	b.StartingDueDate = current.StartingDueDate // anchor never mutates
	b.LastPaid = current.LastPaid
	b.CreatedAt = current.CreatedAt

	// Invalidated triggers are disarmed only after the reset state is
	// durable; a failed save keeps the stored handle live.
	staleHandle := ""
	if reminderChanged {
		staleHandle = current.ReminderExternalID
		b.ReminderScheduled = false
		b.ReminderExternalID = ""
		if b.ReminderEnabled {
			remind := b.NextDueDate.AddDays(-b.RemindDaysBefore)
			b.NextRemindDate = &remind
		} else {
			b.NextRemindDate = nil
		}
	} else {
		b.NextRemindDate = current.NextRemindDate
		b.ReminderScheduled = current.ReminderScheduled
		b.ReminderExternalID = current.ReminderExternalID
	}

	if err := c.store.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save bill: %w", err)
	}
	c.cancelHandle(ctx, b.ID, staleHandle)
	return b, nil
}

// DeleteBill removes a bill and its payments, then cancels any
// outstanding reminder. Delete-first: a failed delete keeps the record
// and its live trigger paired.
func (c *Controller) DeleteBill(ctx context.Context, id BillID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.store.Lookup(ctx, id)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.cancelHandle(ctx, b.ID, b.ReminderExternalID)
	return nil
}
