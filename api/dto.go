/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/kdb/bill-engine/bill"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// BillDTO represents a bill in API responses. Dates are YYYY-MM-DD,
// amounts are decimal strings.
type BillDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Recurrence string `json:"recurrence"`

	StartingDueDate string `json:"starting_due_date"`
	NextDueDate     string `json:"next_due_date"`
	LastPaid        string `json:"last_paid,omitempty"`
	EndDate         string `json:"end_date,omitempty"`

	AmountDue       string `json:"amount_due"`
	StartingBalance string `json:"starting_balance,omitempty"`

	PaidAutomatically bool     `json:"paid_automatically"`
	PaymentURL        string   `json:"payment_url,omitempty"`
	Tags              []string `json:"tags,omitempty"`

	ReminderEnabled   bool   `json:"reminder_enabled"`
	RemindDaysBefore  int    `json:"remind_days_before"`
	NextRemindDate    string `json:"next_remind_date,omitempty"`
	ReminderScheduled bool   `json:"reminder_scheduled"`

	DueDateOffset string `json:"due_date_offset"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateBillRequest is the request to create a bill.
type CreateBillRequest struct {
	Name              string   `json:"name"`
	Icon              string   `json:"icon"`
	Recurrence        string   `json:"recurrence"`
	StartingDueDate   string   `json:"starting_due_date"`
	AmountDue         string   `json:"amount_due"`
	StartingBalance   string   `json:"starting_balance"`
	PaidAutomatically bool     `json:"paid_automatically"`
	PaymentURL        string   `json:"payment_url"`
	Tags              []string `json:"tags"`
	EndDate           string   `json:"end_date"`
	ReminderEnabled   bool     `json:"reminder_enabled"`
	RemindDaysBefore  int      `json:"remind_days_before"`
}

// UpdateBillRequest carries edit-form field changes. The starting due
// date is the recurrence anchor and cannot be edited.
type UpdateBillRequest struct {
	Name              string   `json:"name"`
	Icon              string   `json:"icon"`
	Recurrence        string   `json:"recurrence"`
	NextDueDate       string   `json:"next_due_date"`
	AmountDue         string   `json:"amount_due"`
	StartingBalance   string   `json:"starting_balance"`
	PaidAutomatically bool     `json:"paid_automatically"`
	PaymentURL        string   `json:"payment_url"`
	Tags              []string `json:"tags"`
	EndDate           string   `json:"end_date"`
	ReminderEnabled   bool     `json:"reminder_enabled"`
	RemindDaysBefore  int      `json:"remind_days_before"`
}

// PaymentDTO represents a logged payment.
type PaymentDTO struct {
	ID        string `json:"id"`
	BillID    string `json:"bill_id"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// LogPaymentRequest is the request to log a payment against a bill.
// An empty amount defaults to the bill's amount due; an empty date
// defaults to today.
type LogPaymentRequest struct {
	Amount string `json:"amount"`
	Date   string `json:"date"`
	Note   string `json:"note"`
}

// SweepResultDTO summarizes a reminder sweep run.
type SweepResultDTO struct {
	Checked   int `json:"checked"`
	Scheduled int `json:"scheduled"`
	Lapsed    int `json:"lapsed"`
	Failed    int `json:"failed"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPING
// =============================================================================

func toBillDTO(b *bill.Bill, today bill.Day) BillDTO {
	dto := BillDTO{
		ID:                string(b.ID),
		Name:              b.Name,
		Icon:              b.Icon,
		Recurrence:        b.Recurrence.String(),
		StartingDueDate:   b.StartingDueDate.String(),
		NextDueDate:       b.NextDueDate.String(),
		AmountDue:         b.AmountDue.String(),
		PaidAutomatically: b.PaidAutomatically,
		PaymentURL:        b.PaymentURL,
		Tags:              b.Tags,
		ReminderEnabled:   b.ReminderEnabled,
		RemindDaysBefore:  b.RemindDaysBefore,
		ReminderScheduled: b.ReminderScheduled,
		DueDateOffset:     b.DueDateOffsetString(today),
		CreatedAt:         b.CreatedAt.Format(time.RFC3339),
	}
	if b.LastPaid != nil {
		dto.LastPaid = b.LastPaid.String()
	}
	if b.EndDate != nil {
		dto.EndDate = b.EndDate.String()
	}
	if b.NextRemindDate != nil {
		dto.NextRemindDate = b.NextRemindDate.String()
	}
	if b.StartingBalance != nil {
		dto.StartingBalance = b.StartingBalance.String()
	}
	return dto
}

func toPaymentDTO(p bill.Payment) PaymentDTO {
	return PaymentDTO{
		ID:        string(p.ID),
		BillID:    string(p.BillID),
		Amount:    p.Amount.String(),
		Date:      p.Date.String(),
		Note:      p.Note,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
