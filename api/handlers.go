/*
handlers.go - HTTP API handlers for the bill tracking engine

PURPOSE:
  Exposes the bill engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the lifecycle controller for
  every mutation.

ENDPOINTS:
  Bills:
    GET    /api/bills                  List bills (?filter=unpaid)
    POST   /api/bills                  Create bill
    GET    /api/bills/{id}             Get bill details
    PUT    /api/bills/{id}             Edit bill fields
    DELETE /api/bills/{id}             Delete bill (+payments, +reminder)

  Payments:
    POST   /api/bills/{id}/payments    Log a payment
    GET    /api/bills/{id}/payments    Payment history

  Reminders:
    POST   /api/bills/{id}/snooze      Snooze the pending reminder
    POST   /api/admin/sweep            Run the reminder sweep now

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Bill not found
  - 409: Duplicate bill id/name
  - 502: Dispatcher rejected a reminder registration
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - sweeper.go: Background sweep scheduling
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kdb/bill-engine/bill"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      bill.Store
	Controller *bill.Controller
}

// NewHandler creates a new handler.
func NewHandler(store bill.Store, controller *bill.Controller) *Handler {
	return &Handler{Store: store, Controller: controller}
}

func (h *Handler) today() bill.Day {
	return bill.Today(h.Controller.Clock())
}

// =============================================================================
// BILL HANDLERS
// =============================================================================

// ListBills returns all bills sorted by next due date. With
// ?filter=unpaid only bills whose current cycle is unpaid are returned,
// including overdue ones.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	filter := bill.ListFilter{}
	if r.URL.Query().Get("filter") == "unpaid" {
		filter.UnpaidOnly = true
		filter.Today = h.today()
	}

	bills, err := h.Store.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bills", err)
		return
	}

	today := h.today()
	dtos := make([]BillDTO, len(bills))
	for i, b := range bills {
		dtos[i] = toBillDTO(b, today)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBill returns a single bill.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	id := bill.BillID(chi.URLParam(r, "id"))

	b, err := h.Store.Lookup(r.Context(), id)
	if err != nil {
		if bill.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Bill not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(b, h.today()))
}

// CreateBill creates a new bill via the lifecycle controller.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rule, err := bill.ParseRecurrenceRule(req.Recurrence)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid recurrence rule", err)
		return
	}

	startingDue := h.today()
	if req.StartingDueDate != "" {
		if startingDue, err = bill.ParseDay(req.StartingDueDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid starting_due_date (use YYYY-MM-DD)", err)
			return
		}
	}

	amount, err := decimal.NewFromString(req.AmountDue)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount_due", err)
		return
	}

	in := bill.NewBillInput{
		Name:              req.Name,
		Icon:              req.Icon,
		Recurrence:        rule,
		StartingDueDate:   startingDue,
		AmountDue:         amount,
		PaidAutomatically: req.PaidAutomatically,
		PaymentURL:        req.PaymentURL,
		Tags:              req.Tags,
		ReminderEnabled:   req.ReminderEnabled,
		RemindDaysBefore:  req.RemindDaysBefore,
	}
	if req.StartingBalance != "" {
		v, err := decimal.NewFromString(req.StartingBalance)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid starting_balance", err)
			return
		}
		in.StartingBalance = &v
	}
	if req.EndDate != "" {
		d, err := bill.ParseDay(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date (use YYYY-MM-DD)", err)
			return
		}
		in.EndDate = &d
	}

	b, err := h.Controller.CreateBill(r.Context(), in)
	if err != nil {
		if errors.Is(err, bill.ErrDuplicateBill) {
			writeError(w, http.StatusConflict, "A bill with that id or name already exists", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to create bill", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBillDTO(b, h.today()))
}

// UpdateBill applies edit-form changes to a bill.
func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	id := bill.BillID(chi.URLParam(r, "id"))

	var req UpdateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	current, err := h.Store.Lookup(r.Context(), id)
	if err != nil {
		if bill.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Bill not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get bill", err)
		return
	}

	updated, err := applyEdits(current, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid bill fields", err)
		return
	}

	b, err := h.Controller.UpdateBill(r.Context(), updated)
	if err != nil {
		if errors.Is(err, bill.ErrDuplicateBill) {
			writeError(w, http.StatusConflict, "A bill with that name already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(b, h.today()))
}

// DeleteBill removes a bill, its payments, and any outstanding reminder.
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	id := bill.BillID(chi.URLParam(r, "id"))

	if err := h.Controller.DeleteBill(r.Context(), id); err != nil {
		if bill.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Bill not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete bill", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// LogPayment logs a payment and advances the bill's due date.
func (h *Handler) LogPayment(w http.ResponseWriter, r *http.Request) {
	id := bill.BillID(chi.URLParam(r, "id"))

	var req LogPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date := h.today()
	if req.Date != "" {
		var err error
		if date, err = bill.ParseDay(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
	}

	var amount decimal.Decimal
	if req.Amount != "" {
		var err error
		if amount, err = decimal.NewFromString(req.Amount); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
	} else {
		current, err := h.Store.Lookup(r.Context(), id)
		if err != nil {
			if bill.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "Bill not found", nil)
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to get bill", err)
			return
		}
		amount = current.AmountDue
	}

	b, err := h.Controller.LogPayment(r.Context(), id, amount, date, req.Note)
	if err != nil {
		if bill.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Bill not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to log payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(b, h.today()))
}

// GetPayments returns a bill's payment history.
func (h *Handler) GetPayments(w http.ResponseWriter, r *http.Request) {
	id := bill.BillID(chi.URLParam(r, "id"))

	payments, err := h.Store.Payments(r.Context(), id)
	if err != nil {
		if bill.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Bill not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REMINDER HANDLERS
// =============================================================================

// SnoozeBill pushes the bill's pending reminder forward by the
// configured increment without touching the due date.
func (h *Handler) SnoozeBill(w http.ResponseWriter, r *http.Request) {
	id := bill.BillID(chi.URLParam(r, "id"))

	err := h.Controller.HandleAction(r.Context(), bill.ReminderAction{
		Kind:   bill.ActionSnooze,
		BillID: id,
	})
	if err != nil {
		if errors.Is(err, bill.ErrSchedulingFailed) {
			writeError(w, http.StatusBadGateway, "Reminder dispatcher rejected the trigger", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to snooze reminder", err)
		return
	}

	b, err := h.Store.Lookup(r.Context(), id)
	if err != nil {
		// Dropped silently by the controller (bill deleted); report 404.
		writeError(w, http.StatusNotFound, "Bill not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(b, h.today()))
}

// TriggerSweep runs the reminder sweep immediately.
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.Controller.Sweep(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, SweepResultDTO{
		Checked:   result.Checked,
		Scheduled: result.Scheduled,
		Lapsed:    result.Lapsed,
		Failed:    result.Failed,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func applyEdits(current *bill.Bill, req UpdateBillRequest) (*bill.Bill, error) {
	b := current.Clone()

	if req.Name != "" {
		b.Name = req.Name
	}
	if req.Icon != "" {
		b.Icon = req.Icon
	}
	if req.Recurrence != "" {
		rule, err := bill.ParseRecurrenceRule(req.Recurrence)
		if err != nil {
			return nil, err
		}
		b.Recurrence = rule
	}
	if req.NextDueDate != "" {
		d, err := bill.ParseDay(req.NextDueDate)
		if err != nil {
			return nil, err
		}
		b.NextDueDate = d
	}
	if req.AmountDue != "" {
		amount, err := decimal.NewFromString(req.AmountDue)
		if err != nil {
			return nil, err
		}
		b.AmountDue = amount
	}
	if req.StartingBalance != "" {
		v, err := decimal.NewFromString(req.StartingBalance)
		if err != nil {
			return nil, err
		}
		b.StartingBalance = &v
	}
	if req.EndDate != "" {
		d, err := bill.ParseDay(req.EndDate)
		if err != nil {
			return nil, err
		}
		b.EndDate = &d
	}
	if req.Tags != nil {
		b.Tags = req.Tags
	}
	b.PaidAutomatically = req.PaidAutomatically
	b.PaymentURL = req.PaymentURL
	b.ReminderEnabled = req.ReminderEnabled
	b.RemindDaysBefore = req.RemindDaysBefore
	return b, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
