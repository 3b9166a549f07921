/*
store.go - Persistence interface for bills and payments

PURPOSE:
  Defines the interface between the lifecycle controller and the
  database. Different implementations can use SQLite or in-memory
  storage.

COPY-OUT CONTRACT:
  Lookup and List return clones. Mutations happen on the clone and are
  applied with Save; a failed Save leaves the stored record untouched,
  which is how PersistenceFailure avoids half-applied state.

PAYMENTS:
  Payments are append-only from the engine's perspective and are
  cascade-deleted with their bill. ApplyPayment persists a payment row
  and the updated bill as one atomic write, so a failure leaves neither
  a stray payment nor a half-advanced due date.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - bill/store/memory.go:   In-memory for testing

SEE ALSO:
  - lifecycle.go: The only writer of bill reminder/due-date state
*/
package bill

import "context"

// =============================================================================
// STORE - Interface for bill persistence
// =============================================================================

// ListFilter narrows List results. The zero value lists everything.
type ListFilter struct {
	// UnpaidOnly selects bills whose current cycle is unpaid per
	// CycleUnpaid, evaluated against Today.
	UnpaidOnly bool
	Today      Day
}

// Store handles persistence of bills and their payments.
// List always returns bills sorted by NextDueDate ascending.
type Store interface {
	Insert(ctx context.Context, b *Bill) error
	Save(ctx context.Context, b *Bill) error
	Delete(ctx context.Context, id BillID) error
	Lookup(ctx context.Context, id BillID) (*Bill, error)
	List(ctx context.Context, filter ListFilter) ([]*Bill, error)

	// ApplyPayment atomically appends a payment and saves the updated
	// bill. All-or-nothing: on error neither write is visible.
	ApplyPayment(ctx context.Context, b *Bill, p Payment) error
	AddPayment(ctx context.Context, p Payment) error
	Payments(ctx context.Context, id BillID) ([]Payment, error)
}
