package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdb/bill-engine/bill"
	"github.com/kdb/bill-engine/bill/store"
)

func seedBill(t *testing.T, m *store.Memory, id, name string, due bill.Day) *bill.Bill {
	t.Helper()
	b := &bill.Bill{
		ID:          bill.BillID(id),
		Name:        name,
		Recurrence:  bill.RepeatMonthly,
		NextDueDate: due,
		AmountDue:   decimal.NewFromInt(50),
		CreatedAt:   time.Now(),
	}
	require.NoError(t, m.Insert(context.Background(), b))
	return b
}

func TestMemory_InsertRejectsDuplicates(t *testing.T) {
	m := store.NewMemory()
	seedBill(t, m, "b1", "Rent", bill.NewDay(2025, time.June, 1))

	// Same id
	err := m.Insert(context.Background(), &bill.Bill{ID: "b1", Name: "Other"})
	assert.ErrorIs(t, err, bill.ErrDuplicateBill)

	// Same name, different id
	err = m.Insert(context.Background(), &bill.Bill{ID: "b2", Name: "Rent"})
	assert.ErrorIs(t, err, bill.ErrDuplicateBill)
}

func TestMemory_SaveUnknownBill(t *testing.T) {
	m := store.NewMemory()
	err := m.Save(context.Background(), &bill.Bill{ID: "nope", Name: "X"})
	assert.ErrorIs(t, err, bill.ErrBillNotFound)
}

func TestMemory_SaveRenameCollision(t *testing.T) {
	m := store.NewMemory()
	seedBill(t, m, "b1", "Rent", bill.NewDay(2025, time.June, 1))
	b2 := seedBill(t, m, "b2", "Water", bill.NewDay(2025, time.June, 2))

	b2.Name = "Rent"
	err := m.Save(context.Background(), b2)
	assert.ErrorIs(t, err, bill.ErrDuplicateBill)
}

func TestMemory_LookupReturnsClone(t *testing.T) {
	m := store.NewMemory()
	seedBill(t, m, "b1", "Rent", bill.NewDay(2025, time.June, 1))

	first, err := m.Lookup(context.Background(), "b1")
	require.NoError(t, err)
	first.Name = "mutated without Save"

	second, err := m.Lookup(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "Rent", second.Name)
}

func TestMemory_ListSortedByDueDate(t *testing.T) {
	m := store.NewMemory()
	seedBill(t, m, "late", "Late", bill.NewDay(2025, time.June, 20))
	seedBill(t, m, "early", "Early", bill.NewDay(2025, time.June, 1))
	seedBill(t, m, "mid", "Mid", bill.NewDay(2025, time.June, 10))

	bills, err := m.List(context.Background(), bill.ListFilter{})
	require.NoError(t, err)
	require.Len(t, bills, 3)
	assert.Equal(t, bill.BillID("early"), bills[0].ID)
	assert.Equal(t, bill.BillID("mid"), bills[1].ID)
	assert.Equal(t, bill.BillID("late"), bills[2].ID)
}

func TestMemory_ListUnpaidFilter(t *testing.T) {
	// GIVEN: One bill paid for its current cycle, one not
	// WHEN: Listing with UnpaidOnly
	// THEN: Only the unpaid one comes back

	m := store.NewMemory()
	today := bill.NewDay(2025, time.June, 10)

	paid := seedBill(t, m, "paid", "Paid", bill.NewDay(2025, time.June, 15))
	lastPaid := bill.NewDay(2025, time.June, 15)
	paid.LastPaid = &lastPaid
	require.NoError(t, m.Save(context.Background(), paid))

	seedBill(t, m, "unpaid", "Unpaid", bill.NewDay(2025, time.June, 20))

	bills, err := m.List(context.Background(), bill.ListFilter{UnpaidOnly: true, Today: today})
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, bill.BillID("unpaid"), bills[0].ID)
}

func TestMemory_DeleteCascadesPayments(t *testing.T) {
	m := store.NewMemory()
	seedBill(t, m, "b1", "Rent", bill.NewDay(2025, time.June, 1))

	require.NoError(t, m.AddPayment(context.Background(), bill.Payment{
		ID:     "p1",
		BillID: "b1",
		Amount: decimal.NewFromInt(50),
		Date:   bill.NewDay(2025, time.May, 30),
	}))

	require.NoError(t, m.Delete(context.Background(), "b1"))

	_, err := m.Payments(context.Background(), "b1")
	assert.ErrorIs(t, err, bill.ErrBillNotFound)
}

func TestMemory_ApplyPayment_AllOrNothing(t *testing.T) {
	// GIVEN: A bill update that will be rejected (rename collision)
	// WHEN: Applying it together with a payment
	// THEN: Neither the payment nor the update is visible

	m := store.NewMemory()
	seedBill(t, m, "b1", "Rent", bill.NewDay(2025, time.June, 1))
	b2 := seedBill(t, m, "b2", "Water", bill.NewDay(2025, time.June, 2))

	paid := b2.Clone()
	paid.Name = "Rent" // collides
	paid.NextDueDate = bill.NewDay(2025, time.July, 2)

	err := m.ApplyPayment(context.Background(), paid, bill.Payment{
		ID: "p1", BillID: "b2", Amount: decimal.NewFromInt(50),
		Date: bill.NewDay(2025, time.June, 2),
	})
	assert.ErrorIs(t, err, bill.ErrDuplicateBill)

	payments, err := m.Payments(context.Background(), "b2")
	require.NoError(t, err)
	assert.Empty(t, payments)

	stored, err := m.Lookup(context.Background(), "b2")
	require.NoError(t, err)
	assert.Equal(t, "Water", stored.Name)

	// Success path lands both.
	paid.Name = "Water"
	require.NoError(t, m.ApplyPayment(context.Background(), paid, bill.Payment{
		ID: "p2", BillID: "b2", Amount: decimal.NewFromInt(50),
		Date: bill.NewDay(2025, time.June, 2),
	}))

	payments, err = m.Payments(context.Background(), "b2")
	require.NoError(t, err)
	require.Len(t, payments, 1)

	stored, err = m.Lookup(context.Background(), "b2")
	require.NoError(t, err)
	assert.True(t, stored.NextDueDate.Equal(bill.NewDay(2025, time.July, 2)))
}

func TestMemory_AddPaymentUnknownBill(t *testing.T) {
	m := store.NewMemory()
	err := m.AddPayment(context.Background(), bill.Payment{ID: "p1", BillID: "ghost"})
	assert.ErrorIs(t, err, bill.ErrBillNotFound)
}
