// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/kdb/bill-engine/bill"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	bills    map[bill.BillID]*bill.Bill
	payments map[bill.BillID][]bill.Payment
	names    map[string]bill.BillID
}

func NewMemory() *Memory {
	return &Memory{
		bills:    make(map[bill.BillID]*bill.Bill),
		payments: make(map[bill.BillID][]bill.Payment),
		names:    make(map[string]bill.BillID),
	}
}

// Insert adds a new bill. Both id and name are unique across the store.
func (m *Memory) Insert(_ context.Context, b *bill.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bills[b.ID]; ok {
		return bill.ErrDuplicateBill
	}
	if _, ok := m.names[b.Name]; ok {
		return bill.ErrDuplicateBill
	}
	m.bills[b.ID] = b.Clone()
	m.names[b.Name] = b.ID
	return nil
}

// Save replaces the stored record. The store holds its own clone, so a
// caller's later mutations never leak in without another Save.
func (m *Memory) Save(_ context.Context, b *bill.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(b)
}

func (m *Memory) saveLocked(b *bill.Bill) error {
	current, ok := m.bills[b.ID]
	if !ok {
		return bill.ErrBillNotFound
	}
	if current.Name != b.Name {
		if owner, taken := m.names[b.Name]; taken && owner != b.ID {
			return bill.ErrDuplicateBill
		}
		delete(m.names, current.Name)
		m.names[b.Name] = b.ID
	}
	m.bills[b.ID] = b.Clone()
	return nil
}

func (m *Memory) Delete(_ context.Context, id bill.BillID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bills[id]
	if !ok {
		return bill.ErrBillNotFound
	}
	delete(m.names, b.Name)
	delete(m.bills, id)
	delete(m.payments, id) // cascade
	return nil
}

func (m *Memory) Lookup(_ context.Context, id bill.BillID) (*bill.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bills[id]
	if !ok {
		return nil, bill.ErrBillNotFound
	}
	return b.Clone(), nil
}

// List returns bills sorted by NextDueDate ascending.
func (m *Memory) List(_ context.Context, filter bill.ListFilter) ([]*bill.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*bill.Bill, 0, len(m.bills))
	for _, b := range m.bills {
		if filter.UnpaidOnly && !bill.CycleUnpaid(b.NextDueDate, b.LastPaid, filter.Today) {
			continue
		}
		result = append(result, b.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NextDueDate.Before(result[j].NextDueDate)
	})
	return result, nil
}

// ApplyPayment saves the bill and appends the payment under one lock
// acquisition. The save runs first; nothing is appended if it fails.
func (m *Memory) ApplyPayment(_ context.Context, b *bill.Bill, p bill.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.saveLocked(b); err != nil {
		return err
	}
	m.payments[p.BillID] = append(m.payments[p.BillID], p)
	return nil
}

func (m *Memory) AddPayment(_ context.Context, p bill.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bills[p.BillID]; !ok {
		return bill.ErrBillNotFound
	}
	m.payments[p.BillID] = append(m.payments[p.BillID], p)
	return nil
}

func (m *Memory) Payments(_ context.Context, id bill.BillID) ([]bill.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.bills[id]; !ok {
		return nil, bill.ErrBillNotFound
	}
	result := make([]bill.Payment, len(m.payments[id]))
	copy(result, m.payments[id])
	return result, nil
}
