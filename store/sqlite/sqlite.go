/*
Package sqlite provides a SQLite-backed implementation of bill.Store.

PURPOSE:
  Persists bills and payments using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  bills:    One row per tracked obligation, including reminder state
  payments: Append-only history, cascade-deleted with the owning bill

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql. The
  lifecycle controller additionally serializes all bill mutations, so
  the store never sees racing read-modify-writes for the same bill.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

DATE/AMOUNT ENCODING:
  Calendar days are stored as YYYY-MM-DD strings, monetary amounts as
  decimal strings. Both round-trip exactly.

USAGE:
  store, err := sqlite.New("./data/bills.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - bill/store.go: Interface definition and copy-out contract
  - bill/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/kdb/bill-engine/bill"
)

// Store implements bill.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		icon TEXT NOT NULL DEFAULT 'dollarsign.circle',
		recurrence TEXT NOT NULL,
		starting_due_date TEXT NOT NULL,
		next_due_date TEXT NOT NULL,
		last_paid TEXT,
		end_date TEXT,
		amount_due TEXT NOT NULL,
		starting_balance TEXT,
		paid_automatically BOOLEAN NOT NULL DEFAULT FALSE,
		payment_url TEXT,
		tags_json TEXT,
		reminder_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		remind_days_before INTEGER NOT NULL DEFAULT 0,
		next_remind_date TEXT,
		reminder_scheduled BOOLEAN NOT NULL DEFAULT FALSE,
		reminder_external_id TEXT,
		created_at TEXT NOT NULL
	);

	-- List() sorts by next due date (hot path for the active-bills view)
	CREATE INDEX IF NOT EXISTS idx_bills_next_due_date
		ON bills(next_due_date);

	-- Sweep scans for enabled-but-unscheduled reminders
	CREATE INDEX IF NOT EXISTS idx_bills_reminder_state
		ON bills(reminder_enabled, reminder_scheduled);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		bill_id TEXT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_bill
		ON payments(bill_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BILL OPERATIONS
// =============================================================================

const billColumns = `id, name, icon, recurrence, starting_due_date, next_due_date,
	last_paid, end_date, amount_due, starting_balance, paid_automatically,
	payment_url, tags_json, reminder_enabled, remind_days_before,
	next_remind_date, reminder_scheduled, reminder_external_id, created_at`

func (s *Store) Insert(ctx context.Context, b *bill.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bills (`+billColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		billArgs(b)...)
	if err != nil {
		if isUniqueViolation(err) {
			return bill.ErrDuplicateBill
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, b *bill.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateBill(ctx, s.db, b)
}

func (s *Store) Delete(ctx context.Context, id bill.BillID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return bill.ErrBillNotFound
	}
	return nil
}

func (s *Store) Lookup(ctx context.Context, id bill.BillID) (*bill.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ?`, string(id))
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bill.ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup bill: %w", err)
	}
	return b, nil
}

func (s *Store) List(ctx context.Context, filter bill.ListFilter) ([]*bill.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills ORDER BY next_due_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var result []*bill.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		if filter.UnpaidOnly && !bill.CycleUnpaid(b.NextDueDate, b.LastPaid, filter.Today) {
			continue
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// =============================================================================
// PAYMENT OPERATIONS
// =============================================================================

// ApplyPayment inserts the payment and updates the bill in a single
// transaction. A failure on either statement rolls back both.
func (s *Store) ApplyPayment(ctx context.Context, b *bill.Bill, p bill.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply payment: %w", err)
	}
	defer tx.Rollback()

	if err := insertPayment(ctx, tx, p); err != nil {
		return err
	}
	if err := updateBill(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddPayment(ctx context.Context, p bill.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertPayment(ctx, s.db, p)
}

func (s *Store) Payments(ctx context.Context, id bill.BillID) ([]bill.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM bills WHERE id = ?`, string(id)).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}
	if exists == 0 {
		return nil, bill.ErrBillNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bill_id, amount, date, note, created_at
		FROM payments WHERE bill_id = ? ORDER BY date ASC, created_at ASC`,
		string(id))
	if err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}
	defer rows.Close()

	var result []bill.Payment
	for rows.Next() {
		var (
			p                            bill.Payment
			pid, billID, amount, dateStr string
			note                         sql.NullString
			createdAt                    string
		)
		if err := rows.Scan(&pid, &billID, &amount, &dateStr, &note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.ID = bill.PaymentID(pid)
		p.BillID = bill.BillID(billID)
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse payment amount: %w", err)
		}
		if p.Date, err = bill.ParseDay(dateStr); err != nil {
			return nil, fmt.Errorf("parse payment date: %w", err)
		}
		p.Note = note.String
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, p)
	}
	return result, rows.Err()
}

// =============================================================================
// STATEMENT HELPERS - Shared between direct and transactional paths
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateBill(ctx context.Context, ex execer, b *bill.Bill) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE bills SET
			name = ?, icon = ?, recurrence = ?, starting_due_date = ?,
			next_due_date = ?, last_paid = ?, end_date = ?, amount_due = ?,
			starting_balance = ?, paid_automatically = ?, payment_url = ?,
			tags_json = ?, reminder_enabled = ?, remind_days_before = ?,
			next_remind_date = ?, reminder_scheduled = ?, reminder_external_id = ?
		WHERE id = ?`,
		b.Name, b.Icon, string(b.Recurrence), b.StartingDueDate.String(),
		b.NextDueDate.String(), dayPtr(b.LastPaid), dayPtr(b.EndDate), b.AmountDue.String(),
		decimalPtr(b.StartingBalance), b.PaidAutomatically, b.PaymentURL,
		tagsJSON(b.Tags), b.ReminderEnabled, b.RemindDaysBefore,
		dayPtr(b.NextRemindDate), b.ReminderScheduled, b.ReminderExternalID,
		string(b.ID))
	if err != nil {
		if isUniqueViolation(err) {
			return bill.ErrDuplicateBill
		}
		return fmt.Errorf("save bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return bill.ErrBillNotFound
	}
	return nil
}

func insertPayment(ctx context.Context, ex execer, p bill.Payment) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO payments (id, bill_id, amount, date, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(p.ID), string(p.BillID), p.Amount.String(), p.Date.String(),
		p.Note, p.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isForeignKeyViolation(err) {
			return bill.ErrBillNotFound
		}
		return fmt.Errorf("add payment: %w", err)
	}
	return nil
}

// =============================================================================
// ROW MAPPING HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*bill.Bill, error) {
	var (
		b                                        bill.Bill
		id, name, icon, recurrence               string
		startingDue, nextDue                     string
		lastPaid, endDate, nextRemind            sql.NullString
		amountDue                                string
		startingBalance, paymentURL, tags, extID sql.NullString
		createdAt                                string
	)

	err := row.Scan(&id, &name, &icon, &recurrence, &startingDue, &nextDue,
		&lastPaid, &endDate, &amountDue, &startingBalance, &b.PaidAutomatically,
		&paymentURL, &tags, &b.ReminderEnabled, &b.RemindDaysBefore,
		&nextRemind, &b.ReminderScheduled, &extID, &createdAt)
	if err != nil {
		return nil, err
	}

	b.ID = bill.BillID(id)
	b.Name = name
	b.Icon = icon
	b.Recurrence = bill.RecurrenceRule(recurrence)
	if b.StartingDueDate, err = bill.ParseDay(startingDue); err != nil {
		return nil, fmt.Errorf("parse starting_due_date: %w", err)
	}
	if b.NextDueDate, err = bill.ParseDay(nextDue); err != nil {
		return nil, fmt.Errorf("parse next_due_date: %w", err)
	}
	if b.LastPaid, err = scanDay(lastPaid); err != nil {
		return nil, fmt.Errorf("parse last_paid: %w", err)
	}
	if b.EndDate, err = scanDay(endDate); err != nil {
		return nil, fmt.Errorf("parse end_date: %w", err)
	}
	if b.NextRemindDate, err = scanDay(nextRemind); err != nil {
		return nil, fmt.Errorf("parse next_remind_date: %w", err)
	}
	if b.AmountDue, err = decimal.NewFromString(amountDue); err != nil {
		return nil, fmt.Errorf("parse amount_due: %w", err)
	}
	if startingBalance.Valid {
		v, err := decimal.NewFromString(startingBalance.String)
		if err != nil {
			return nil, fmt.Errorf("parse starting_balance: %w", err)
		}
		b.StartingBalance = &v
	}
	b.PaymentURL = paymentURL.String
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &b.Tags); err != nil {
			return nil, fmt.Errorf("parse tags: %w", err)
		}
	}
	b.ReminderExternalID = extID.String
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &b, nil
}

func billArgs(b *bill.Bill) []any {
	return []any{
		string(b.ID), b.Name, b.Icon, string(b.Recurrence),
		b.StartingDueDate.String(), b.NextDueDate.String(),
		dayPtr(b.LastPaid), dayPtr(b.EndDate), b.AmountDue.String(),
		decimalPtr(b.StartingBalance), b.PaidAutomatically, b.PaymentURL,
		tagsJSON(b.Tags), b.ReminderEnabled, b.RemindDaysBefore,
		dayPtr(b.NextRemindDate), b.ReminderScheduled, b.ReminderExternalID,
		b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func dayPtr(d *bill.Day) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func decimalPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func tagsJSON(tags []string) any {
	if len(tags) == 0 {
		return nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return string(data)
}

func scanDay(ns sql.NullString) (*bill.Day, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := bill.ParseDay(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
