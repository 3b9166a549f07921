package bill_test

import (
	"testing"
	"time"

	"github.com/kdb/bill-engine/bill"
)

// =============================================================================
// REMINDER SCHEDULER TESTS
// =============================================================================

func TestNextReminderInstant_Derivation(t *testing.T) {
	// GIVEN: A bill due 2025-06-15 with a 7-day lead at 09:00
	// WHEN: Deriving the reminder trigger
	// THEN: 2025-06-08 at 09:00

	due := bill.NewDay(2025, time.June, 15)
	got := bill.NextReminderInstant(due, 7, 9, 0, time.UTC)
	want := time.Date(2025, time.June, 8, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNextReminderInstant_ZeroLead_DayOfDue(t *testing.T) {
	due := bill.NewDay(2025, time.June, 15)
	got := bill.NextReminderInstant(due, 0, 9, 0, time.UTC)
	want := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNextReminderInstant_LeadCrossesMonthBoundary(t *testing.T) {
	// A 7-day lead from Jul 3 lands in June.
	due := bill.NewDay(2025, time.July, 3)
	got := bill.NextReminderInstant(due, 7, 9, 0, time.UTC)
	want := time.Date(2025, time.June, 26, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEligible(t *testing.T) {
	// GIVEN: A candidate trigger at 2025-06-08 09:00
	// THEN: Eligible iff now has not passed it

	candidate := time.Date(2025, time.June, 8, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"now well before", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), true},
		{"now exactly at the trigger", candidate, true},
		{"now a second past", candidate.Add(time.Second), false},
		{"now the next day", time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := bill.Eligible(candidate, tc.now); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRemindDay_PrefersTrackedDate(t *testing.T) {
	// A snooze advances NextRemindDate; the derived due-date offset must
	// not override it.

	snoozed := bill.NewDay(2025, time.June, 9)
	b := &bill.Bill{
		NextDueDate:      bill.NewDay(2025, time.June, 15),
		RemindDaysBefore: 7,
		NextRemindDate:   &snoozed,
	}
	if got := bill.RemindDay(b); !got.Equal(snoozed) {
		t.Errorf("expected tracked date %s, got %s", snoozed, got)
	}

	b.NextRemindDate = nil
	if got := bill.RemindDay(b); !got.Equal(bill.NewDay(2025, time.June, 8)) {
		t.Errorf("expected derived date 2025-06-08, got %s", got)
	}
}
