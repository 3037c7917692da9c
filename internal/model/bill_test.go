package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBillShouldBeOverdue(t *testing.T) {
	today := NewDate(2025, time.January, 2)
	yesterday := NewDate(2025, time.January, 1)
	tomorrow := NewDate(2025, time.January, 3)

	tests := []struct {
		name   string
		status BillStatus
		due    Date
		want   bool
	}{
		{"unpaid past due", BillStatusUnpaid, yesterday, true},
		{"paid past due stays paid", BillStatusPaid, yesterday, false},
		{"pending past due becomes overdue", BillStatusPending, yesterday, true},
		{"pending not yet due", BillStatusPending, tomorrow, false},
		{"already overdue is a no-op", BillStatusOverdue, yesterday, false},
		{"unpaid not yet due", BillStatusUnpaid, tomorrow, false},
		{"unpaid due today", BillStatusUnpaid, today, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Bill{Status: tt.status, DueDate: tt.due}
			if got := b.ShouldBeOverdue(today); got != tt.want {
				t.Errorf("ShouldBeOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBillNextDueDate(t *testing.T) {
	due := NewDate(2025, time.March, 1)

	tests := []struct {
		frequency BillFrequency
		want      Date
	}{
		{FrequencyWeekly, NewDate(2025, time.March, 8)},
		{FrequencyMonthly, NewDate(2025, time.March, 31)},
		{FrequencyQuarterly, NewDate(2025, time.May, 30)},
		{FrequencyOneTime, due},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			b := &Bill{DueDate: due, Frequency: tt.frequency}
			if got := b.NextDueDate(); !got.Equal(tt.want) {
				t.Errorf("NextDueDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBillNextOccurrence(t *testing.T) {
	b := &Bill{
		BillName:  "Rent",
		Amount:    decimal.NewFromInt(50000),
		DueDate:   NewDate(2025, time.January, 1),
		Frequency: FrequencyMonthly,
		Status:    BillStatusPaid,
		SendEmail: true,
	}

	next := b.NextOccurrence()
	if next.Status != BillStatusUnpaid {
		t.Errorf("next occurrence status = %s, want unpaid", next.Status)
	}
	if !next.DueDate.Equal(NewDate(2025, time.January, 31)) {
		t.Errorf("next occurrence due = %v, want 2025-01-31", next.DueDate)
	}
	if next.BillName != "Rent" || !next.SendEmail {
		t.Error("next occurrence should carry over name and reminder opt-in")
	}
	// Original bill is untouched.
	if b.Status != BillStatusPaid {
		t.Error("NextOccurrence must not mutate the source bill")
	}
}

func TestBillNeedsReminder(t *testing.T) {
	today := NewDate(2025, time.June, 10)

	tests := []struct {
		name string
		bill Bill
		want bool
	}{
		{"opted out", Bill{SendEmail: false, Status: BillStatusOverdue}, false},
		{"overdue always reminds", Bill{SendEmail: true, Status: BillStatusOverdue, DueDate: NewDate(2025, time.May, 1)}, true},
		{"pending always reminds", Bill{SendEmail: true, Status: BillStatusPending, DueDate: NewDate(2025, time.December, 1)}, true},
		{"inside window", Bill{SendEmail: true, Status: BillStatusUnpaid, DueDate: NewDate(2025, time.June, 15), ReminderDays: 7}, true},
		{"outside window", Bill{SendEmail: true, Status: BillStatusUnpaid, DueDate: NewDate(2025, time.June, 30), ReminderDays: 7}, false},
		{"default window applies", Bill{SendEmail: true, Status: BillStatusUnpaid, DueDate: NewDate(2025, time.June, 15)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bill.NeedsReminder(today, 7); got != tt.want {
				t.Errorf("NeedsReminder() = %v, want %v", got, tt.want)
			}
		})
	}
}
