package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// BillStatus represents the payment state of a bill.
type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "unpaid"
	BillStatusPaid    BillStatus = "paid"
	BillStatusPending BillStatus = "pending"
	BillStatusOverdue BillStatus = "overdue"
)

// ValidBillStatuses contains all accepted bill statuses.
var ValidBillStatuses = []BillStatus{
	BillStatusUnpaid, BillStatusPaid, BillStatusPending, BillStatusOverdue,
}

// IsValid checks if the status is a known bill status.
func (s BillStatus) IsValid() bool {
	return slices.Contains(ValidBillStatuses, s)
}

// BillFrequency represents how often a bill recurs.
type BillFrequency string

const (
	FrequencyOneTime   BillFrequency = "one-time"
	FrequencyWeekly    BillFrequency = "weekly"
	FrequencyMonthly   BillFrequency = "monthly"
	FrequencyQuarterly BillFrequency = "quarterly"
)

// ValidBillFrequencies contains all accepted frequencies.
var ValidBillFrequencies = []BillFrequency{
	FrequencyOneTime, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly,
}

// IsValid checks if the frequency is known.
func (f BillFrequency) IsValid() bool {
	return slices.Contains(ValidBillFrequencies, f)
}

// ValidBillCategories contains the accepted bill categories.
var ValidBillCategories = []string{
	"utilities", "rent", "data_internet", "ajo_esusu_adashe", "food",
	"transport", "clothing", "education", "healthcare", "entertainment",
	"airtime", "school_fees", "savings_investments", "other",
}

// Bill is a tracked payment obligation with an optional email reminder.
type Bill struct {
	FirstName    string          `json:"first_name,omitempty"`
	BillName     string          `json:"bill_name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      Date            `json:"due_date"`
	Frequency    BillFrequency   `json:"frequency"`
	Category     string          `json:"category"`
	Status       BillStatus      `json:"status"`
	SendEmail    bool            `json:"send_email"`
	ReminderDays int             `json:"reminder_days,omitempty"`
}

// PayloadKind implements Payload.
func (b *Bill) PayloadKind() Kind { return KindBill }

// ShouldBeOverdue reports whether the sweep must transition this bill.
// Pending and unpaid bills go overdue once the due date has passed;
// only paid bills are exempt.
func (b *Bill) ShouldBeOverdue(today Date) bool {
	if b.Status == BillStatusPaid || b.Status == BillStatusOverdue {
		return false
	}
	return b.DueDate.Before(today)
}

// DueWithin reports whether the bill falls due inside the next n days,
// today inclusive.
func (b *Bill) DueWithin(today Date, days int) bool {
	until := today.DaysUntil(b.DueDate)
	return until >= 0 && until <= days
}

// NeedsReminder reports whether the bill qualifies for the reminder
// batch: reminders enabled and either pending/overdue or inside the
// reminder window.
func (b *Bill) NeedsReminder(today Date, defaultWindow int) bool {
	if !b.SendEmail {
		return false
	}
	if b.Status == BillStatusPending || b.Status == BillStatusOverdue {
		return true
	}
	window := b.ReminderDays
	if window <= 0 {
		window = defaultWindow
	}
	return b.DueWithin(today, window)
}

// NextDueDate advances the due date by one recurrence interval.
// One-time bills keep their date.
func (b *Bill) NextDueDate() Date {
	switch b.Frequency {
	case FrequencyWeekly:
		return b.DueDate.AddDays(7)
	case FrequencyMonthly:
		return b.DueDate.AddDays(30)
	case FrequencyQuarterly:
		return b.DueDate.AddDays(90)
	default:
		return b.DueDate
	}
}

// NextOccurrence builds the follow-up bill created when a recurring
// bill is marked paid.
func (b *Bill) NextOccurrence() *Bill {
	next := *b
	next.DueDate = b.NextDueDate()
	next.Status = BillStatusUnpaid
	return &next
}
