package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

type BillTo struct {
	Name    string
	Email   *string
	Address *string
	TaxID   *string
}

// Invoice is an immutable projection of a closed folio. Only the settlement
// fields and status change after issue.
type Invoice struct {
	ID                 uuid.UUID
	HotelID            uuid.UUID
	FolioID            uuid.UUID
	GuestID            uuid.UUID
	InvoiceNumber      string
	Currency           Currency
	Subtotal           decimal.Decimal
	TaxAmount          decimal.Decimal
	TotalAmount        decimal.Decimal
	FolioPaidAmount    decimal.Decimal
	PaidAmount         decimal.Decimal
	BalanceDue         decimal.Decimal
	BillTo             BillTo
	IssueDate          time.Time
	DueDate            time.Time
	Status             InvoiceStatus
	Notes              *string
	PaidAt             *time.Time
	CancelledAt        *time.Time
	CancelledBy        *string
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SettlementStatus derives the status for a non-terminal invoice from its
// current balance.
func SettlementStatus(balance decimal.Decimal, dueDate, now time.Time) InvoiceStatus {
	switch {
	case !balance.IsPositive():
		return InvoiceStatusPaid
	case now.After(dueDate):
		return InvoiceStatusOverdue
	default:
		return InvoiceStatusIssued
	}
}
