package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FolioStatus string

const (
	FolioStatusOpen   FolioStatus = "OPEN"
	FolioStatusClosed FolioStatus = "CLOSED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
)

// Folio is the running account for a single stay.
type Folio struct {
	ID                  uuid.UUID
	HotelID             uuid.UUID
	BookingID           uuid.UUID
	GuestID             uuid.UUID
	FolioNumber         string
	Status              FolioStatus
	Currency            Currency
	Subtotal            decimal.Decimal
	TaxAmount           decimal.Decimal
	TotalAmount         decimal.Decimal
	PaidAmount          decimal.Decimal
	BalanceDue          decimal.Decimal
	PaymentStatus       PaymentStatus
	BillingName         *string
	BillingEmail        *string
	BillingAddress      *string
	BillingTaxID        *string
	CheckInDate         time.Time
	CheckOutDate        time.Time
	OpenedAt            time.Time
	OpenedBy            string
	ClosedAt            *time.Time
	ClosedBy            *string
	CloseOverrideBy     *string
	CloseOverrideReason *string
	Version             int64
	UpdatedAt           time.Time
}

func (f *Folio) IsOpen() bool {
	return f.Status == FolioStatusOpen
}

// Aggregates holds the derived totals of a folio.
type Aggregates struct {
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	BalanceDue    decimal.Decimal
	PaymentStatus PaymentStatus
}

// ComputeAggregates derives totals from the raw sums. subtotal and tax must
// already exclude voided items.
func ComputeAggregates(subtotal, tax, paid decimal.Decimal) Aggregates {
	total := subtotal.Add(tax)
	return Aggregates{
		Subtotal:      subtotal,
		TaxAmount:     tax,
		TotalAmount:   total,
		PaidAmount:    paid,
		BalanceDue:    total.Sub(paid),
		PaymentStatus: DerivePaymentStatus(total, paid),
	}
}

func DerivePaymentStatus(total, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.IsZero():
		return PaymentStatusUnpaid
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	default:
		return PaymentStatusPartiallyPaid
	}
}

// StayNights rounds partial days up.
func StayNights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}
