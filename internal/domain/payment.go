package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileWallet PaymentMethod = "MOBILE_WALLET"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodBankTransfer, PaymentMethodMobileWallet, PaymentMethodOther:
		return true
	}
	return false
}

type PaymentRecordStatus string

const PaymentRecordStatusCompleted PaymentRecordStatus = "COMPLETED"

// Payment is money received against a folio during the stay.
type Payment struct {
	ID          uuid.UUID
	FolioID     uuid.UUID
	Amount      decimal.Decimal
	Currency    Currency
	Method      PaymentMethod
	Reference   *string
	Status      PaymentRecordStatus
	PaymentDate time.Time
	RecordedBy  string
}

// InvoicePayment is settlement received after the folio has been closed.
type InvoicePayment struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	Method      PaymentMethod
	Reference   *string
	PaymentDate time.Time
	RecordedBy  string
}
