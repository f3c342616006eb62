package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Guest struct {
	ID            uuid.UUID
	HotelID       uuid.UUID
	FirstName     string
	LastName      string
	Email         *string
	Phone         *string
	Address       *string
	LifetimeStays int
	LifetimeSpend decimal.Decimal
	LoyaltyTier   string
	IsVIP         bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (g *Guest) FullName() string {
	switch {
	case g.FirstName == "":
		return g.LastName
	case g.LastName == "":
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}

type RoomRate struct {
	HotelID     uuid.UUID
	RoomType    string
	NightlyRate decimal.Decimal
	Currency    Currency
}

type SequenceKind string

const (
	SequenceKindFolio   SequenceKind = "FOLIO"
	SequenceKindInvoice SequenceKind = "INVOICE"
)
