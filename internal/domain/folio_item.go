package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChargeCategory string

const (
	ChargeCategoryRoom         ChargeCategory = "ROOM"
	ChargeCategoryFoodBeverage ChargeCategory = "FOOD_BEVERAGE"
	ChargeCategoryMinibar      ChargeCategory = "MINIBAR"
	ChargeCategorySpa          ChargeCategory = "SPA"
	ChargeCategoryLaundry      ChargeCategory = "LAUNDRY"
	ChargeCategoryParking      ChargeCategory = "PARKING"
	ChargeCategoryTelephone    ChargeCategory = "TELEPHONE"
	ChargeCategoryMisc         ChargeCategory = "MISC"
)

func (c ChargeCategory) Valid() bool {
	switch c {
	case ChargeCategoryRoom, ChargeCategoryFoodBeverage, ChargeCategoryMinibar,
		ChargeCategorySpa, ChargeCategoryLaundry, ChargeCategoryParking,
		ChargeCategoryTelephone, ChargeCategoryMisc:
		return true
	}
	return false
}

const ReferenceTypeVoid = "VOID"

type FolioItem struct {
	ID            uuid.UUID
	FolioID       uuid.UUID
	Description   string
	Category      ChargeCategory
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
	TaxRate       decimal.Decimal
	TaxAmount     decimal.Decimal
	ServiceDate   time.Time
	PostedAt      time.Time
	PostedBy      string
	IsVoided      bool
	VoidedAt      *time.Time
	VoidedBy      *string
	VoidReason    *string
	ReferenceID   *string
	ReferenceType *string
}

// IsReversal reports whether the item is the compensating entry of a void.
func (i *FolioItem) IsReversal() bool {
	return i.ReferenceType != nil && *i.ReferenceType == ReferenceTypeVoid
}
