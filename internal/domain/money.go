package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

type Currency string

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

func (c Currency) Valid() bool {
	return currencyPattern.MatchString(string(c))
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineAmounts returns the extended price and tax for a line item.
// taxRate is a percentage.
func LineAmounts(quantity, unitPrice, taxRate decimal.Decimal) (total, tax decimal.Decimal) {
	total = RoundMoney(quantity.Mul(unitPrice))
	tax = RoundMoney(total.Mul(taxRate).Div(decimal.NewFromInt(100)))
	return total, tax
}

// Stored scales of the ledger's numeric columns.
const (
	MoneyScale    int32 = 2
	QuantityScale int32 = 3
	RateScale     int32 = 3
)

var (
	// NUMERIC(14,2) holds 12 integer digits, NUMERIC(10,3) holds 7.
	maxMoney    = decimal.New(1, 12)
	maxQuantity = decimal.New(1, 7)
)

// FitsScale reports whether d has no more than scale decimal places.
func FitsScale(d decimal.Decimal, scale int32) bool {
	return d.Equal(d.Truncate(scale))
}

// ValidMoney reports whether d can be stored as an amount without rounding.
func ValidMoney(d decimal.Decimal) bool {
	return FitsScale(d, MoneyScale) && d.Abs().LessThan(maxMoney)
}

// ValidQuantity reports whether d can be stored as a quantity without
// rounding.
func ValidQuantity(d decimal.Decimal) bool {
	return FitsScale(d, QuantityScale) && d.Abs().LessThan(maxQuantity)
}

// ValidTaxRate reports whether d is a percentage between 0 and 100 with at
// most three decimal places.
func ValidTaxRate(d decimal.Decimal) bool {
	return FitsScale(d, RateScale) && !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
}
