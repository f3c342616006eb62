package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStayNights(t *testing.T) {
	checkIn := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		checkOut time.Time
		want     int
	}{
		{"exact days", checkIn.Add(72 * time.Hour), 3},
		{"partial day rounds up", checkIn.Add(49 * time.Hour), 3},
		{"under a day", checkIn.Add(20 * time.Hour), 1},
		{"same instant", checkIn, 0},
		{"reversed", checkIn.Add(-time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StayNights(checkIn, tt.checkOut))
		})
	}
}

func TestComputeAggregates(t *testing.T) {
	agg := ComputeAggregates(decimal.RequireFromString("340"), decimal.RequireFromString("34"), decimal.RequireFromString("300"))
	assert.Equal(t, "374.00", agg.TotalAmount.StringFixed(2))
	assert.Equal(t, "74.00", agg.BalanceDue.StringFixed(2))
	assert.Equal(t, PaymentStatusPartiallyPaid, agg.PaymentStatus)
}

func TestDerivePaymentStatus(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name  string
		total string
		paid  string
		want  PaymentStatus
	}{
		{"nothing paid", "100", "0", PaymentStatusUnpaid},
		{"partial", "100", "40", PaymentStatusPartiallyPaid},
		{"exact", "100", "100", PaymentStatusPaid},
		{"overpaid", "100", "120", PaymentStatusPaid},
		{"empty folio", "0", "0", PaymentStatusUnpaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePaymentStatus(d(tt.total), d(tt.paid)))
		})
	}
}

func TestLineAmounts(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name      string
		qty       string
		unit      string
		rate      string
		wantTotal string
		wantTax   string
	}{
		{"room nights", "3", "100", "10", "300.00", "30.00"},
		{"rounding half up", "1", "0.05", "10", "0.05", "0.01"},
		{"fractional quantity", "1.5", "19.99", "8.25", "29.99", "2.47"},
		{"reversal", "-1", "25", "10", "-25.00", "-2.50"},
		{"untaxed", "2", "12.50", "0", "25.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, tax := LineAmounts(d(tt.qty), d(tt.unit), d(tt.rate))
			assert.Equal(t, tt.wantTotal, total.StringFixed(2))
			assert.Equal(t, tt.wantTax, tax.StringFixed(2))
		})
	}
}

func TestSettlementStatus(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	d := decimal.RequireFromString

	assert.Equal(t, InvoiceStatusPaid, SettlementStatus(d("0"), now.Add(-time.Hour), now))
	assert.Equal(t, InvoiceStatusPaid, SettlementStatus(d("-5"), now.Add(time.Hour), now))
	assert.Equal(t, InvoiceStatusOverdue, SettlementStatus(d("10"), now.Add(-time.Hour), now))
	assert.Equal(t, InvoiceStatusIssued, SettlementStatus(d("10"), now.Add(time.Hour), now))
}

func TestCurrencyValid(t *testing.T) {
	assert.True(t, Currency("USD").Valid())
	assert.False(t, Currency("usd").Valid())
	assert.False(t, Currency("US").Valid())
	assert.False(t, Currency("").Valid())
}

func TestStoredPrecision(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name  string
		valid func(decimal.Decimal) bool
		in    string
		want  bool
	}{
		{"money cents", ValidMoney, "19.99", true},
		{"money trailing zeros", ValidMoney, "12.500", true},
		{"money sub-cent", ValidMoney, "0.125", false},
		{"money tiny payment", ValidMoney, "0.004", false},
		{"money at column limit", ValidMoney, "999999999999.99", true},
		{"money over column limit", ValidMoney, "1000000000000", false},
		{"money negative reversal", ValidMoney, "-25.00", true},
		{"quantity three places", ValidQuantity, "1.125", true},
		{"quantity four places", ValidQuantity, "1.1255", false},
		{"quantity over column limit", ValidQuantity, "10000000", false},
		{"quantity negative", ValidQuantity, "-2", true},
		{"tax rate three places", ValidTaxRate, "8.875", true},
		{"tax rate four places", ValidTaxRate, "8.8755", false},
		{"tax rate above 100", ValidTaxRate, "100.001", false},
		{"tax rate negative", ValidTaxRate, "-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.valid(d(tt.in)))
		})
	}
}

// A line built from storable inputs keeps total = quantity x unit price once
// the unit price is read back at its stored scale.
func TestLineAmounts_StoredUnitPriceMatchesTotal(t *testing.T) {
	qty := decimal.NewFromInt(3)
	unit := decimal.RequireFromString("0.13")
	require.True(t, ValidMoney(unit))

	total, _ := LineAmounts(qty, unit, decimal.NewFromInt(10))
	assert.True(t, total.Equal(qty.Mul(unit.Round(MoneyScale)).Round(MoneyScale)))
	assert.False(t, ValidMoney(decimal.RequireFromString("0.125")))
}
