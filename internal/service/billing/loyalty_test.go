package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

func TestTierFor(t *testing.T) {
	table := DefaultTierTable()

	tests := []struct {
		spend string
		want  string
	}{
		{"0", "BRONZE"},
		{"9999.99", "BRONZE"},
		{"10000", "SILVER"},
		{"24999.99", "SILVER"},
		{"25000", "GOLD"},
		{"50000", "PLATINUM"},
		{"1000000", "PLATINUM"},
	}

	for _, tt := range tests {
		t.Run(tt.spend, func(t *testing.T) {
			assert.Equal(t, tt.want, table.TierFor(decimal.RequireFromString(tt.spend)))
		})
	}
}

func TestIsVIPTier(t *testing.T) {
	table := DefaultTierTable()
	assert.False(t, table.IsVIPTier("BRONZE"))
	assert.False(t, table.IsVIPTier("SILVER"))
	assert.True(t, table.IsVIPTier("GOLD"))
	assert.True(t, table.IsVIPTier("PLATINUM"))
}

func TestAccrue_VIPIsSticky(t *testing.T) {
	table := DefaultTierTable()
	g := &domain.Guest{LifetimeSpend: decimal.RequireFromString("24000"), LoyaltyTier: "SILVER"}

	table.Accrue(g, decimal.RequireFromString("1500"))
	assert.Equal(t, 1, g.LifetimeStays)
	assert.Equal(t, "GOLD", g.LoyaltyTier)
	assert.True(t, g.IsVIP)

	// A negative adjustment can lower the tier but never revokes VIP.
	table.Accrue(g, decimal.RequireFromString("-2000"))
	assert.Equal(t, 2, g.LifetimeStays)
	assert.Equal(t, "SILVER", g.LoyaltyTier)
	assert.True(t, g.IsVIP)
}
