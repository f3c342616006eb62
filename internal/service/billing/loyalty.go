package billing

import (
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/folio-ledger/internal/config"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

type Tier struct {
	Name     string
	MinSpend decimal.Decimal
}

// TierTable maps lifetime spend to a loyalty tier. Tiers are ordered by
// ascending threshold; the two highest tiers carry VIP status.
type TierTable struct {
	base  string
	tiers []Tier
}

func NewTierTable(cfg config.LoyaltyConfig) *TierTable {
	tiers := make([]Tier, 0, len(cfg.Tiers))
	for _, t := range cfg.Tiers {
		tiers = append(tiers, Tier{Name: t.Name, MinSpend: decimal.NewFromFloat(t.MinSpend)})
	}
	return &TierTable{base: cfg.BaseTier, tiers: tiers}
}

func DefaultTierTable() *TierTable {
	return NewTierTable(config.DefaultLoyalty())
}

func (t *TierTable) TierFor(spend decimal.Decimal) string {
	tier := t.base
	for _, candidate := range t.tiers {
		if spend.LessThan(candidate.MinSpend) {
			break
		}
		tier = candidate.Name
	}
	return tier
}

func (t *TierTable) IsVIPTier(name string) bool {
	n := len(t.tiers)
	for i := max(0, n-2); i < n; i++ {
		if t.tiers[i].Name == name {
			return true
		}
	}
	return false
}

// Accrue credits one completed stay and its spend to the guest. VIP is only
// ever switched on here.
func (t *TierTable) Accrue(g *domain.Guest, spend decimal.Decimal) {
	g.LifetimeStays++
	g.LifetimeSpend = g.LifetimeSpend.Add(spend)
	g.LoyaltyTier = t.TierFor(g.LifetimeSpend)
	if t.IsVIPTier(g.LoyaltyTier) {
		g.IsVIP = true
	}
}
