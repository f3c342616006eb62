package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type LoyaltyTier struct {
	Name     string  `yaml:"name"`
	MinSpend float64 `yaml:"min_spend"`
}

type LoyaltyConfig struct {
	BaseTier string        `yaml:"base_tier"`
	Tiers    []LoyaltyTier `yaml:"tiers"`
}

func DefaultLoyalty() LoyaltyConfig {
	return LoyaltyConfig{
		BaseTier: "BRONZE",
		Tiers: []LoyaltyTier{
			{Name: "SILVER", MinSpend: 10000},
			{Name: "GOLD", MinSpend: 25000},
			{Name: "PLATINUM", MinSpend: 50000},
		},
	}
}

// LoadLoyalty reads the tier table from path. An empty path yields the
// defaults. Tiers are returned sorted by ascending threshold.
func LoadLoyalty(path string) (LoyaltyConfig, error) {
	if path == "" {
		return DefaultLoyalty(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return LoyaltyConfig{}, fmt.Errorf("config.LoadLoyalty: read: %w", err)
	}
	return ParseLoyalty(raw)
}

func ParseLoyalty(raw []byte) (LoyaltyConfig, error) {
	var cfg LoyaltyConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return LoyaltyConfig{}, fmt.Errorf("config.ParseLoyalty: %w", err)
	}

	if cfg.BaseTier == "" {
		cfg.BaseTier = DefaultLoyalty().BaseTier
	}
	if len(cfg.Tiers) == 0 {
		return LoyaltyConfig{}, fmt.Errorf("config.ParseLoyalty: at least one tier is required")
	}

	seen := make(map[string]bool, len(cfg.Tiers))
	for _, t := range cfg.Tiers {
		if t.Name == "" {
			return LoyaltyConfig{}, fmt.Errorf("config.ParseLoyalty: tier name is required")
		}
		if t.MinSpend <= 0 {
			return LoyaltyConfig{}, fmt.Errorf("config.ParseLoyalty: tier %s: min_spend must be positive", t.Name)
		}
		if seen[t.Name] || t.Name == cfg.BaseTier {
			return LoyaltyConfig{}, fmt.Errorf("config.ParseLoyalty: duplicate tier %s", t.Name)
		}
		seen[t.Name] = true
	}

	sort.SliceStable(cfg.Tiers, func(i, j int) bool {
		return cfg.Tiers[i].MinSpend < cfg.Tiers[j].MinSpend
	})
	return cfg, nil
}
