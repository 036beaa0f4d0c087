package recon

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
)

// Fallback when no tier band matches the premium.
var defaultTierRate = decimal.RequireFromString("0.03")

const defaultTierLevel = 1

// resolveTier picks the highest-level tier whose band contains the premium.
// Bounds are inclusive on both ends; a nil max is unbounded above.
func resolveTier(tiers []model.CommissionTier, premium decimal.Decimal) (decimal.Decimal, int) {
	rate := defaultTierRate
	level := defaultTierLevel
	found := false
	for _, t := range tiers {
		if !t.Contains(premium) {
			continue
		}
		if !found || t.TierLevel > level {
			rate = t.CommissionRate
			level = t.TierLevel
			found = true
		}
	}
	return rate, level
}

// agentTier resolves an agent's tier from their written premium in the
// current statement period.
func (s *Service) agentTier(ctx context.Context, agentID string, period model.Period, tiers []model.CommissionTier) (decimal.Decimal, int, decimal.Decimal, error) {
	premium, err := s.store.AgentWrittenPremium(ctx, agentID, period)
	if err != nil {
		return decimal.Zero, 0, decimal.Zero, err
	}
	rate, level := resolveTier(tiers, premium)
	return rate, level, premium, nil
}

// DefaultTiers is the seed band table used by the tiers command.
func DefaultTiers() []model.CommissionTier {
	band := func(level int, min, max, rate, desc string) model.CommissionTier {
		t := model.CommissionTier{
			TierLevel:         level,
			MinWrittenPremium: decimal.RequireFromString(min),
			CommissionRate:    decimal.RequireFromString(rate),
			Description:       desc,
			IsActive:          true,
		}
		if max != "" {
			m := decimal.RequireFromString(max)
			t.MaxWrittenPremium = &m
		}
		return t
	}
	return []model.CommissionTier{
		band(1, "0", "39999.99", "0.03", "Under 40K - 3%"),
		band(2, "40000", "49999.99", "0.03", "40K - 3%"),
		band(3, "50000", "59999.99", "0.04", "50K - 4%"),
		band(4, "60000", "99999.99", "0.05", "60K - 5%"),
		band(5, "100000", "149999.99", "0.06", "100K - 6%"),
		band(6, "150000", "199999.99", "0.07", "150K - 7%"),
		band(7, "200000", "", "0.08", "200K+ - 8%"),
	}
}
