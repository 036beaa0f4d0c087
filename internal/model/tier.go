package model

import "github.com/shopspring/decimal"

// CommissionTier is one band in the ordered premium-volume rate table.
// MaxWrittenPremium nil means the band is unbounded above. Bands are
// contiguous and non-overlapping; both bounds are inclusive.
type CommissionTier struct {
	ID                string           `json:"id"`
	TierLevel         int              `json:"tier_level"`
	MinWrittenPremium decimal.Decimal  `json:"min_written_premium"`
	MaxWrittenPremium *decimal.Decimal `json:"max_written_premium,omitempty"`
	CommissionRate    decimal.Decimal  `json:"commission_rate"`
	Description       string           `json:"description,omitempty"`
	IsActive          bool             `json:"is_active"`
}

// Contains reports whether premium falls inside the tier band.
func (t CommissionTier) Contains(premium decimal.Decimal) bool {
	if premium.LessThan(t.MinWrittenPremium) {
		return false
	}
	if t.MaxWrittenPremium != nil && premium.GreaterThan(*t.MaxWrittenPremium) {
		return false
	}
	return true
}
