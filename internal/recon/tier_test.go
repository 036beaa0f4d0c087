package recon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/commission-cli/internal/model"
)

func TestResolveTier_Bands(t *testing.T) {
	tiers := DefaultTiers()

	tests := []struct {
		premium   string
		wantRate  string
		wantLevel int
	}{
		{"0", "0.03", 1},
		{"39999.99", "0.03", 1},
		{"40000", "0.03", 2},
		{"49999.99", "0.03", 2},
		{"50000.00", "0.04", 3},
		{"59999.99", "0.04", 3},
		{"60000", "0.05", 4},
		{"100000", "0.06", 5},
		{"150000", "0.07", 6},
		{"199999.99", "0.07", 6},
		{"200000", "0.08", 7},
		{"250000", "0.08", 7},
		{"5000000", "0.08", 7},
	}
	for _, tt := range tests {
		t.Run(tt.premium, func(t *testing.T) {
			rate, level := resolveTier(tiers, dec(tt.premium))
			assert.True(t, dec(tt.wantRate).Equal(rate), "rate %s", rate)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestResolveTier_NoMatchFallsBackToDefault(t *testing.T) {
	// A band table with a gap below 10000.
	m := dec("99999")
	tiers := []model.CommissionTier{
		{TierLevel: 2, MinWrittenPremium: dec("10000"), MaxWrittenPremium: &m, CommissionRate: dec("0.05"), IsActive: true},
	}

	rate, level := resolveTier(tiers, dec("500"))
	assert.True(t, dec("0.03").Equal(rate))
	assert.Equal(t, 1, level)

	rate, level = resolveTier(nil, dec("500"))
	assert.True(t, dec("0.03").Equal(rate))
	assert.Equal(t, 1, level)
}

func TestResolveTier_HighestLevelWinsOnOverlap(t *testing.T) {
	tiers := []model.CommissionTier{
		{TierLevel: 1, MinWrittenPremium: decimal.Zero, CommissionRate: dec("0.03"), IsActive: true},
		{TierLevel: 4, MinWrittenPremium: dec("60000"), CommissionRate: dec("0.05"), IsActive: true},
	}

	rate, level := resolveTier(tiers, dec("75000"))
	assert.True(t, dec("0.05").Equal(rate))
	assert.Equal(t, 4, level)
}

func TestDefaultTiers_ContiguousBands(t *testing.T) {
	tiers := DefaultTiers()
	require.Len(t, tiers, 7)

	for i, tier := range tiers {
		assert.Equal(t, i+1, tier.TierLevel)
		assert.True(t, tier.IsActive)
		if i == len(tiers)-1 {
			assert.Nil(t, tier.MaxWrittenPremium)
			continue
		}
		require.NotNil(t, tier.MaxWrittenPremium)
		// The next band starts one cent above this one's cap.
		gap := tiers[i+1].MinWrittenPremium.Sub(*tier.MaxWrittenPremium)
		assert.True(t, gap.Equal(dec("0.01")), "band %d gap %s", tier.TierLevel, gap)
	}
}
