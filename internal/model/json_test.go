package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMoney checks that a marshaled field came through as a decimal
// string with the expected value.
func assertMoney(t *testing.T, got map[string]any, key, want string) {
	t.Helper()
	raw, ok := got[key].(string)
	require.True(t, ok, "field %q missing or not a string: %v", key, got[key])
	parsed, err := decimal.NewFromString(raw)
	require.NoError(t, err, "field %q", key)
	assert.True(t, decimal.RequireFromString(want).Equal(parsed),
		"field %q: want %s, got %s", key, want, raw)
}

// The API returns these structs directly, so every monetary field has to
// survive marshaling as an exact decimal string.
func TestPayrollAgentLineSerializesMoney(t *testing.T) {
	line := PayrollAgentLine{
		ID:                   "pl-1",
		AgentID:              "agent-1",
		TierLevel:            4,
		CommissionRate:       decimal.RequireFromString("0.05"),
		TotalPremium:         decimal.RequireFromString("6000.00"),
		NewBusinessPremium:   decimal.RequireFromString("4000.00"),
		TotalAgentCommission: decimal.RequireFromString("123.45"),
		Chargebacks:          decimal.RequireFromString("-25.00"),
		ChargebackPremium:    decimal.RequireFromString("-500.00"),
		RateAdjustment:       decimal.RequireFromString("0.01"),
		Bonus:                decimal.RequireFromString("100.00"),
		GrandTotal:           decimal.RequireFromString("150.00"),
	}

	raw, err := json.Marshal(line)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assertMoney(t, got, "commission_rate", "0.05")
	assertMoney(t, got, "total_premium", "6000")
	assertMoney(t, got, "new_business_premium", "4000")
	assertMoney(t, got, "total_agent_commission", "123.45")
	assertMoney(t, got, "chargebacks", "-25")
	assertMoney(t, got, "chargeback_premium", "-500")
	assertMoney(t, got, "rate_adjustment", "0.01")
	assertMoney(t, got, "bonus", "100")
	assertMoney(t, got, "grand_total", "150")
}

func TestPayrollRecordSerializesMoney(t *testing.T) {
	rec := PayrollRecord{
		ID:               "pr-1",
		Period:           "2026-02",
		TotalPremium:     decimal.RequireFromString("6000.00"),
		TotalAgentPay:    decimal.RequireFromString("300.00"),
		TotalChargebacks: decimal.RequireFromString("-25.00"),
		Snapshot:         []byte(`{"period":"2026-02"}`),
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assertMoney(t, got, "total_premium", "6000")
	assertMoney(t, got, "total_agent_pay", "300")
	assertMoney(t, got, "total_chargebacks", "-25")
	assert.NotContains(t, got, "Snapshot", "the audit blob stays internal")
}

func TestCommissionTierSerializesBand(t *testing.T) {
	max := decimal.RequireFromString("59999.99")
	tier := CommissionTier{
		ID:                "t-3",
		TierLevel:         3,
		MinWrittenPremium: decimal.RequireFromString("50000"),
		MaxWrittenPremium: &max,
		CommissionRate:    decimal.RequireFromString("0.04"),
		IsActive:          true,
	}

	raw, err := json.Marshal(tier)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assertMoney(t, got, "min_written_premium", "50000")
	assertMoney(t, got, "max_written_premium", "59999.99")
	assertMoney(t, got, "commission_rate", "0.04")

	// Unbounded top band omits the max entirely.
	tier.MaxWrittenPremium = nil
	raw, err = json.Marshal(tier)
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.NotContains(t, got, "max_written_premium")
}

func TestStatementStructsSerializeMoney(t *testing.T) {
	imp := StatementImport{
		ID:              "imp-1",
		TotalPremium:    decimal.RequireFromString("2400.00"),
		TotalCommission: decimal.RequireFromString("232.00"),
	}
	raw, err := json.Marshal(imp)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assertMoney(t, got, "total_premium", "2400")
	assertMoney(t, got, "total_commission", "232")

	premium := decimal.RequireFromString("1000.00")
	commission := decimal.RequireFromString("120.00")
	agentRate := decimal.RequireFromString("0.03")
	line := StatementLine{
		ID:                  "l-1",
		PolicyNumber:        "P1000001",
		PremiumAmount:       &premium,
		CommissionAmount:    &commission,
		AgentCommissionRate: &agentRate,
		RawData:             `{"Premium":"1000.00"}`,
	}
	raw, err = json.Marshal(line)
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal(raw, &got))
	assertMoney(t, got, "premium_amount", "1000")
	assertMoney(t, got, "commission_amount", "120")
	assertMoney(t, got, "agent_commission_rate", "0.03")
	assert.NotContains(t, got, "RawData")

	// The carrier rate is nil on this line and stays absent, not zeroed.
	assert.NotContains(t, got, "commission_rate")
}
