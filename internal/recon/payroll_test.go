package recon

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/commission-cli/internal/model"
)

func TestSubmitPayroll(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	seedPayFixture(t, f)

	rec, err := svc.SubmitPayroll(ctx, "2026-02", nil, "ops@example.com")
	require.NoError(t, err)

	assert.Equal(t, model.PayrollSubmitted, rec.Status)
	assert.True(t, rec.IsLocked)
	assert.Equal(t, "ops@example.com", rec.SubmittedBy)
	assert.Equal(t, "February 2026", rec.PeriodDisplay)
	assert.Equal(t, 1, rec.TotalAgents)
	assert.Equal(t, 2, rec.TotalCarriers)
	assert.True(t, dec("6000").Equal(rec.TotalPremium))
	assert.True(t, dec("300").Equal(rec.TotalAgentPay))

	// The snapshot round-trips the full calculation.
	var snap MonthlyPay
	require.NoError(t, json.Unmarshal(rec.Snapshot, &snap))
	assert.Equal(t, model.Period("2026-02"), snap.Period)
	require.Len(t, snap.Agents, 1)
	assert.True(t, dec("300").Equal(snap.Agents[0].TotalAgentCommission))

	lines, err := f.PayrollLines(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "agent-1", lines[0].AgentID)
	assert.Equal(t, model.CommissionPending, lines[0].CommissionStatus)
	assert.True(t, dec("300").Equal(lines[0].GrandTotal))

	// The matched sale moves to commission-pending.
	sale, err := f.GetSale(ctx, "sale-1")
	require.NoError(t, err)
	assert.Equal(t, model.CommissionPending, sale.CommissionStatus)
	assert.Equal(t, model.Period("2026-02"), sale.CommissionPaidPeriod)
}

func TestSubmitPayroll_RefusesLockedPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	seedPayFixture(t, f)

	_, err := svc.SubmitPayroll(ctx, "2026-02", nil, "ops")
	require.NoError(t, err)

	_, err = svc.SubmitPayroll(ctx, "2026-02", nil, "ops")
	assert.ErrorIs(t, err, ErrPayrollLocked)
}

func TestSubmitPayroll_ReplacesUnlockedDraft(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	seedPayFixture(t, f)

	first, err := svc.SubmitPayroll(ctx, "2026-02", nil, "ops")
	require.NoError(t, err)

	_, err = svc.UnlockPayroll(ctx, "2026-02")
	require.NoError(t, err)

	second, err := svc.SubmitPayroll(ctx, "2026-02", nil, "ops")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// Only the replacement remains.
	all, err := f.ListPayrolls(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID, all[0].ID)

	orphans, err := f.PayrollLines(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestSubmitPayroll_Overrides(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	seedPayFixture(t, f)

	rec, err := svc.SubmitPayroll(ctx, "2026-02", map[string]AgentOverride{
		"agent-1": {RateAdjustment: dec("0.01"), Bonus: dec("100")},
	}, "ops")
	require.NoError(t, err)

	lines, err := f.PayrollLines(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	line := lines[0]

	// 300 at a 5% base reprices 6000 of premium at 6%: 360, plus the bonus.
	assert.True(t, dec("0.01").Equal(line.RateAdjustment))
	assert.True(t, dec("100").Equal(line.Bonus))
	assert.True(t, dec("0.06").Equal(line.CommissionRate))
	assert.True(t, dec("360").Equal(line.TotalAgentCommission), "adjusted %s", line.TotalAgentCommission)
	assert.True(t, dec("460").Equal(line.GrandTotal))
	assert.True(t, dec("460").Equal(rec.TotalAgentPay))
}

func TestSubmitPayroll_BonusOnly(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	seedPayFixture(t, f)

	rec, err := svc.SubmitPayroll(ctx, "2026-02", map[string]AgentOverride{
		"agent-1": {Bonus: dec("50")},
	}, "ops")
	require.NoError(t, err)

	lines, err := f.PayrollLines(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, dec("300").Equal(lines[0].TotalAgentCommission))
	assert.True(t, dec("350").Equal(lines[0].GrandTotal))
}

func TestSubmitPayroll_NoImports(t *testing.T) {
	f := newFakeStore()
	svc := newTestService(f)
	seedTiers(f)

	_, err := svc.SubmitPayroll(context.Background(), "2026-02", nil, "ops")
	assert.ErrorIs(t, err, ErrNoImports)
}

func TestUnlockPayroll(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	seedPayFixture(t, f)

	_, err := svc.SubmitPayroll(ctx, "2026-02", nil, "ops")
	require.NoError(t, err)

	rec, err := svc.UnlockPayroll(ctx, "2026-02")
	require.NoError(t, err)
	assert.False(t, rec.IsLocked)
	assert.Equal(t, model.PayrollDraft, rec.Status)
}

func TestMarkPayrollPaid(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	seedPayFixture(t, f)

	submitted, err := svc.SubmitPayroll(ctx, "2026-02", nil, "ops")
	require.NoError(t, err)

	rec, err := svc.MarkPayrollPaid(ctx, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, model.PayrollPaid, rec.Status)
	require.NotNil(t, rec.PaidAt)

	lines, err := f.PayrollLines(ctx, submitted.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, model.CommissionPaid, lines[0].CommissionStatus)
	require.NotNil(t, lines[0].PaidAt)

	sale, err := f.GetSale(ctx, "sale-1")
	require.NoError(t, err)
	assert.Equal(t, model.CommissionPaid, sale.CommissionStatus)
	require.NotNil(t, sale.CommissionPaidDate)
}

func TestGetPayrollDetail(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	seedPayFixture(t, f)

	_, err := svc.SubmitPayroll(ctx, "2026-02", nil, "ops")
	require.NoError(t, err)

	detail, err := svc.GetPayrollDetail(ctx, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, model.Period("2026-02"), detail.Record.Period)
	require.Len(t, detail.Lines, 1)
	require.Len(t, detail.Lines[0].CarrierBreakdown, 2)

	sum := decimal.Zero
	for _, cb := range detail.Lines[0].CarrierBreakdown {
		sum = sum.Add(cb.AgentCommission)
	}
	assert.True(t, detail.Lines[0].TotalAgentCommission.Equal(sum))
}
