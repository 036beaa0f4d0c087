package recon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

const genericStatementCSV = `Policy Number,Insured Name,Transaction Type,Premium,Commission Amount
P1000001,Alice Moore,New Business,1000.00,120.00
P1000002,Bob Chen,Renewal,800.00,40.00
P1000003,Cara Diaz,New Business,600.00,72.00
`

func TestCreateImport_GenericCSV(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)

	imp, report, err := svc.CreateImport(ctx, "statement.csv", []byte(genericStatementCSV), "generic", "2026-03")
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, model.StatusMatched, imp.Status)
	assert.Equal(t, model.FormatCSV, imp.FileFormat)
	assert.Equal(t, "generic", imp.Carrier)
	assert.Equal(t, 3, imp.TotalRows)
	assert.Equal(t, 0, imp.SkippedRows)
	assert.True(t, dec("2400").Equal(imp.TotalPremium), "premium %s", imp.TotalPremium)
	assert.True(t, dec("232").Equal(imp.TotalCommission), "commission %s", imp.TotalCommission)
	require.NotNil(t, imp.ProcessingStartedAt)
	require.NotNil(t, imp.ProcessingCompletedAt)

	lines, err := f.ListLines(ctx, store.LineFilter{ImportID: imp.ID})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, model.TxNewBusiness, lines[0].TransactionType)
	assert.Equal(t, model.TxRenewal, lines[1].TransactionType)
	assert.Equal(t, "Alice Moore", lines[0].InsuredName)
}

func TestCreateImport_ParseFailurePersisted(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)

	// No recognizable policy number column.
	bad := "Foo,Bar\n1,2\n"
	imp, _, err := svc.CreateImport(ctx, "bad.csv", []byte(bad), "generic", "2026-03")
	require.Error(t, err)
	require.NotNil(t, imp)

	stored, err := f.GetImport(ctx, imp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, stored.Status)
	assert.NotEmpty(t, stored.ErrorMessage)
	assert.Equal(t, 0, stored.TotalRows)

	lines, err := f.ListLines(ctx, store.LineFilter{ImportID: imp.ID})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCreateImport_UnknownCarrier(t *testing.T) {
	f := newFakeStore()
	svc := newTestService(f)

	_, _, err := svc.CreateImport(context.Background(), "x.csv", []byte(genericStatementCSV), "acme_mutual", "2026-03")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)

	imp, _, err := svc.CreateImport(ctx, "statement.csv", []byte(genericStatementCSV), "generic", "2026-03")
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, imp.ID)
	require.NoError(t, err)
	assert.Len(t, summary.UnmatchedLines, 3)
	assert.Empty(t, summary.MatchedLines)

	nb := summary.TypeSummary["New Business"]
	assert.Equal(t, 2, nb.Count)
	assert.True(t, dec("1600").Equal(nb.Premium))
	assert.True(t, dec("192").Equal(nb.Commission))
	assert.Equal(t, 1, summary.TypeSummary["Renewal"].Count)
}

func TestDeleteImport(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)

	imp, _, err := svc.CreateImport(ctx, "statement.csv", []byte(genericStatementCSV), "generic", "2026-03")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteImport(ctx, imp.ID))
	_, err = f.GetImport(ctx, imp.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Error(t, svc.DeleteImport(ctx, imp.ID))
}

// Full pipeline: upload, match, and pay out one period end to end.
func TestImportMatchPayPipeline(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	seedTiers(f)

	require.NoError(t, f.CreateAgent(ctx, &model.Agent{ID: "agent-a", Name: "Avery Poole", Role: "producer", IsActive: true}))
	require.NoError(t, f.CreateSale(ctx, &model.Sale{
		ID:             "sale-p1",
		PolicyNumber:   "P1000001",
		PolicyType:     "Homeowners",
		ProducerID:     "agent-a",
		WrittenPremium: dec("12000"),
		SaleDate:       time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
		EffectiveDate:  datep(2026, time.March, 1),
	}))
	require.NoError(t, f.CreateSale(ctx, &model.Sale{
		ID:             "sale-p2",
		PolicyNumber:   "P1000002",
		PolicyType:     "Homeowners",
		ProducerID:     "agent-a",
		WrittenPremium: dec("800"),
		SaleDate:       time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		EffectiveDate:  datep(2025, time.March, 1),
	}))

	imp, _, err := svc.CreateImport(ctx, "statement.csv", []byte(genericStatementCSV), "generic", "2026-03")
	require.NoError(t, err)

	stats, err := svc.RunMatching(ctx, imp.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, 1, stats.Unmatched)

	pay, err := svc.CalculateMonthlyPay(ctx, "2026-03")
	require.NoError(t, err)
	require.Len(t, pay.Agents, 1)
	agent := pay.Agents[0]

	// 12000 written premium lands in the 3% tier. Only P1's 1000 of new
	// business is in-term; P2 is a renewal and P3 never matched.
	assert.Equal(t, 1, agent.TierLevel)
	assert.True(t, dec("0.03").Equal(agent.BaseRate))
	assert.True(t, dec("30").Equal(agent.TotalAgentCommission), "commission %s", agent.TotalAgentCommission)
}
