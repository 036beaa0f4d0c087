package recon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/commission-cli/internal/model"
)

func seedMatchFixture(t *testing.T, f *fakeStore) string {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.CreateAgent(ctx, &model.Agent{ID: "agent-1", Name: "Dana Reed", Role: "producer", IsActive: true}))
	require.NoError(t, f.CreateSale(ctx, &model.Sale{
		ID:           "sale-exact",
		PolicyNumber: "POL12345",
		ProducerID:   "agent-1",
		SaleDate:     time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, f.CreateSale(ctx, &model.Sale{
		ID:           "sale-fuzzy",
		PolicyNumber: "AB-9876543-XYZ",
		ProducerID:   "agent-1",
		SaleDate:     time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC),
	}))

	imp := &model.StatementImport{ID: "imp-1", Carrier: "generic", Period: "2026-02", Status: model.StatusMatched}
	lines := []model.StatementLine{
		{ID: "l-exact", PolicyNumber: "POL12345", TransactionType: model.TxNewBusiness},
		{ID: "l-fuzzy", PolicyNumber: "0009876543", TransactionType: model.TxNewBusiness},
		{ID: "l-miss", PolicyNumber: "NOPE99999", TransactionType: model.TxNewBusiness},
		{ID: "l-short", PolicyNumber: "0001", TransactionType: model.TxNewBusiness},
	}
	require.NoError(t, f.CreateImportWithLines(ctx, imp, lines))
	return imp.ID
}

func TestRunMatching(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	impID := seedMatchFixture(t, f)

	stats, err := svc.RunMatching(ctx, impID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, 2, stats.NewlyMatched)
	assert.Equal(t, 2, stats.Unmatched)

	exact, err := f.GetLine(ctx, "l-exact")
	require.NoError(t, err)
	assert.True(t, exact.IsMatched)
	assert.Equal(t, "sale-exact", exact.MatchedSaleID)
	assert.Equal(t, model.MatchExact, exact.MatchConfidence)
	assert.Equal(t, "agent-1", exact.AssignedAgentID)
	require.NotNil(t, exact.MatchedAt)

	// Leading zeros stripped, then substring against the sale's number.
	fuzzy, err := f.GetLine(ctx, "l-fuzzy")
	require.NoError(t, err)
	assert.True(t, fuzzy.IsMatched)
	assert.Equal(t, "sale-fuzzy", fuzzy.MatchedSaleID)
	assert.Equal(t, model.MatchFuzzy, fuzzy.MatchConfidence)

	// Too short after zero-stripping for a substring search.
	short, err := f.GetLine(ctx, "l-short")
	require.NoError(t, err)
	assert.False(t, short.IsMatched)

	imp, err := f.GetImport(ctx, impID)
	require.NoError(t, err)
	assert.Equal(t, 2, imp.MatchedRows)
	assert.Equal(t, 2, imp.UnmatchedRows)
	assert.Equal(t, model.StatusPartiallyMatched, imp.Status)
}

func TestRunMatching_Rerunnable(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	impID := seedMatchFixture(t, f)

	_, err := svc.RunMatching(ctx, impID)
	require.NoError(t, err)

	stats, err := svc.RunMatching(ctx, impID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, 0, stats.NewlyMatched, "second pass must not rematch")
	assert.Equal(t, 2, stats.Unmatched)
}

func TestManualMatch(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	impID := seedMatchFixture(t, f)

	_, err := svc.RunMatching(ctx, impID)
	require.NoError(t, err)

	line, err := svc.ManualMatch(ctx, "l-miss", "sale-exact")
	require.NoError(t, err)
	assert.True(t, line.IsMatched)
	assert.Equal(t, model.MatchManual, line.MatchConfidence)
	assert.Equal(t, "agent-1", line.AssignedAgentID)

	imp, err := f.GetImport(ctx, impID)
	require.NoError(t, err)
	assert.Equal(t, 3, imp.MatchedRows)
	assert.Equal(t, 1, imp.UnmatchedRows)
}

func TestManualMatch_SurvivesAutomaticPass(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newTestService(f)
	impID := seedMatchFixture(t, f)

	// Manually link a line whose policy number would auto-match a
	// different sale, then run the automatic pass.
	_, err := svc.ManualMatch(ctx, "l-exact", "sale-fuzzy")
	require.NoError(t, err)

	_, err = svc.RunMatching(ctx, impID)
	require.NoError(t, err)

	line, err := f.GetLine(ctx, "l-exact")
	require.NoError(t, err)
	assert.Equal(t, "sale-fuzzy", line.MatchedSaleID)
	assert.Equal(t, model.MatchManual, line.MatchConfidence)
}

func TestManualMatch_UnknownLine(t *testing.T) {
	f := newFakeStore()
	svc := newTestService(f)

	_, err := svc.ManualMatch(context.Background(), "missing", "sale-exact")
	assert.Error(t, err)
}
