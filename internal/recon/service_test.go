package recon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/carrier"
	"github.com/sells-group/commission-cli/internal/model"
)

func newTestService(f *fakeStore) *Service {
	return NewService(f, carrier.NewRegistry(nil), nil)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intp(n int) *int { return &n }

func datep(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedTiers(f *fakeStore) {
	for _, t := range DefaultTiers() {
		_ = f.CreateTier(context.Background(), &t)
	}
}

func matchedLine(importID, policy string, txType model.TransactionType, premium string, saleID, agentID string) model.StatementLine {
	return model.StatementLine{
		ID:              policy + "-line",
		ImportID:        importID,
		PolicyNumber:    policy,
		TransactionType: txType,
		PremiumAmount:   decp(premium),
		IsMatched:       true,
		MatchedSaleID:   saleID,
		MatchConfidence: model.MatchExact,
		AssignedAgentID: agentID,
	}
}
